// Package config is in charge of the stack configuration: reading it from
// the config files (or the environment), and exposing it to the other
// packages.
package config

import (
	"bytes"
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/mailpaper/mailpaper/pkg/cache"
	build "github.com/mailpaper/mailpaper/pkg/config"
	"github.com/mailpaper/mailpaper/pkg/logger"
	"github.com/mailpaper/mailpaper/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Filename is the default configuration filename that mailpaper searches for
const Filename = "mailpaper"

// Paths is the list of directories used to search for a configuration file
var Paths = []string{
	".",
	".mailpaper",
	"$HOME/.mailpaper",
	"$HOME/.config/mailpaper",
	"$XDG_CONFIG_HOME/mailpaper",
	"/etc/mailpaper",
}

const (
	// SchemeFile is the URL scheme used to configure a file filesystem.
	SchemeFile = "file"
	// SchemeMem is the URL scheme used to configure an in-memory filesystem.
	SchemeMem = "mem"
)

var config *Config

var log = logger.WithNamespace("config")

// Config contains the configuration values of the application
type Config struct {
	Host string
	Port int

	Fs        Fs
	Gotenberg Gotenberg
	Tika      Tika
	Convert   Convert

	CacheStorage cache.Cache
}

// Fs contains the configuration values of the file-system used for the
// generated artifacts and the preview cache.
type Fs struct {
	URL *url.URL
}

// Gotenberg contains the configuration values for the Gotenberg server used
// to render HTML to PDF and to merge PDF documents.
type Gotenberg struct {
	URL     string
	Timeout time.Duration
}

// Tika contains the configuration values for the Apache Tika server used to
// extract plain text from HTML bodies.
type Tika struct {
	URL     string
	Timeout time.Duration
}

// Convert contains the configuration values for the external conversion
// tools invoked by the stack.
type Convert struct {
	// ImageMagickCmd is the path of the ImageMagick convert command.
	ImageMagickCmd string
	// GhostscriptCmd is the path of the ghostscript command.
	GhostscriptCmd string
}

// FsURL returns a copy of the filesystem URL
func FsURL() *url.URL {
	return utils.CloneURL(config.Fs.URL)
}

// ServerAddr returns the address on which the stack is run
func ServerAddr() string {
	return net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
}

// GetConfig returns the configured instance of Config
func GetConfig() *Config {
	return config
}

// Setup Viper to read the environment and the optional config file
func Setup(cfgFile string) (err error) {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetEnvPrefix("mailpaper")
	viper.AutomaticEnv()
	applyDefaults(viper.GetViper())

	var cfgFiles []string
	if cfgFile == "" {
		cfgFiles, err = findConfigFiles(Filename)
		if err != nil {
			return err
		}
	} else {
		cfgFiles = []string{cfgFile}
	}

	if len(cfgFiles) == 0 {
		return UseViper(viper.GetViper())
	}

	log.Debugf("Using config files: %s", cfgFiles)

	for _, cfgFile = range cfgFiles {
		tmplName := filepath.Base(cfgFile)
		tmpl := template.New(tmplName)
		tmpl = tmpl.Option("missingkey=zero")
		tmpl, err = tmpl.ParseFiles(cfgFile)
		if err != nil {
			return fmt.Errorf("Unable to open and parse configuration file "+
				"template %s: %s", cfgFile, err)
		}

		dest := new(bytes.Buffer)
		ctxt := &struct {
			Env    map[string]string
			NumCPU int
		}{
			Env:    envMap(),
			NumCPU: runtime.NumCPU(),
		}
		err = tmpl.ExecuteTemplate(dest, tmplName, ctxt)
		if err != nil {
			return fmt.Errorf("Template error for config file %s: %s", cfgFile, err)
		}

		cfgFile = regexp.MustCompile(`\.local$`).ReplaceAllString(cfgFile, "")
		if ext := filepath.Ext(cfgFile); len(ext) > 0 {
			viper.SetConfigType(ext[1:])
		}
		if err := viper.MergeConfig(dest); err != nil {
			if _, isParseErr := err.(viper.ConfigParseError); isParseErr {
				log.Errorf("Failed to read mailpaper configuration from %s", cfgFile)
				log.Error(dest.String())
				return err
			}
		}
	}

	return UseViper(viper.GetViper())
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8080)
	v.SetDefault("fs.url", "file://localhost/var/lib/mailpaper")
	v.SetDefault("gotenberg.url", "http://localhost:3000")
	v.SetDefault("gotenberg.timeout", 30*time.Second)
	v.SetDefault("tika.url", "http://localhost:9998")
	v.SetDefault("tika.timeout", 30*time.Second)
	v.SetDefault("convert.imagemagick_cmd", "convert")
	v.SetDefault("convert.ghostscript_cmd", "gs")
	v.SetDefault("log.level", "info")
}

func envMap() map[string]string {
	env := make(map[string]string)
	for _, i := range os.Environ() {
		sep := strings.Index(i, "=")
		env[i[0:sep]] = i[sep+1:]
	}
	return env
}

// UseViper sets the configured instance of Config
func UseViper(v *viper.Viper) error {
	fsURL, err := url.Parse(v.GetString("fs.url"))
	if err != nil {
		return err
	}
	switch fsURL.Scheme {
	case SchemeFile:
		fsPath := fsURL.Path
		if fsPath != "" && !path.IsAbs(fsPath) {
			return fmt.Errorf("Filesystem path should be absolute, was: %q", fsPath)
		}
		if fsPath == "/" {
			return fmt.Errorf("Filesystem path should not be root, was: %q", fsPath)
		}
	case SchemeMem:
		// Nothing to check
	default:
		return fmt.Errorf("Unknown filesystem scheme %q", fsURL.Scheme)
	}

	var redisClient redis.UniversalClient
	if cacheURL := v.GetString("cache.url"); cacheURL != "" {
		opts, err := redis.ParseURL(cacheURL)
		if err != nil {
			return fmt.Errorf("Invalid cache URL %q: %s", cacheURL, err)
		}
		redisClient = redis.NewClient(opts)
	}

	config = &Config{
		Host: v.GetString("host"),
		Port: v.GetInt("port"),

		Fs: Fs{URL: fsURL},
		Gotenberg: Gotenberg{
			URL:     strings.TrimSuffix(v.GetString("gotenberg.url"), "/"),
			Timeout: v.GetDuration("gotenberg.timeout"),
		},
		Tika: Tika{
			URL:     strings.TrimSuffix(v.GetString("tika.url"), "/"),
			Timeout: v.GetDuration("tika.timeout"),
		},
		Convert: Convert{
			ImageMagickCmd: v.GetString("convert.imagemagick_cmd"),
			GhostscriptCmd: v.GetString("convert.ghostscript_cmd"),
		},

		CacheStorage: cache.Init(redisClient),
	}

	return logger.Init(logger.Options{
		Level: v.GetString("log.level"),
	})
}

func createTestViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("mailpaper.test")
	v.AddConfigPath("$HOME/.mailpaper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("mailpaper")
	v.AutomaticEnv()
	v.SetDefault("fs.url", "mem://test")
	applyDefaults(v)
	v.Set("fs.url", "mem://test")
	return v
}

// UseTestFile can be used in a test file to inject a configuration from a
// mailpaper.test.* file. If it can not find this file in your $HOME/.mailpaper
// directory it will use the default one.
func UseTestFile(t *testing.T) {
	t.Helper()

	build.BuildMode = build.ModeProd
	v := createTestViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			v = createTestViper()
		} else {
			t.Fatalf("fatal error test config file: %s", err)
		}
	}

	if err := UseViper(v); err != nil {
		t.Fatalf("fatal error test config file: %s", err)
	}
}

// FindConfigFile searches in the Paths directories for the file with the
// given name. It returns an error if it cannot find it or if an error occurs
// while searching.
func FindConfigFile(name string) (string, error) {
	for _, cp := range Paths {
		filename := filepath.Join(utils.AbsPath(cp), name)
		ok, err := utils.FileExists(filename)
		if err != nil {
			return "", err
		}
		if ok {
			return filename, nil
		}
	}
	return "", fmt.Errorf("Could not find config file %q", name)
}

func findConfigFiles(name string) ([]string, error) {
	var files []string
	for _, ext := range viper.SupportedExts {
		filename, err := FindConfigFile(name + "." + ext)
		if err == nil {
			files = append(files, filename)
			break
		}
	}
	if len(files) == 0 {
		return nil, nil
	}

	local, err := FindConfigFile(filepath.Base(files[0]) + ".local")
	if err == nil {
		files = append(files, local)
	}

	return files, nil
}
