package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// ErrUsage is returned by the cmd.Usage() method
var ErrUsage = errors.New("Bad usage of command")

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "mailpaper",
	Short: "mailpaper is the main command",
	Long: `mailpaper turns email messages into archival documents: a PDF rendition, a
WEBP thumbnail, and the extracted plain text. The rendering is delegated to a
Gotenberg server, the HTML text extraction to an Apache Tika server, and the
rasterization to ImageMagick.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Setup(cfgFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Display the usage/help by default
		return cmd.Usage()
	},
	// Do not display usage on error
	SilenceUsage: true,
	// We have our own way to display error messages
	SilenceErrors: true,
}

func init() {
	usageFunc := RootCmd.UsageFunc()

	RootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		_ = usageFunc(cmd)
		return ErrUsage
	})

	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "configuration file (default \"$HOME/.mailpaper.yaml\")")

	flags.String("host", "localhost", "server host")
	checkNoErr(viper.BindPFlag("host", flags.Lookup("host")))

	flags.IntP("port", "p", 8080, "server port")
	checkNoErr(viper.BindPFlag("port", flags.Lookup("port")))

	flags.String("gotenberg-url", "", "URL of the Gotenberg server")
	checkNoErr(viper.BindPFlag("gotenberg.url", flags.Lookup("gotenberg-url")))

	flags.String("tika-url", "", "URL of the Apache Tika server")
	checkNoErr(viper.BindPFlag("tika.url", flags.Lookup("tika-url")))

	flags.String("log-level", "info", "define the log level")
	checkNoErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))
}

func checkNoErr(err error) {
	if err != nil {
		panic(err)
	}
}

func errPrintfln(format string, vals ...interface{}) {
	_, err := fmt.Fprintf(os.Stderr, format+"\n", vals...)
	if err != nil {
		panic(err)
	}
}
