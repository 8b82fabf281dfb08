// Package previewfs persists the generated thumbnails, so that the same
// mail uploaded twice does not pay the rasterization twice. The thumbnails
// are kept on the filesystem configured by fs.url, keyed by the sha256 of
// the source message.
package previewfs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/spf13/afero"
)

const containerName = "previews"

// Cache is an interface for persisting the thumbnails for later reuse.
type Cache interface {
	Get(sum string) (*bytes.Buffer, error)
	Set(sum string, buffer *bytes.Buffer) error
}

var memfs afero.Fs
var memfsOnce sync.Once

// SystemCache returns the global cache, using the configuration file.
func SystemCache() Cache {
	fsURL := config.FsURL()
	switch fsURL.Scheme {
	case config.SchemeFile:
		fs := afero.NewBasePathFs(afero.NewOsFs(), path.Join(fsURL.Path, containerName))
		return aferoCache{fs}
	case config.SchemeMem:
		memfsOnce.Do(func() { memfs = afero.NewMemMapFs() })
		return aferoCache{memfs}
	default:
		panic(fmt.Errorf("previewfs: unknown storage provider %s", fsURL.Scheme))
	}
}

type aferoCache struct {
	fs afero.Fs
}

func (a aferoCache) Get(sum string) (*bytes.Buffer, error) {
	f, err := a.fs.Open(filename(sum))
	if err != nil {
		return nil, err
	}
	return readClose(f)
}

func (a aferoCache) Set(sum string, buffer *bytes.Buffer) error {
	exists, err := afero.DirExists(a.fs, "/")
	if err != nil || !exists {
		_ = a.fs.MkdirAll("/", 0o700)
	}
	f, err := a.fs.OpenFile(filename(sum), os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	return writeClose(f, buffer)
}

func filename(sum string) string {
	return sum + ".webp"
}

func readClose(f io.ReadCloser) (*bytes.Buffer, error) {
	buffer := &bytes.Buffer{}
	_, err := buffer.ReadFrom(f)
	if errc := f.Close(); errc != nil && err == nil {
		return nil, errc
	}
	return buffer, err
}

func writeClose(f io.WriteCloser, buffer *bytes.Buffer) error {
	_, err := f.Write(buffer.Bytes())
	if errc := f.Close(); errc != nil && err == nil {
		err = errc
	}
	return err
}
