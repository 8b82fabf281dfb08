package maildoc

// These tests exercise the real external services. They are skipped unless
// the matching environment variables point to live servers:
//
//	GOTENBERG_LIVE=http://localhost:3000
//	TIKA_LIVE=http://localhost:9998
//	MAILPAPER_TEST_ONLINE=1
//
// The rasterization tests additionally need the ImageMagick convert binary,
// and can be disabled with MAILPAPER_TEST_SKIP_CONVERT=1.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/mailpaper/mailpaper/pkg/convert"
	"github.com/mailpaper/mailpaper/pkg/gotenberg"
	"github.com/mailpaper/mailpaper/pkg/pdf"
	"github.com/mailpaper/mailpaper/pkg/safehttp"
	"github.com/mailpaper/mailpaper/pkg/tika"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mailRenditionSum = "8734a3f0a567979343824e468cd737bf29c02086bbfd8773e94feb986968ad32"
	htmlRenditionSum = "267d61f0ab8f128a037002a424b2cb4bfe18a81e17f0b70f15d241688ed47d1a"
)

func gotenbergURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("GOTENBERG_LIVE")
	if url == "" {
		t.Skip("set GOTENBERG_LIVE to the URL of a Gotenberg server to run this test")
	}
	return url
}

func tikaURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TIKA_LIVE")
	if url == "" {
		t.Skip("set TIKA_LIVE to the URL of a Tika server to run this test")
	}
	return url
}

func requireConvert(t *testing.T) {
	t.Helper()
	if os.Getenv("MAILPAPER_TEST_SKIP_CONVERT") != "" {
		t.Skip("rasterization disabled by MAILPAPER_TEST_SKIP_CONVERT")
	}
	if _, err := exec.LookPath("convert"); err != nil {
		t.Skipf("this test requires the ImageMagick convert binary: %s", err)
	}
}

func newLiveParser(t *testing.T, tikaEndpoint, gotenbergEndpoint string) *Parser {
	t.Helper()
	p, err := NewParser(
		tika.NewClient(tikaEndpoint, 30*time.Second),
		gotenberg.NewClient(gotenbergEndpoint, 30*time.Second),
		convert.NewRunner(""),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Cleanup() })
	return p
}

// hashFile computes the sha256 of a file, streaming it with a small buffer
// so that even large renditions do not load fully in memory.
func hashFile(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func TestLiveThumbnailMatchesTheGolden(t *testing.T) {
	url := gotenbergURL(t)
	requireConvert(t)

	p := newLiveParser(t, "", url)
	thumb, err := p.Thumbnail(context.Background(), "testdata/simple_text.eml")
	require.NoError(t, err)

	assert.Equal(t, hashFile(t, "testdata/simple_text.eml.pdf.webp"), hashFile(t, thumb))
}

func TestLiveTikaText(t *testing.T) {
	url := tikaURL(t)

	p := newLiveParser(t, url, "")
	text, err := p.TikaText(context.Background(),
		`<html><head><meta http-equiv="content-type" content="text/html; charset=UTF-8"></head><body><p>Some Text</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "\n\n\n\n\n\n\n\n\nSome Text\n", text)
}

func TestLiveGeneratePDFMergeKeepsTheOrder(t *testing.T) {
	url := gotenbergURL(t)

	first, err := os.ReadFile("testdata/first.pdf")
	require.NoError(t, err)
	second, err := os.ReadFile("testdata/second.pdf")
	require.NoError(t, err)

	p := newLiveParser(t, "", url)
	p.renderMail = func(ctx context.Context, m *Mail) ([]byte, error) {
		return first, nil
	}
	p.renderHTML = func(ctx context.Context, m *Mail) ([]byte, error) {
		return second, nil
	}

	merged, err := p.GeneratePDF(context.Background(), "testdata/html.eml")
	require.NoError(t, err)

	text, err := pdf.ExtractText(merged)
	require.NoError(t, err)
	assert.Equal(t, "first\tPDF\tto\tbe\tmerged.\n\n\x0csecond\tPDF\tto\tbe\tmerged.\n\n\x0c", text)
}

func TestLiveGeneratePDFFromMailRendition(t *testing.T) {
	url := gotenbergURL(t)
	requireConvert(t)

	m, err := ReadFile("testdata/simple_text.eml")
	require.NoError(t, err)

	p := newLiveParser(t, "", url)
	rendition, err := p.GeneratePDFFromMail(context.Background(), m)
	require.NoError(t, err)

	sum := rasterizedSum(t, p, rendition)
	assert.Equal(t, mailRenditionSum, sum)
}

func TestLiveGeneratePDFFromHTMLRendition(t *testing.T) {
	url := gotenbergURL(t)
	requireConvert(t)

	m, err := ReadFile("testdata/html.eml")
	require.NoError(t, err)

	p := newLiveParser(t, "", url)
	rendition, err := p.GeneratePDFFromHTML(context.Background(), m.HTML, m.Attachments)
	require.NoError(t, err)

	sum := rasterizedSum(t, p, rendition)
	assert.Equal(t, htmlRenditionSum, sum)
}

// rasterizedSum hashes the rasterization of a PDF rendition instead of the
// PDF itself, as the PDF bytes change from one run to another (creation
// date, document id).
func rasterizedSum(t *testing.T, p *Parser, rendition []byte) string {
	t.Helper()
	src := p.TempDir() + "/rendition.pdf"
	require.NoError(t, os.WriteFile(src, rendition, 0o640))

	out := src + ".webp"
	err := p.convert.Run(context.Background(), convert.Options{
		Density:     300,
		Scale:       "500x5000>",
		RemoveAlpha: true,
		Strip:       true,
		AutoOrient:  true,
		InputFile:   src + "[0]",
		OutputFile:  out,
	})
	require.NoError(t, err)
	return hashFile(t, out)
}

func TestOnlineImagesAreStillAvailable(t *testing.T) {
	if os.Getenv("MAILPAPER_TEST_ONLINE") == "" {
		t.Skip("set MAILPAPER_TEST_ONLINE=1 to run this test against the network")
	}

	content, err := os.ReadFile("testdata/sample.html")
	require.NoError(t, err)

	urls := RemoteImages(string(content))
	require.NotEmpty(t, urls)
	for _, url := range urls {
		assert.NoError(t, safehttp.CheckResource(context.Background(), url), url)
	}

	// A missing resource must be reported, so that a rotten fixture does not
	// silently turn into a blank rendition.
	err = safehttp.CheckResource(context.Background(),
		"https://upload.wikimedia.org/wikipedia/en/f/f7/nonexistent7bA5.png")
	require.Error(t, err)
}
