package maildoc

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/mailpaper/mailpaper/pkg/convert"
	"github.com/mailpaper/mailpaper/pkg/gotenberg"
	"github.com/mailpaper/mailpaper/pkg/logger"
	"github.com/mailpaper/mailpaper/pkg/tika"
	"golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// Parser produces the archival artifacts of a mail: a PDF rendition, a WEBP
// thumbnail, and the extracted plain text. The artifacts are written in a
// private temporary directory that lives until Cleanup is called.
type Parser struct {
	tika      *tika.Client
	gotenberg *gotenberg.Client
	convert   *convert.Runner
	tempDir   string
	log       *logger.Entry

	// The two PDF generators are fields so that tests can stub one side of
	// the merge.
	renderMail func(ctx context.Context, m *Mail) ([]byte, error)
	renderHTML func(ctx context.Context, m *Mail) ([]byte, error)
}

// NewParser instantiates a new [Parser] with its own temporary directory.
// The caller is expected to call Cleanup when the artifacts are no longer
// needed.
func NewParser(tikaClient *tika.Client, gotenbergClient *gotenberg.Client, runner *convert.Runner) (*Parser, error) {
	tempDir, err := os.MkdirTemp("", "maildoc")
	if err != nil {
		return nil, err
	}
	p := &Parser{
		tika:      tikaClient,
		gotenberg: gotenbergClient,
		convert:   runner,
		tempDir:   tempDir,
		log:       logger.WithNamespace("maildoc"),
	}
	p.renderMail = p.GeneratePDFFromMail
	p.renderHTML = func(ctx context.Context, m *Mail) ([]byte, error) {
		return p.GeneratePDFFromHTML(ctx, m.HTML, m.Attachments)
	}
	return p, nil
}

// TempDir returns the directory where the parser writes its artifacts.
func (p *Parser) TempDir() string {
	return p.tempDir
}

// Cleanup removes the temporary directory of the parser and all the
// artifacts inside it.
func (p *Parser) Cleanup() error {
	return os.RemoveAll(p.tempDir)
}

// ExtractText returns the plain text of a mail: its text body, the inventory
// of its attachments, and the text of its HTML body as extracted by Tika.
func (p *Parser) ExtractText(ctx context.Context, m *Mail) (string, error) {
	var b strings.Builder
	if text := strings.TrimSpace(m.Text); text != "" {
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	var names []string
	for _, a := range m.Attachments {
		if a.Disposition == "attachment" && a.Filename != "" {
			names = append(names, a.Filename)
		}
	}
	if len(names) > 0 {
		b.WriteString("Attachments: ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n\n")
	}

	if m.HTML != "" {
		text, err := p.TikaText(ctx, m.HTML)
		if err != nil {
			return "", err
		}
		b.WriteString(strings.TrimSpace(text))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// TikaText sends an HTML document to Tika and returns its plain-text
// rendition, untouched. An empty document yields an empty string without
// calling the server.
func (p *Parser) TikaText(ctx context.Context, html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	text, err := p.tika.Text(ctx, []byte(html))
	if err != nil {
		return "", fmt.Errorf("%w: tika: %s", ErrParse, err)
	}
	return text, nil
}

// mailTemplate renders the headers and the text body of a mail as a
// printable HTML document. It is kept deterministic: the same mail always
// produces the same HTML, so the PDF renditions can be compared.
var mailTemplate = template.Must(template.New("mail").Funcs(template.FuncMap{
	"join": func(list []string) string { return strings.Join(list, ", ") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: sans-serif; font-size: 11pt; }
table.headers { border-collapse: collapse; margin-bottom: 1em; }
table.headers td { padding: 1px 8px 1px 0; vertical-align: top; }
table.headers td.name { font-weight: bold; white-space: nowrap; }
pre.body { font-family: inherit; white-space: pre-wrap; word-wrap: break-word; }
</style>
</head>
<body>
<table class="headers">
{{if .From}}<tr><td class="name">From</td><td>{{join .From}}</td></tr>{{end}}
{{if .To}}<tr><td class="name">To</td><td>{{join .To}}</td></tr>{{end}}
{{if .CC}}<tr><td class="name">CC</td><td>{{join .CC}}</td></tr>{{end}}
{{if .Subject}}<tr><td class="name">Subject</td><td>{{.Subject}}</td></tr>{{end}}
{{if .Date}}<tr><td class="name">Date</td><td>{{.Date}}</td></tr>{{end}}
</table>
<hr>
<pre class="body">{{.Text}}</pre>
</body>
</html>
`))

type mailTemplateData struct {
	From    []string
	To      []string
	CC      []string
	Subject string
	Date    string
	Text    string
}

// GeneratePDFFromMail renders the headers and the text body of the mail to
// an HTML document, and prints it to PDF with Gotenberg.
func (p *Parser) GeneratePDFFromMail(ctx context.Context, m *Mail) ([]byte, error) {
	data := mailTemplateData{
		From:    m.From,
		To:      m.To,
		CC:      m.CC,
		Subject: m.Subject,
		Text:    m.Text,
	}
	if !m.Date.IsZero() {
		data.Date = m.Date.UTC().Format("2006-01-02 15:04")
	}

	buf := new(bytes.Buffer)
	if err := mailTemplate.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}

	pdf, err := p.gotenberg.ConvertHTML(ctx, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	return pdf, nil
}

// GeneratePDFFromHTML prints the HTML body of a mail to PDF with Gotenberg.
// The cid: references to the inline attachments are rewritten to plain file
// names, and the attachments are sent along the HTML so that Chromium can
// load them.
func (p *Parser) GeneratePDFFromHTML(ctx context.Context, html string, attachments []Attachment) ([]byte, error) {
	var assets []gotenberg.Asset
	for _, a := range attachments {
		if a.ContentID == "" {
			continue
		}
		name := assetName(a)
		html = strings.ReplaceAll(html, "cid:"+a.ContentID, name)
		assets = append(assets, gotenberg.Asset{Name: name, Content: a.Payload})
	}

	pdf, err := p.gotenberg.ConvertHTML(ctx, []byte(html), assets)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	return pdf, nil
}

// GeneratePDF parses the .eml file at the given path and produces its PDF
// rendition, written inside the parser temporary directory. The rendition
// always starts with the printed mail headers and text body; when the mail
// also has an HTML body, its own rendition is merged after it.
func (p *Parser) GeneratePDF(ctx context.Context, path string) (string, error) {
	m, err := ReadFile(path)
	if err != nil {
		return "", err
	}

	var mailPDF, htmlPDF []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mailPDF, err = p.renderMail(gctx, m)
		return err
	})
	if m.HTML != "" {
		g.Go(func() error {
			var err error
			htmlPDF, err = p.renderHTML(gctx, m)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	pdfs := [][]byte{mailPDF}
	if htmlPDF != nil {
		pdfs = append(pdfs, htmlPDF)
	}
	merged, err := p.gotenberg.Merge(ctx, pdfs...)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrParse, err)
	}

	out := filepath.Join(p.tempDir, uuid.Must(uuid.NewV4()).String()+".pdf")
	if err := os.WriteFile(out, merged, 0o640); err != nil {
		return "", err
	}
	return out, nil
}

// Thumbnail produces a WEBP thumbnail of the mail at the given path: its PDF
// rendition is generated, and the first page is rasterized by ImageMagick.
func (p *Parser) Thumbnail(ctx context.Context, path string) (string, error) {
	pdfPath, err := p.GeneratePDF(ctx, path)
	if err != nil {
		return "", err
	}

	out := pdfPath + ".webp"
	err = p.convert.Run(ctx, convert.Options{
		Density:     300,
		Scale:       "500x5000>",
		RemoveAlpha: true,
		Strip:       true,
		AutoOrient:  true,
		InputFile:   pdfPath + "[0]",
		OutputFile:  out,
	})
	if err != nil {
		return "", err
	}

	if f, err := os.Open(out); err == nil {
		if cfg, err := webp.DecodeConfig(f); err == nil {
			p.log.Debugf("thumbnail %s: %dx%d", filepath.Base(out), cfg.Width, cfg.Height)
		}
		f.Close()
	}
	return out, nil
}

var unsafeAssetChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// assetName derives a plain file name for an inline attachment, so that it
// can be referenced by the rewritten HTML. Chromium needs a name without
// exotic characters, and an extension matching the content type helps it
// pick the right decoder.
func assetName(a Attachment) string {
	name := a.Filename
	if name == "" {
		name = a.ContentID
		if exts, _ := mime.ExtensionsByType(a.ContentType); len(exts) > 0 {
			name += exts[0]
		}
	}
	return unsafeAssetChars.ReplaceAllString(name, "_")
}
