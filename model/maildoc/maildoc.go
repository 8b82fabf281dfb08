// Package maildoc turns email messages into archival documents. A mail is
// parsed from its .eml serialization, and the package can then produce a PDF
// rendition of it, a WEBP thumbnail, and its plain text.
//
// The heavy work is delegated: Gotenberg prints HTML to PDF and merges PDFs,
// Tika extracts the text of HTML bodies, and ImageMagick rasterizes the PDF
// for the thumbnail.
package maildoc

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/mailpaper/mailpaper/pkg/filetype"
)

// Attachment is a file carried by a mail, either as an inline part (an image
// referenced by the HTML body via its content-id) or as a proper attachment.
type Attachment struct {
	Filename    string
	ContentID   string
	ContentType string
	Disposition string
	Payload     []byte
}

// Mail is the parsed content of an email message.
type Mail struct {
	From        []string
	To          []string
	CC          []string
	Subject     string
	Date        time.Time
	Text        string
	HTML        string
	Attachments []Attachment
}

// Read parses a mail from its RFC 5322 serialization.
func Read(r io.Reader) (*Mail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}

	m := &Mail{
		From:    addresses(env, "From"),
		To:      addresses(env, "To"),
		CC:      addresses(env, "Cc"),
		Subject: env.GetHeader("Subject"),
		Text:    env.Text,
		HTML:    env.HTML,
	}
	if date, err := mail.ParseDate(env.GetHeader("Date")); err == nil {
		m.Date = date
	}

	for _, part := range env.Inlines {
		m.Attachments = append(m.Attachments, attachment(part, "inline"))
	}
	for _, part := range env.OtherParts {
		m.Attachments = append(m.Attachments, attachment(part, "inline"))
	}
	for _, part := range env.Attachments {
		m.Attachments = append(m.Attachments, attachment(part, "attachment"))
	}
	return m, nil
}

// ReadFile parses a mail from a .eml file.
func ReadFile(path string) (*Mail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

var remoteImageRe = regexp.MustCompile(`<img[^>]+src="(https?://[^"]+)"`)

// RemoteImages returns the URLs of the images of an HTML body that are
// loaded from the web instead of being inline attachments. They are a
// liability for the archival: the rendition changes when they rot.
func RemoteImages(html string) []string {
	var urls []string
	for _, m := range remoteImageRe.FindAllStringSubmatch(html, -1) {
		urls = append(urls, m[1])
	}
	return urls
}

// Inline returns the inline attachment with the given content-id, or nil.
func (m *Mail) Inline(contentID string) *Attachment {
	for i, a := range m.Attachments {
		if a.ContentID == contentID {
			return &m.Attachments[i]
		}
	}
	return nil
}

func attachment(part *enmime.Part, disposition string) Attachment {
	// The Content-Type announced by the mail client cannot be trusted, so
	// it is sniffed from the payload when it says nothing useful.
	contentType := part.ContentType
	if contentType == "" || contentType == filetype.DefaultType {
		contentType = filetype.Match(part.Content)
	}
	return Attachment{
		Filename:    part.FileName,
		ContentID:   strings.Trim(part.ContentID, "<>"),
		ContentType: contentType,
		Disposition: disposition,
		Payload:     part.Content,
	}
}

func addresses(env *enmime.Envelope, header string) []string {
	list, err := env.AddressList(header)
	if err != nil {
		if raw := env.GetHeader(header); raw != "" {
			return []string{raw}
		}
		return nil
	}
	formatted := make([]string, len(list))
	for i, addr := range list {
		if addr.Name == "" {
			formatted[i] = addr.Address
		} else {
			formatted[i] = fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
		}
	}
	return formatted
}
