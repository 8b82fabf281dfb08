// Package pdf is for manipulating PDF files.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os/exec"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/mailpaper/mailpaper/pkg/logger"
)

// Service provides methods for manipulating PDF files.
type Service struct {
	ghostscriptCmd string
}

// NewService instantiate a new [Service]. An empty command defaults to "gs"
// found in $PATH.
func NewService(ghostscriptCmd string) *Service {
	if ghostscriptCmd == "" {
		ghostscriptCmd = "gs"
	}
	return &Service{ghostscriptCmd}
}

// ExtractPage extract a page from a PDF.
func (s *Service) ExtractPage(stdin io.Reader, page int) (*bytes.Buffer, error) {
	args := []string{
		"-q",
		"-sDEVICE=pdfwrite",
		"-dNOPAUSE",
		"-dBATCH",
		"-dSAFER",
		fmt.Sprintf("-dFirstPage=%d", page),
		fmt.Sprintf("-dLastPage=%d", page),
		"-sOutputFile=-",
		"-", // Use stdin for input
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(s.ghostscriptCmd, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.WithNamespace("pdf").
			WithField("stderr", stderr.String()).
			Errorf("ghostscript failed: %s", err)
		return nil, fmt.Errorf("failed to run the cmd %q: %w", s.ghostscriptCmd, err)
	}
	return &stdout, nil
}

// ExtractText returns the textual content of a PDF file. Distinct runs of
// text on a same row are joined with tabulations, and every page is
// terminated by a blank line and a form feed, so the output of a merge can
// be compared page by page.
func ExtractText(filePath string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: text extraction crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		b.WriteString(pageText(page.Content().Text))
		b.WriteString("\n\n\x0c")
	}
	return b.String(), nil
}

// pageText rebuilds the rows of a page from the individual characters
// emitted by the pdf library. The characters of a row share the same
// baseline; a horizontal gap larger than the natural advance of the
// preceding character starts a new run.
func pageText(chars []pdf.Text) string {
	rows := make(map[int][]pdf.Text)
	for _, c := range chars {
		y := int(math.Round(c.Y))
		rows[y] = append(rows[y], c)
	}

	// PDF Y coordinates go bottom-to-top
	ys := make([]int, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	var lines []string
	for _, y := range ys {
		chars := rows[y]
		sort.Slice(chars, func(a, b int) bool { return chars[a].X < chars[b].X })

		var line strings.Builder
		var endX float64
		for j, c := range chars {
			if j > 0 && c.X-endX > c.FontSize/4 {
				line.WriteString("\t")
			}
			line.WriteString(c.S)
			endX = c.X + c.W
		}
		if text := strings.TrimRight(line.String(), " "); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// CountPages returns the number of pages of a PDF file.
func CountPages(filePath string) (int, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}
