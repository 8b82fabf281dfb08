package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mailpaper/mailpaper/model/maildoc"
	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/mailpaper/mailpaper/pkg/convert"
	"github.com/mailpaper/mailpaper/pkg/gotenberg"
	"github.com/mailpaper/mailpaper/pkg/pdf"
	"github.com/mailpaper/mailpaper/pkg/safehttp"
	"github.com/mailpaper/mailpaper/pkg/tika"
	"github.com/spf13/cobra"
)

var flagConvertOutput string
var flagConvertNoThumbnail bool
var flagConvertPage int
var flagConvertCheckOnline bool

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <file.eml>",
	Short: "Convert a mail into its archival artifacts",
	Long: `Convert a mail into its archival artifacts: a PDF rendition, a WEBP
thumbnail, and the extracted plain text. The artifacts are written next to
the input file, or in the directory given with --output.

A Gotenberg server is required, and an Apache Tika server when the mail has
an HTML body. Their URLs are taken from the configuration file, or from the
--gotenberg-url and --tika-url flags.`,
	Example: `  $ mailpaper convert message.eml
  $ mailpaper convert --output /tmp/artifacts message.eml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Usage()
		}
		input := args[0]

		outDir := flagConvertOutput
		if outDir == "" {
			outDir = filepath.Dir(input)
		}
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return err
		}

		cfg := config.GetConfig()
		parser, err := maildoc.NewParser(
			tika.NewClient(cfg.Tika.URL, cfg.Tika.Timeout),
			gotenberg.NewClient(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout),
			convert.NewRunner(cfg.Convert.ImageMagickCmd),
		)
		if err != nil {
			return err
		}
		defer func() { _ = parser.Cleanup() }()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		base := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(input), ".eml"))

		rendition, err := parser.GeneratePDF(ctx, input)
		if err != nil {
			return err
		}
		if flagConvertPage > 0 {
			f, err := os.Open(rendition)
			if err != nil {
				return err
			}
			defer f.Close()
			page, err := pdf.NewService(cfg.Convert.GhostscriptCmd).ExtractPage(f, flagConvertPage)
			if err != nil {
				return err
			}
			if err := os.WriteFile(base+".pdf", page.Bytes(), 0o640); err != nil {
				return err
			}
			fmt.Printf("%s written (%s)\n", base+".pdf", humanize.Bytes(uint64(page.Len())))
		} else if err := copyArtifact(rendition, base+".pdf"); err != nil {
			return err
		}
		if pages, err := pdf.CountPages(rendition); err == nil {
			fmt.Printf("%d page(s) in the rendition\n", pages)
		}

		if !flagConvertNoThumbnail {
			thumb, err := parser.Thumbnail(ctx, input)
			if err != nil {
				return err
			}
			if err := copyArtifact(thumb, base+".webp"); err != nil {
				return err
			}
		}

		m, err := maildoc.ReadFile(input)
		if err != nil {
			return err
		}
		if flagConvertCheckOnline {
			for _, imgURL := range maildoc.RemoteImages(m.HTML) {
				if err := safehttp.CheckResource(ctx, imgURL); err != nil {
					errPrintfln("Warning: remote image %s is not reachable: %s", imgURL, err)
				}
			}
		}
		text, err := parser.ExtractText(ctx, m)
		if err != nil {
			return err
		}
		if err := os.WriteFile(base+".txt", []byte(text), 0o640); err != nil {
			return err
		}
		fmt.Printf("%s written (%s)\n", base+".txt", humanize.Bytes(uint64(len(text))))
		return nil
	},
}

func copyArtifact(src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, content, 0o640); err != nil {
		return err
	}
	fmt.Printf("%s written (%s)\n", dst, humanize.Bytes(uint64(len(content))))
	return nil
}

func init() {
	flags := convertCmd.PersistentFlags()
	flags.StringVarP(&flagConvertOutput, "output", "o", "", "directory where the artifacts are written")
	flags.BoolVar(&flagConvertNoThumbnail, "no-thumbnail", false, "do not generate the WEBP thumbnail")
	flags.IntVar(&flagConvertPage, "page", 0, "only keep the given page of the PDF rendition (needs ghostscript)")
	flags.BoolVar(&flagConvertCheckOnline, "check-online", false, "warn when a remote image of the HTML body is not reachable")
	RootCmd.AddCommand(convertCmd)
}
