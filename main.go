// mailpaper is a small stack that ingests email messages and produces
// archival artifacts from them: a PDF rendition, a thumbnail, and the
// extracted plain text.
//
// The heavy lifting is delegated to external services and tools:
//
// - Gotenberg renders HTML to PDF and merges PDF documents
//
// - Apache Tika extracts plain text from the HTML bodies
//
// - ImageMagick rasterizes the PDF renditions into thumbnails
//
// - ghostscript extracts single pages from PDF documents
//
// The stack itself stays a single binary, simple to deploy and to
// understand, with an HTTP API and a command line interface over the same
// conversion pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/mailpaper/mailpaper/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		if err != cmd.ErrUsage {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error()) // #nosec
			os.Exit(1)
		}
	}
}
