package pdf

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Extract_Page(t *testing.T) {
	if testing.Short() {
		t.Skipf("this test requires the \"gs\" binary, skip it due to the \"--short\" flag")
	}
	if _, err := os.Stat("/usr/bin/gs"); err != nil {
		t.Skipf("this test requires the \"gs\" binary: %s", err)
	}

	service := NewService("gs")
	input, err := os.Open("testdata/single_line.pdf")
	require.NoError(t, err)
	defer input.Close()

	extracted, err := service.ExtractPage(input, 1)
	require.NoError(t, err)

	// We cannot compare the output to an expected PDF file, as there are many
	// things that change from one run to another: CreationDate, uuid, etc.
	// So, we are checking that it's a PDF.
	content := extracted.Bytes()
	assert.True(t, strings.HasPrefix(string(content), "%PDF-"))
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText("testdata/single_line.pdf")
	require.NoError(t, err)

	// One page: a single row followed by the page terminator.
	assert.True(t, strings.HasSuffix(text, "\n\n\x0c"))
	flat := strings.ReplaceAll(text, "\t", " ")
	assert.Contains(t, flat, "hello extracted world")
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := ExtractText("testdata/does-not-exist.pdf")
	require.Error(t, err)
}

func TestCountPages(t *testing.T) {
	count, err := CountPages("testdata/single_line.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewServiceDefaultsToGs(t *testing.T) {
	assert.Equal(t, "gs", NewService("").ghostscriptCmd)
}
