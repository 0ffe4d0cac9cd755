package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAllowedExt(t *testing.T) {
	allowed := []string{".pdf", ".txt", ".md", ".docx"}

	assert.True(t, HasAllowedExt("notes.txt", allowed))
	assert.True(t, HasAllowedExt("REPORT.PDF", allowed))
	assert.False(t, HasAllowedExt("setup.exe", allowed))
	assert.False(t, HasAllowedExt("noext", allowed))
}

func TestExtractTextPlainFormats(t *testing.T) {
	assert.Equal(t, "hello", ExtractText("a.txt", []byte("hello")))
	assert.Equal(t, "# heading", ExtractText("a.md", []byte("# heading")))
}

func TestExtractTextBinaryFallsBackToName(t *testing.T) {
	out := ExtractText("report.pdf", []byte{0x25, 0x50, 0x44, 0x46})
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "not extracted")
}

func TestExtractTextTruncatesHugeFiles(t *testing.T) {
	huge := strings.Repeat("a", maxAttachmentChars+100)
	out := ExtractText("a.txt", []byte(huge))
	assert.Len(t, out, maxAttachmentChars+len("...[truncated]"))
	assert.True(t, strings.HasSuffix(out, "...[truncated]"))
}

func TestExtractTextRejectsInvalidUTF8(t *testing.T) {
	out := ExtractText("a.txt", []byte{0xff, 0xfe, 0xfd})
	assert.Contains(t, out, "unreadable")
}

func TestMustParseUint(t *testing.T) {
	assert.Equal(t, uint(42), MustParseUint("42"))
	assert.Equal(t, uint(0), MustParseUint("not-a-number"))
}
