package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_PlainText(t *testing.T) {
	content := "Quarterly report.\nRevenue grew 12% year over year."
	got := Text([]byte("  "+content+"\n\n"), "text/plain", 64)
	assert.Equal(t, content, got)
}

func TestText_PlainTextWithCharsetParam(t *testing.T) {
	got := Text([]byte("hello"), "text/plain; charset=utf-8", 5)
	assert.Equal(t, "hello", got)
}

func TestText_EmptyPlainText(t *testing.T) {
	assert.Equal(t, EmptyContentNotice, Text([]byte("   \n\t "), "text/plain", 6))
	assert.Equal(t, EmptyContentNotice, Text(nil, "text/plain", 0))
}

func TestText_UnsupportedType(t *testing.T) {
	got := Text([]byte("PK\x03\x04"), "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 4)
	assert.Equal(t, UnsupportedNotice, got)
}

func TestText_MalformedPDFReturnsImageNotice(t *testing.T) {
	// Not a valid PDF body. Must degrade to the placeholder, never error.
	got := Text([]byte("%PDF-1.7 garbage"), "application/pdf", 2048)
	assert.Equal(t, ImagePDFNotice(2048), got)
	assert.Contains(t, got, "2.0 KB")
}

func TestText_TruncatedPDFDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		got := Text([]byte("%PDF-"), "application/pdf", 5)
		assert.True(t, IsPlaceholder(got))
	})
}

func TestImagePDFNotice_SizeFormatting(t *testing.T) {
	got := ImagePDFNotice(153600)
	assert.Contains(t, got, "150.0 KB")
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(EmptyContentNotice))
	assert.True(t, IsPlaceholder(UnsupportedNotice))
	assert.True(t, IsPlaceholder(ImagePDFNotice(4096)))
	assert.False(t, IsPlaceholder("An actual extracted paragraph of text."))
	assert.False(t, IsPlaceholder(strings.Repeat("a", 200)))
}
