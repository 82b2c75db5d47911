package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimeTextPlain = "text/plain"
	MimePDF       = "application/pdf"

	// Parsed PDF text at or below this length is treated as an
	// image-only (scanned) PDF.
	minimalPDFTextLength = 10

	// EmptyContentNotice is stored instead of failing when a plain text
	// upload carries no content.
	EmptyContentNotice = "This document appears to be empty. No text content could be extracted."

	// UnsupportedNotice is stored for file types we do not extract yet.
	UnsupportedNotice = "Text extraction for this file type is not yet supported. Please convert the document to PDF or plain text and upload it again."
)

// ImagePDFNotice builds the placeholder stored for PDFs that parse to
// (almost) no text, which usually means a scanned/image-only document.
func ImagePDFNotice(sizeBytes int64) string {
	return fmt.Sprintf(
		"This PDF (%.1f KB) appears to be image-based or scanned. Text extraction is not available; please upload a text-based PDF.",
		float64(sizeBytes)/1024.0,
	)
}

// IsPlaceholder reports whether stored text is one of the extraction
// placeholders rather than real document content.
func IsPlaceholder(text string) bool {
	return text == EmptyContentNotice ||
		text == UnsupportedNotice ||
		(strings.HasPrefix(text, "This PDF (") && strings.Contains(text, "image-based or scanned"))
}

// Text converts raw file bytes into a text representation based on the
// declared MIME type. Extraction failure is never fatal to the document
// pipeline: every failure path resolves to a descriptive string, so this
// function intentionally has no error return.
func Text(data []byte, mimeType string, sizeBytes int64) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))

	switch clean {
	case MimeTextPlain:
		text := strings.TrimSpace(string(data))
		if text == "" {
			return EmptyContentNotice
		}
		return text
	case MimePDF:
		text, err := pdfText(data)
		if err != nil || len(strings.TrimSpace(text)) <= minimalPDFTextLength {
			return ImagePDFNotice(sizeBytes)
		}
		return strings.TrimSpace(text)
	default:
		// Word-processor formats, rich text, unknown types. A feature
		// gap, not an error.
		return UnsupportedNotice
	}
}

func pdfText(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs; extraction must never
	// raise past this boundary.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
