package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document yields no extractable text,
// which usually means a scanned or image-only PDF.
var ErrNoText = errors.New("pdf: no extractable text")

// Page is the extracted text of a single page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// ExtractPages parses the document and returns the plain text of each
// page that has any. Returns ErrNoText when the whole document yields
// nothing.
func ExtractPages(content []byte) ([]Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("pdf: parse document: %w", err)
	}

	pages := make([]Page, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the document.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

// ExtractText returns the document's full text with page markers
// separating pages, the form downstream prompts expect.
func ExtractText(content []byte) (string, error) {
	pages, err := ExtractPages(content)
	if err != nil {
		return "", err
	}
	return JoinWithMarkers(pages), nil
}

// JoinWithMarkers concatenates page texts with "--- Page N ---" markers.
func JoinWithMarkers(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s", p.Number, p.Text)
	}
	return b.String()
}

// ExtractPlainText extracts the document text without page markers.
func ExtractPlainText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("pdf: parse document: %w", err)
	}
	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: extract text: %w", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, r); err != nil {
		return "", fmt.Errorf("pdf: read extracted text: %w", err)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
