package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/litxplore/litxplore/internal/domain"
)

// Page layout for the generated PDF. US Letter, 1 inch margins,
// 11pt Helvetica with 14pt leading.
const (
	pdfLineWidth    = 90
	pdfLinesPerPage = 46
	pdfFontSize     = 11
	pdfLeading      = 14
	pdfMarginLeft   = 72
	pdfTopBaseline  = 756
)

func renderPDF(content string, citations []domain.Citation, topic, date string) ([]byte, error) {
	var lines []string
	lines = append(lines, "Literature Review: "+topic)
	lines = append(lines, date, "")
	lines = append(lines, wrapText(content, pdfLineWidth)...)
	if len(citations) > 0 {
		lines = append(lines, "", "References", "")
		for i, c := range citations {
			entry := fmt.Sprintf("[%d] %s", i+1, formatCitation(c))
			lines = append(lines, wrapText(entry, pdfLineWidth)...)
		}
	}

	pages := paginate(lines, pdfLinesPerPage)
	return writePDF(pages)
}

// wrapText breaks text into lines at word boundaries. Words longer
// than the width are split hard.
func wrapText(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			for len(word) > width {
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				lines = append(lines, word[:width])
				word = word[width:]
			}
			switch {
			case current == "":
				current = word
			case len(current)+1+len(word) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

func paginate(lines []string, perPage int) [][]string {
	var pages [][]string
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	if len(pages) == 0 {
		pages = [][]string{{""}}
	}
	return pages
}

// writePDF emits a complete document: catalog, page tree, one shared
// font, and a page plus content stream per page of lines. Object
// offsets are recorded while writing so the xref table is consistent.
func writePDF(pages [][]string) ([]byte, error) {
	var buf bytes.Buffer
	var offsets []int

	writeObj := func(id int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}

	buf.WriteString("%PDF-1.4\n")

	// Objects: 1 catalog, 2 page tree, 3 font, then page/content pairs.
	const firstPageObj = 4
	kids := make([]string, 0, len(pages))
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", firstPageObj+2*i))
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, page := range pages {
		pageObj := firstPageObj + 2*i
		contentObj := pageObj + 1

		writeObj(pageObj, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentObj))

		stream := contentStream(page)
		writeObj(contentObj, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)

	return buf.Bytes(), nil
}

func contentStream(lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d TL\n%d %d Td\n", pdfFontSize, pdfLeading, pdfMarginLeft, pdfTopBaseline)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", escapePDFString(line))
	}
	b.WriteString("ET")
	return b.String()
}

// escapePDFString makes text safe inside a PDF literal string. Runes
// outside printable ASCII are replaced rather than mis-encoded, since
// the content stream is written byte for byte.
func escapePDFString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 32 || r > 126:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
