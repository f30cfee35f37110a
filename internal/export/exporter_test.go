package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litxplore/litxplore/internal/domain"
)

func testCitations() []domain.Citation {
	return []domain.Citation{
		{
			ID:        "2301.12345",
			Title:     "Attention Is All You Need",
			Authors:   []string{"Ada Lovelace", "Alan Turing"},
			Published: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			URL:       "https://arxiv.org/abs/2301.12345",
		},
		{Title: "Untitled Note"},
	}
}

func TestRender_LaTeXDocumentStructure(t *testing.T) {
	out, err := Render("A review of transformers.", testCitations(), "transformers", FormatLaTeX)
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, `\documentclass[11pt]{article}`)
	assert.Contains(t, doc, `\title{Literature Review: transformers}`)
	assert.Contains(t, doc, `\begin{document}`)
	assert.Contains(t, doc, `\end{document}`)
	assert.Contains(t, doc, "A review of transformers.")
	assert.Contains(t, doc, `\section*{References}`)
	assert.Contains(t, doc, `\item Ada Lovelace, Alan Turing. Attention Is All You Need. 2023.`)
	assert.Contains(t, doc, `\item Untitled Note.`)
}

func TestRender_LaTeXEscapesSpecialCharacters(t *testing.T) {
	content := `cost $5 & 10% _of_ #1 {braces} ^hat ~tilde back\slash`
	out, err := Render(content, nil, "math $ topic", FormatLaTeX)
	require.NoError(t, err)

	doc := string(out)
	assert.Contains(t, doc, `\$5`)
	assert.Contains(t, doc, `\&`)
	assert.Contains(t, doc, `10\%`)
	assert.Contains(t, doc, `\_of\_`)
	assert.Contains(t, doc, `\#1`)
	assert.Contains(t, doc, `\{braces\}`)
	assert.Contains(t, doc, `\textasciicircum{}hat`)
	assert.Contains(t, doc, `\textasciitilde{}tilde`)
	assert.Contains(t, doc, `back\textbackslash{}slash`)
	assert.Contains(t, doc, `\title{Literature Review: math \$ topic}`)
}

func TestRender_PDFStructure(t *testing.T) {
	out, err := Render("Short review body.", testCitations(), "topic", FormatPDF)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.HasSuffix(bytes.TrimRight(out, "\n"), []byte("%%EOF")))
	assert.Contains(t, string(out), "Literature Review: topic")
	assert.Contains(t, string(out), "References")
	assert.Contains(t, string(out), "[1] Ada Lovelace, Alan Turing.")
}

func TestRender_PDFMultiplePages(t *testing.T) {
	long := strings.Repeat("A long paragraph of review text that wraps across many lines. ", 200)
	out, err := Render(long, nil, "topic", FormatPDF)
	require.NoError(t, err)

	// More than one /Type /Page object besides the page tree.
	pageCount := bytes.Count(out, []byte("/Type /Page "))
	assert.Greater(t, pageCount, 1)
	assert.Contains(t, string(out), fmt.Sprintf("/Count %d", pageCount))
}

func TestRender_PDFEscapesDelimiters(t *testing.T) {
	out, err := Render(`text with (parens) and back\slash`, nil, "topic", FormatPDF)
	require.NoError(t, err)
	assert.Contains(t, string(out), `\(parens\)`)
	assert.Contains(t, string(out), `back\\slash`)
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render("content", nil, "topic", Format("docx"))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestFormat_Metadata(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.MediaType())
	assert.Equal(t, "application/x-latex", FormatLaTeX.MediaType())
	assert.Equal(t, "literature-review.pdf", FormatPDF.Filename())
	assert.Equal(t, "literature-review.latex", FormatLaTeX.Filename())
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five", 9)
	assert.Equal(t, []string{"one two", "three", "four five"}, lines)

	// Oversized words split hard.
	lines = wrapText("abcdefghijkl", 5)
	assert.Equal(t, []string{"abcde", "fghij", "kl"}, lines)

	// Paragraph breaks survive as blank lines.
	lines = wrapText("first\n\nsecond", 20)
	assert.Equal(t, []string{"first", "", "second"}, lines)
}

func TestPaginate(t *testing.T) {
	lines := make([]string, 10)
	pages := paginate(lines, 4)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 4)
	assert.Len(t, pages[2], 2)

	assert.Len(t, paginate(nil, 4), 1)
}
