// Package export renders saved literature reviews as downloadable
// documents. LaTeX output is a standalone article source; PDF output
// is written directly, without an external toolchain.
package export

import (
	"time"

	"github.com/litxplore/litxplore/internal/domain"
)

// Format selects the output document type.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatLaTeX Format = "latex"
)

// IsValid reports whether the format is supported.
func (f Format) IsValid() bool {
	return f == FormatPDF || f == FormatLaTeX
}

// MediaType returns the response content type for the format.
func (f Format) MediaType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/x-latex"
}

// Filename returns the download filename for the format.
func (f Format) Filename() string {
	return "literature-review." + string(f)
}

// Render produces the document bytes for a review and its citations.
func Render(content string, citations []domain.Citation, topic string, format Format) ([]byte, error) {
	if !format.IsValid() {
		return nil, domain.NewValidationError("format", "format must be pdf or latex")
	}

	date := time.Now().UTC().Format("January 2, 2006")
	if format == FormatLaTeX {
		return renderLaTeX(content, citations, topic, date)
	}
	return renderPDF(content, citations, topic, date)
}
