package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/litxplore/litxplore/internal/domain"
)

// latexTemplate renders a standalone article document. All user-
// supplied text passes through the escape function.
const latexTemplate = `\documentclass[11pt]{article}
\usepackage[utf8]{inputenc}
\usepackage[margin=1in]{geometry}

\title{Literature Review: {{escape .Topic}}}
\date{ {{- escape .Date -}} }

\begin{document}
\maketitle

{{escape .Content}}

\section*{References}
\begin{enumerate}
{{- range .Citations}}
\item {{escape .Reference}}
{{- end}}
\end{enumerate}

\end{document}
`

type latexCitation struct {
	Reference string
}

type latexData struct {
	Topic     string
	Date      string
	Content   string
	Citations []latexCitation
}

var latexTmpl = template.Must(template.New("latex").
	Funcs(template.FuncMap{"escape": escapeLaTeX}).
	Parse(latexTemplate))

func renderLaTeX(content string, citations []domain.Citation, topic, date string) ([]byte, error) {
	data := latexData{
		Topic:   topic,
		Date:    date,
		Content: content,
	}
	for _, c := range citations {
		data.Citations = append(data.Citations, latexCitation{Reference: formatCitation(c)})
	}

	var buf bytes.Buffer
	if err := latexTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering LaTeX document: %w", err)
	}
	return buf.Bytes(), nil
}

// formatCitation renders one bibliography entry as plain text; LaTeX
// escaping happens in the template.
func formatCitation(c domain.Citation) string {
	var b strings.Builder
	if len(c.Authors) > 0 {
		b.WriteString(strings.Join(c.Authors, ", "))
		b.WriteString(". ")
	}
	b.WriteString(c.Title)
	b.WriteString(".")
	if !c.Published.IsZero() {
		fmt.Fprintf(&b, " %d.", c.Published.Year())
	}
	if c.URL != "" {
		b.WriteString(" ")
		b.WriteString(c.URL)
	}
	return b.String()
}

// escapeLaTeX neutralizes every character with special meaning in
// LaTeX source.
func escapeLaTeX(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\textbackslash{}`)
		case '{':
			b.WriteString(`\{`)
		case '}':
			b.WriteString(`\}`)
		case '$':
			b.WriteString(`\$`)
		case '&':
			b.WriteString(`\&`)
		case '#':
			b.WriteString(`\#`)
		case '%':
			b.WriteString(`\%`)
		case '_':
			b.WriteString(`\_`)
		case '^':
			b.WriteString(`\textasciicircum{}`)
		case '~':
			b.WriteString(`\textasciitilde{}`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
