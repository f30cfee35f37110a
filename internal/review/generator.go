// Package review generates markdown literature reviews over a set of
// papers. Unlike paper analysis there is no degraded fallback here: a
// fabricated review is worse than a failed task, so generation errors
// are returned to the caller.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/llm"
)

const reviewPrompt = `As an academic researcher, generate a comprehensive literature review on %s based on the following papers.

Context Papers:
%s

Requirements for the literature review:
1. Write in a formal academic style using clear, precise language
2. Critically analyze and synthesize the research findings
3. Use citation numbers in square brackets (e.g., [1], [2]) when referencing papers
4. Structure the review with these sections:
   - Introduction (brief context and importance of the topic)
   - Main body (organized by themes/concepts, not by individual papers) (Don't mention Main body in the generated review text)
   - Research gaps and future directions
   - Conclusion
5. Use markdown formatting for section headers (e.g., ## Introduction)
6. Format the response in markdown, but do not include a table of contents
7. Highlight key findings, methodologies, and connections between papers
8. Identify patterns, contradictions, and gaps in the current research
9. Length should be comprehensive (around 1000-1500 words)

Important:
- Integrate citations naturally into sentences
- Compare and contrast findings from different papers
- Identify methodological strengths and limitations
- Maintain an objective, analytical tone
- Emphasize the significance of findings in the broader context of %s

Generate the literature review now:`

// Generator produces literature reviews.
type Generator struct {
	client llm.Client
	logger zerolog.Logger
}

// NewGenerator creates a review generator.
func NewGenerator(client llm.Client, logger zerolog.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logger.With().Str("component", "review").Logger(),
	}
}

// Generate writes a markdown literature review on topic grounded in the
// given papers. The papers' positions define the [n] citation numbers.
func (g *Generator) Generate(ctx context.Context, papers []domain.Paper, topic string) (string, error) {
	if len(papers) == 0 {
		return "", domain.NewValidationError("papers", "at least one paper is required")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", domain.NewValidationError("topic", "topic is required")
	}

	prompt := fmt.Sprintf(reviewPrompt, topic, papersContext(papers), topic)

	g.logger.Info().Int("papers", len(papers)).Str("topic", topic).Msg("generating literature review")

	response, err := g.client.Complete(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("generating literature review: %w", err)
	}
	review := strings.TrimSpace(response)
	if review == "" {
		return "", fmt.Errorf("generating literature review: empty response")
	}
	return review, nil
}

// papersContext renders the numbered reference block the prompt cites
// against.
func papersContext(papers []domain.Paper) string {
	var b strings.Builder
	for i, p := range papers {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Reference %d:\nTitle: %s\nAuthors: %s\nSummary: %s",
			i+1, p.Title, strings.Join(p.Authors, ", "), p.Summary)
	}
	return b.String()
}
