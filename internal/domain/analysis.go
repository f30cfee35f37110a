package domain

import (
	"fmt"
	"time"
)

// AnalysisSchemaVersion is baked into every cache key so that schema
// changes invalidate previously cached analyses.
const AnalysisSchemaVersion = "1.0.0"

// PaperMetadata is the slimmed-down paper record embedded in an analysis.
type PaperMetadata struct {
	PaperID string      `json:"paper_id"`
	Title   string      `json:"title"`
	Authors []string    `json:"authors"`
	Year    int         `json:"year,omitempty"`
	URL     string      `json:"url,omitempty"`
	Source  PaperSource `json:"source"`
}

// AtAGlance is the quick structured summary generated for every
// analyzed paper.
type AtAGlance struct {
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Affiliations []string `json:"affiliations"`

	Abstract string   `json:"abstract"`
	Keywords []string `json:"keywords"`

	Introduction     string   `json:"introduction"`
	RelatedWork      string   `json:"related_work"`
	ProblemStatement string   `json:"problem_statement"`
	Methodology      string   `json:"methodology"`
	Results          string   `json:"results"`
	Discussion       string   `json:"discussion"`
	Limitations      []string `json:"limitations"`
	FutureWork       []string `json:"future_work"`
	Conclusion       string   `json:"conclusion"`
}

// InDepth is the comprehensive per-section analysis, generated lazily
// on top of an existing at-a-glance analysis.
type InDepth struct {
	Introduction         string `json:"introduction"`
	RelatedWork          string `json:"related_work"`
	ProblemStatement     string `json:"problem_statement"`
	Methodology          string `json:"methodology"`
	Results              string `json:"results"`
	Discussion           string `json:"discussion"`
	Limitations          string `json:"limitations"`
	ConclusionFutureWork string `json:"conclusion_future_work"`
}

// PaperAnalysis is the full cached analysis record for one paper.
type PaperAnalysis struct {
	Paper         PaperMetadata `json:"paper"`
	AtAGlance     AtAGlance     `json:"at_a_glance"`
	InDepth       *InDepth      `json:"in_depth,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at"`
	SchemaVersion string        `json:"schema_version"`
	ModelTag      string        `json:"model_tag"`
}

// AnalysisCacheKey builds the cache key for a paper's analysis. The key
// binds the content hash, the schema version and the generating model,
// so changing any of the three misses the old entry instead of serving
// a stale shape.
func AnalysisCacheKey(paperHash, modelTag string) string {
	return fmt.Sprintf("analysis:%s:%s:%s", paperHash, AnalysisSchemaVersion, modelTag)
}
