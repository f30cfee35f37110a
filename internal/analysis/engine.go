// Package analysis generates and caches structured paper analyses. An
// at-a-glance summary is produced for every analyzed paper; the
// comprehensive in-depth analysis is layered on lazily. Degraded output
// is always preferred over failure: when generation cannot complete,
// the engine returns templated fallback content instead of an error.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/llm"
	"github.com/litxplore/litxplore/internal/pdf"
	"github.com/litxplore/litxplore/internal/repository"
)

const (
	// DefaultCacheTTL is how long analyses stay cached in production.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultAtAGlanceMaxChars caps text sent to the at-a-glance prompt.
	DefaultAtAGlanceMaxChars = 3000

	// DefaultInDepthMaxChars caps text sent to the in-depth prompt.
	DefaultInDepthMaxChars = 15000

	// atAGlanceAttempts and inDepthAttempts bound generation retries.
	// The in-depth pass gets more because its output is larger and
	// easier to truncate mid-JSON.
	atAGlanceAttempts = 2
	inDepthAttempts   = 3

	defaultRetryDelay = time.Second

	// paperHashChars is how much of the content hash keys the cache.
	paperHashChars = 16
)

// PaperGateway resolves papers to metadata and PDF content.
type PaperGateway interface {
	FetchByID(ctx context.Context, id domain.PaperID) (*domain.Paper, error)
	Content(ctx context.Context, id domain.PaperID) ([]byte, error)
}

// Config holds engine tuning.
type Config struct {
	// CacheTTL is how long analyses stay cached.
	CacheTTL time.Duration
	// ModelTag identifies the generating model in cache keys.
	ModelTag string
	// AtAGlanceMaxChars caps the at-a-glance prompt text.
	AtAGlanceMaxChars int
	// InDepthMaxChars caps the in-depth prompt text.
	InDepthMaxChars int
	// RetryDelay is the pause between generation attempts.
	RetryDelay time.Duration
}

func (c *Config) applyDefaults(modelFallback string) {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.ModelTag == "" {
		c.ModelTag = modelFallback
	}
	if c.AtAGlanceMaxChars <= 0 {
		c.AtAGlanceMaxChars = DefaultAtAGlanceMaxChars
	}
	if c.InDepthMaxChars <= 0 {
		c.InDepthMaxChars = DefaultInDepthMaxChars
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
}

// Engine is the paper analysis service.
type Engine struct {
	gateway PaperGateway
	cache   repository.AnalysisCacheRepository
	client  llm.Client
	config  Config
	logger  zerolog.Logger
}

// NewEngine creates an analysis engine.
func NewEngine(gateway PaperGateway, cache repository.AnalysisCacheRepository, client llm.Client, cfg Config, logger zerolog.Logger) *Engine {
	cfg.applyDefaults(client.Model())
	return &Engine{
		gateway: gateway,
		cache:   cache,
		client:  client,
		config:  cfg,
		logger:  logger.With().Str("component", "analysis").Logger(),
	}
}

// AnalyzePaper returns the at-a-glance analysis for a paper, serving
// from cache unless forceRefresh is set. Generation failures degrade to
// templated fallback content; only a double failure (generation and
// fallback construction) surfaces an error.
func (e *Engine) AnalyzePaper(ctx context.Context, id domain.PaperID, forceRefresh bool) (*domain.PaperAnalysis, error) {
	paper, content, err := e.fetchPaper(ctx, id)
	if err != nil {
		e.logger.Error().Err(err).Str("paper_id", id.String()).Msg("paper fetch failed, returning fallback analysis")
		return e.fallbackAnalysis(id, nil), nil
	}

	hash := paperHash(content)
	cacheKey := domain.AnalysisCacheKey(hash, e.config.ModelTag)

	if !forceRefresh {
		if cached := e.cachedAnalysis(ctx, cacheKey); cached != nil {
			e.logger.Info().Str("paper_id", id.String()).Msg("analysis cache hit")
			return cached, nil
		}
	}

	text, err := pdf.ExtractText(content)
	if err != nil {
		e.logger.Error().Err(err).Str("paper_id", id.String()).Msg("text extraction failed, returning fallback analysis")
		return e.fallbackAnalysis(id, paper), nil
	}

	atAGlance := e.generateAtAGlance(ctx, text)

	analysis := &domain.PaperAnalysis{
		Paper:         paperMetadata(paper),
		AtAGlance:     atAGlance,
		GeneratedAt:   time.Now().UTC(),
		SchemaVersion: domain.AnalysisSchemaVersion,
		ModelTag:      e.config.ModelTag,
	}

	e.writeCache(ctx, cacheKey, hash, analysis)
	return analysis, nil
}

// GetAnalysis returns the cached analysis for a paper, or nil when none
// is cached. Lookup problems are logged, not surfaced.
func (e *Engine) GetAnalysis(ctx context.Context, id domain.PaperID) (*domain.PaperAnalysis, error) {
	_, content, err := e.fetchPaper(ctx, id)
	if err != nil {
		e.logger.Warn().Err(err).Str("paper_id", id.String()).Msg("paper fetch failed during analysis lookup")
		return nil, nil
	}

	cacheKey := domain.AnalysisCacheKey(paperHash(content), e.config.ModelTag)
	return e.cachedAnalysis(ctx, cacheKey), nil
}

// ComputeInDepth layers the in-depth analysis onto the paper's base
// analysis, generating the base first when absent, and updates the
// cache.
func (e *Engine) ComputeInDepth(ctx context.Context, id domain.PaperID) (*domain.PaperAnalysis, error) {
	analysis, err := e.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		analysis, err = e.AnalyzePaper(ctx, id, false)
		if err != nil {
			return nil, err
		}
	}

	_, content, err := e.fetchPaper(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching paper for in-depth analysis: %w", err)
	}

	text, err := pdf.ExtractText(content)
	if err != nil {
		return nil, fmt.Errorf("extracting text for in-depth analysis: %w", err)
	}

	inDepth := e.generateInDepth(ctx, text)
	analysis.InDepth = &inDepth

	hash := paperHash(content)
	e.writeCache(ctx, domain.AnalysisCacheKey(hash, e.config.ModelTag), hash, analysis)
	return analysis, nil
}

// fetchPaper resolves metadata and PDF bytes for a paper.
func (e *Engine) fetchPaper(ctx context.Context, id domain.PaperID) (*domain.Paper, []byte, error) {
	paper, err := e.gateway.FetchByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	content, err := e.gateway.Content(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return paper, content, nil
}

// cachedAnalysis loads and decodes a cache entry; problems are logged
// and treated as a miss.
func (e *Engine) cachedAnalysis(ctx context.Context, cacheKey string) *domain.PaperAnalysis {
	entry, err := e.cache.Get(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.logger.Warn().Err(err).Msg("analysis cache read failed")
		}
		return nil
	}
	return entry
}

// writeCache stores an analysis; failures are logged, never fatal.
func (e *Engine) writeCache(ctx context.Context, cacheKey, hash string, analysis *domain.PaperAnalysis) {
	if err := e.cache.Put(ctx, cacheKey, hash, analysis, e.config.CacheTTL); err != nil {
		e.logger.Warn().Err(err).Msg("analysis cache write failed")
	}
}

// generateAtAGlance runs the at-a-glance prompt with bounded retries,
// falling back to templated content after exhaustion.
func (e *Engine) generateAtAGlance(ctx context.Context, text string) domain.AtAGlance {
	text = truncate(text, e.config.AtAGlanceMaxChars)

	raw, _ := llm.Generate(ctx, atAGlanceAttempts, e.config.RetryDelay, func(ctx context.Context) (string, error) {
		response, err := e.client.Complete(ctx, llm.Request{Prompt: atAGlancePrompt + text, JSONOutput: true})
		if err != nil {
			return "", err
		}
		extracted, err := llm.ExtractJSON(response)
		if err != nil {
			return "", err
		}
		var check domain.AtAGlance
		if err := json.Unmarshal([]byte(extracted), &check); err != nil {
			return "", fmt.Errorf("at-a-glance response did not match schema: %w", err)
		}
		return extracted, nil
	}, func(lastErr error) string {
		e.logger.Error().Err(lastErr).Msg("at-a-glance generation exhausted retries, using fallback")
		return ""
	})

	if raw == "" {
		return fallbackAtAGlance()
	}
	var result domain.AtAGlance
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fallbackAtAGlance()
	}
	return result
}

// generateInDepth runs the in-depth prompt with bounded retries,
// falling back to templated sections after exhaustion.
func (e *Engine) generateInDepth(ctx context.Context, text string) domain.InDepth {
	text = truncate(text, e.config.InDepthMaxChars)

	raw, _ := llm.Generate(ctx, inDepthAttempts, e.config.RetryDelay, func(ctx context.Context) (string, error) {
		response, err := e.client.Complete(ctx, llm.Request{Prompt: inDepthPrompt + text, JSONOutput: true})
		if err != nil {
			return "", err
		}
		extracted, err := llm.ExtractJSON(response)
		if err != nil {
			return "", err
		}
		var check domain.InDepth
		if err := json.Unmarshal([]byte(extracted), &check); err != nil {
			return "", fmt.Errorf("in-depth response did not match schema: %w", err)
		}
		return extracted, nil
	}, func(lastErr error) string {
		e.logger.Error().Err(lastErr).Msg("in-depth generation exhausted retries, using fallback")
		return ""
	})

	if raw == "" {
		return fallbackInDepth()
	}
	var result domain.InDepth
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fallbackInDepth()
	}
	return result
}

// fallbackAnalysis builds the degraded analysis returned when the
// pipeline cannot run at all. paper may be nil when even metadata was
// unfetchable.
func (e *Engine) fallbackAnalysis(id domain.PaperID, paper *domain.Paper) *domain.PaperAnalysis {
	metadata := domain.PaperMetadata{
		PaperID: id.String(),
		Title:   "Analysis Unavailable",
		Source:  paperSource(id),
	}
	if paper != nil {
		metadata = paperMetadata(paper)
	}

	return &domain.PaperAnalysis{
		Paper:         metadata,
		AtAGlance:     fallbackAtAGlance(),
		GeneratedAt:   time.Now().UTC(),
		SchemaVersion: domain.AnalysisSchemaVersion,
		ModelTag:      e.config.ModelTag,
	}
}

func fallbackAtAGlance() domain.AtAGlance {
	return domain.AtAGlance{
		Title:            "Unable to extract title",
		Authors:          []string{"Unknown"},
		Affiliations:     []string{"Unknown"},
		Abstract:         "Unable to extract abstract",
		Keywords:         []string{"Unable to extract keywords"},
		Introduction:     "Unable to extract introduction",
		RelatedWork:      "Unable to extract related work",
		ProblemStatement: "Unable to extract problem statement",
		Methodology:      "Unable to extract methodology",
		Results:          "Unable to extract results",
		Discussion:       "Unable to extract discussion",
		Limitations:      []string{"Unable to extract limitations"},
		FutureWork:       []string{"Unable to extract future work"},
		Conclusion:       "Unable to extract conclusion",
	}
}

func fallbackInDepth() domain.InDepth {
	const msg = "The analysis could not be generated due to technical issues. Please try again or refresh the page."
	return domain.InDepth{
		Introduction:         msg,
		RelatedWork:          msg,
		ProblemStatement:     msg,
		Methodology:          msg,
		Results:              msg,
		Discussion:           msg,
		Limitations:          msg,
		ConclusionFutureWork: msg,
	}
}

// paperMetadata slims a Paper down to the record embedded in analyses.
func paperMetadata(paper *domain.Paper) domain.PaperMetadata {
	year := 0
	if !paper.Published.IsZero() {
		year = paper.Published.Year()
	}
	return domain.PaperMetadata{
		PaperID: paper.ID,
		Title:   paper.Title,
		Authors: paper.Authors,
		Year:    year,
		URL:     paper.URL,
		Source:  paper.Source,
	}
}

func paperSource(id domain.PaperID) domain.PaperSource {
	if id.Kind == domain.PaperIDUpload {
		return domain.PaperSourceUpload
	}
	return domain.PaperSourceArXiv
}

// paperHash is the content hash that keys the analysis cache.
func paperHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:paperHashChars]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "")
}
