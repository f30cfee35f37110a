// Package chat answers questions about a single paper over a streaming
// channel. Each request builds a throwaway retrieval index: the paper
// is split into overlapping chunks, embedded on a small worker pool,
// and the most similar chunks ground the answer prompt. The answer is
// streamed in fixed-size pieces; failures stream as an error chunk so
// the connection always terminates cleanly.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/llm"
	"github.com/litxplore/litxplore/internal/pdf"
)

const (
	// DefaultChunkSize and DefaultChunkOverlap tune the splitter.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200

	// DefaultTopK is how many chunks ground each answer.
	DefaultTopK = 5

	// DefaultEmbedWorkers bounds concurrent embedding calls.
	DefaultEmbedWorkers = 4

	// DefaultStreamChunkChars is the size of streamed answer pieces.
	DefaultStreamChunkChars = 100

	// DefaultMaxMessageChars caps the user's question length.
	DefaultMaxMessageChars = 4000
)

// Source points at a page of the paper that grounded the answer.
type Source struct {
	Page int `json:"page"`
}

// Chunk is one streamed piece of a chat response. Sources are attached
// to the first content chunk only. A chunk with Error set terminates
// the stream.
type Chunk struct {
	Content string   `json:"content"`
	Sources []Source `json:"sources"`
	Error   string   `json:"error,omitempty"`
}

// PaperGateway resolves a paper ID to its PDF bytes.
type PaperGateway interface {
	Content(ctx context.Context, id domain.PaperID) ([]byte, error)
}

// Config holds chat tuning.
type Config struct {
	ChunkSize        int
	ChunkOverlap     int
	TopK             int
	EmbedWorkers     int
	StreamChunkChars int
	MaxMessageChars  int
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.EmbedWorkers <= 0 {
		c.EmbedWorkers = DefaultEmbedWorkers
	}
	if c.StreamChunkChars <= 0 {
		c.StreamChunkChars = DefaultStreamChunkChars
	}
	if c.MaxMessageChars <= 0 {
		c.MaxMessageChars = DefaultMaxMessageChars
	}
}

const answerPrompt = `You are a knowledgeable research paper expert. Answer the following question based on the paper content:

Context: %s
Question: %s

Provide a clear, detailed response with specific references to the paper where relevant.`

// Engine runs the per-request chat pipeline.
type Engine struct {
	gateway  PaperGateway
	client   llm.Client
	embedder llm.Embedder
	config   Config
	logger   zerolog.Logger
}

// NewEngine creates a chat engine.
func NewEngine(gateway PaperGateway, client llm.Client, embedder llm.Embedder, cfg Config, logger zerolog.Logger) *Engine {
	cfg.applyDefaults()
	return &Engine{
		gateway:  gateway,
		client:   client,
		embedder: embedder,
		config:   cfg,
		logger:   logger.With().Str("component", "chat").Logger(),
	}
}

// ChatStream answers a question about one paper. The returned channel
// is always closed; pipeline failures arrive as a final error chunk.
func (e *Engine) ChatStream(ctx context.Context, id domain.PaperID, message string) <-chan Chunk {
	out := make(chan Chunk)
	go func() {
		defer close(out)
		e.run(ctx, id, message, out)
	}()
	return out
}

func (e *Engine) run(ctx context.Context, id domain.PaperID, message string, out chan<- Chunk) {
	message = strings.TrimSpace(message)
	if message == "" {
		e.emitError(ctx, out, "Error: message is required")
		return
	}
	if len(message) > e.config.MaxMessageChars {
		e.emitError(ctx, out, fmt.Sprintf("Error: message exceeds %d characters", e.config.MaxMessageChars))
		return
	}

	content, err := e.gateway.Content(ctx, id)
	if err != nil {
		e.logger.Error().Err(err).Str("paper_id", id.String()).Msg("chat paper fetch failed")
		e.emitError(ctx, out, "Error: could not fetch the paper")
		return
	}

	pages, err := pdf.ExtractPages(content)
	if err != nil {
		e.logger.Error().Err(err).Str("paper_id", id.String()).Msg("chat text extraction failed")
		e.emitError(ctx, out, "Error: could not process the document")
		return
	}

	chunks := e.splitPages(pages)
	if len(chunks) == 0 {
		e.emitError(ctx, out, "Error: the document contains no usable text")
		return
	}

	vectors, err := e.embedChunks(ctx, chunks)
	if err != nil {
		e.logger.Error().Err(err).Str("paper_id", id.String()).Msg("chat embedding failed")
		e.emitError(ctx, out, "Error: could not index the document")
		return
	}

	queryVecs, err := e.embedder.Embed(ctx, []string{message})
	if err != nil || len(queryVecs) != 1 {
		e.logger.Error().Err(err).Str("paper_id", id.String()).Msg("chat query embedding failed")
		e.emitError(ctx, out, "Error: could not process the question")
		return
	}

	top := newIndex(chunks, vectors).search(queryVecs[0], e.config.TopK)

	answer, err := e.answer(ctx, top, message)
	if err != nil {
		e.logger.Error().Err(err).Str("paper_id", id.String()).Msg("chat answer generation failed")
		e.emitError(ctx, out, "Error: could not generate a response")
		return
	}

	e.stream(ctx, out, answer, sourcesOf(top))
}

// splitPages splits each page separately so every chunk keeps its page
// attribution.
func (e *Engine) splitPages(pages []pdf.Page) []docChunk {
	splitter := NewSplitter(e.config.ChunkSize, e.config.ChunkOverlap)
	var chunks []docChunk
	for _, page := range pages {
		for _, text := range splitter.Split(page.Text) {
			chunks = append(chunks, docChunk{Text: text, Page: page.Number})
		}
	}
	return chunks
}

// embedChunks embeds every chunk on a fixed worker pool. The first
// failure cancels the remaining work.
func (e *Engine) embedChunks(ctx context.Context, chunks []docChunk) ([][]float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(chunks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	workers := e.config.EmbedWorkers
	if workers > len(chunks) {
		workers = len(chunks)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vecs, err := e.embedder.Embed(ctx, []string{chunks[i].Text})
				if err != nil {
					fail(err)
					return
				}
				if len(vecs) != 1 {
					fail(fmt.Errorf("embedder returned %d vectors for one input", len(vecs)))
					return
				}
				vectors[i] = vecs[0]
			}
		}()
	}

dispatch:
	for i := range chunks {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Engine) answer(ctx context.Context, top []docChunk, message string) (string, error) {
	var contextText strings.Builder
	for i, chunk := range top {
		if i > 0 {
			contextText.WriteString("\n\n")
		}
		contextText.WriteString(chunk.Text)
	}

	response, err := e.client.Complete(ctx, llm.Request{
		Prompt: fmt.Sprintf(answerPrompt, contextText.String(), message),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(response) == "" {
		return "", fmt.Errorf("empty chat response")
	}
	return response, nil
}

// stream sends the answer in fixed-size pieces. Sources ride on the
// first piece only.
func (e *Engine) stream(ctx context.Context, out chan<- Chunk, answer string, sources []Source) {
	runes := []rune(answer)
	size := e.config.StreamChunkChars
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := Chunk{Content: string(runes[start:end]), Sources: []Source{}}
		if start == 0 {
			chunk.Sources = sources
		}
		if !e.emit(ctx, out, chunk) {
			return
		}
	}
}

func sourcesOf(chunks []docChunk) []Source {
	sources := make([]Source, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, Source{Page: c.Page})
	}
	return sources
}

func (e *Engine) emitError(ctx context.Context, out chan<- Chunk, msg string) {
	e.emit(ctx, out, Chunk{Content: msg, Sources: []Source{}, Error: msg})
}

func (e *Engine) emit(ctx context.Context, out chan<- Chunk, chunk Chunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
