package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/llm"
)

// buildPDF assembles an uncompressed one-page PDF showing the given
// text, tracking object offsets so the xref table stays consistent.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 0, 6)

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	writeObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		len(content), content))
	writeObj("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica " +
		"/Encoding /WinAnsiEncoding >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset))

	return buf.Bytes()
}

type fakeGateway struct {
	content []byte
	err     error
}

func (f *fakeGateway) Content(ctx context.Context, id domain.PaperID) ([]byte, error) {
	return f.content, f.err
}

type fakeChatLLM struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeChatLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func (f *fakeChatLLM) Provider() string { return "fake" }
func (f *fakeChatLLM) Model() string    { return "fake-model" }

// fakeEmbedder returns a fixed-dimension vector derived from text
// length, which is deterministic and never zero.
type fakeEmbedder struct {
	err   error
	calls atomic.Int64
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = []float32{float32(len(text)) + 1, 1, 1}
	}
	return vecs, nil
}

func newTestEngine(gw *fakeGateway, client llm.Client, embedder llm.Embedder) *Engine {
	return NewEngine(gw, client, embedder, Config{}, zerolog.Nop())
}

func collect(t *testing.T, ch <-chan Chunk) []Chunk {
	t.Helper()
	var chunks []Chunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func mustID(t *testing.T, raw string) domain.PaperID {
	t.Helper()
	id, err := domain.ParsePaperID(raw)
	require.NoError(t, err)
	return id
}

func TestChatStream_StreamsAnswerWithSourcesOnFirstChunk(t *testing.T) {
	answer := strings.Repeat("The paper shows strong results. ", 10) // > 100 chars
	gw := &fakeGateway{content: buildPDF(t, "Paper body text about transformers and attention")}
	client := &fakeChatLLM{response: answer}
	engine := newTestEngine(gw, client, &fakeEmbedder{})

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), "What are the results?"))
	require.Greater(t, len(chunks), 1)

	var rebuilt strings.Builder
	for i, chunk := range chunks {
		assert.Empty(t, chunk.Error)
		rebuilt.WriteString(chunk.Content)
		if i == 0 {
			require.NotEmpty(t, chunk.Sources)
			assert.Equal(t, 1, chunk.Sources[0].Page)
		} else {
			assert.Empty(t, chunk.Sources)
		}
	}
	assert.Equal(t, answer, rebuilt.String())

	// The prompt carries document context and the question.
	assert.Contains(t, client.lastReq.Prompt, "transformers")
	assert.Contains(t, client.lastReq.Prompt, "What are the results?")
}

func TestChatStream_ChunkSizeHonored(t *testing.T) {
	gw := &fakeGateway{content: buildPDF(t, "Some document body text for chat context")}
	client := &fakeChatLLM{response: strings.Repeat("a", 250)}
	engine := NewEngine(gw, client, &fakeEmbedder{}, Config{StreamChunkChars: 100}, zerolog.Nop())

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), "question"))
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Content, 100)
	assert.Len(t, chunks[1].Content, 100)
	assert.Len(t, chunks[2].Content, 50)
}

func TestChatStream_EmptyMessage(t *testing.T) {
	engine := newTestEngine(&fakeGateway{}, &fakeChatLLM{}, &fakeEmbedder{})

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), "   "))
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "message is required")
}

func TestChatStream_MessageTooLong(t *testing.T) {
	gw := &fakeGateway{content: buildPDF(t, "body")}
	engine := NewEngine(gw, &fakeChatLLM{}, &fakeEmbedder{}, Config{MaxMessageChars: 10}, zerolog.Nop())

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), strings.Repeat("q", 11)))
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "exceeds 10 characters")
}

func TestChatStream_FetchFailure(t *testing.T) {
	gw := &fakeGateway{err: domain.NewNotFoundError("paper", "2301.12345")}
	engine := newTestEngine(gw, &fakeChatLLM{}, &fakeEmbedder{})

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), "question"))
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "could not fetch")
}

func TestChatStream_UnparseableDocument(t *testing.T) {
	gw := &fakeGateway{content: []byte("%PDF-1.4\ngarbage")}
	engine := newTestEngine(gw, &fakeChatLLM{}, &fakeEmbedder{})

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), "question"))
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "could not process")
}

func TestChatStream_EmbeddingFailure(t *testing.T) {
	gw := &fakeGateway{content: buildPDF(t, "document body text")}
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	engine := newTestEngine(gw, &fakeChatLLM{}, embedder)

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), "question"))
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "could not index")
}

func TestChatStream_AnswerFailure(t *testing.T) {
	gw := &fakeGateway{content: buildPDF(t, "document body text")}
	client := &fakeChatLLM{err: errors.New("provider down")}
	engine := newTestEngine(gw, client, &fakeEmbedder{})

	chunks := collect(t, engine.ChatStream(context.Background(), mustID(t, "2301.12345"), "question"))
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "could not generate")
}

func TestEmbedChunks_EmbedsEveryChunkWithBoundedConcurrency(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex

	embedder := &trackingEmbedder{onEmbed: func() {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
	}, onDone: func() {
		mu.Lock()
		active--
		mu.Unlock()
	}}

	engine := NewEngine(&fakeGateway{}, &fakeChatLLM{}, embedder, Config{EmbedWorkers: 4}, zerolog.Nop())

	chunks := make([]docChunk, 20)
	for i := range chunks {
		chunks[i] = docChunk{Text: fmt.Sprintf("chunk %d", i), Page: 1}
	}

	vectors, err := engine.embedChunks(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, vectors, 20)
	for i, vec := range vectors {
		assert.NotNil(t, vec, "chunk %d was not embedded", i)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(4))
}

func TestEmbedChunks_FirstFailureWins(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("boom")}
	engine := NewEngine(&fakeGateway{}, &fakeChatLLM{}, embedder, Config{}, zerolog.Nop())

	chunks := make([]docChunk, 10)
	for i := range chunks {
		chunks[i] = docChunk{Text: fmt.Sprintf("chunk %d", i), Page: 1}
	}

	_, err := engine.embedChunks(context.Background(), chunks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

type trackingEmbedder struct {
	onEmbed func()
	onDone  func()
}

func (f *trackingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.onEmbed()
	defer f.onDone()
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, 1, 1}
	}
	return vecs, nil
}
