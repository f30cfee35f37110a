package review

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litxplore/litxplore/internal/domain"
	"github.com/litxplore/litxplore/internal/llm"
)

type fakeLLM struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-model" }

func testPapers() []domain.Paper {
	return []domain.Paper{
		{Title: "Attention Is All You Need", Authors: []string{"Ada Lovelace", "Alan Turing"}, Summary: "Introduces the transformer."},
		{Title: "BERT", Authors: []string{"Grace Hopper"}, Summary: "Bidirectional pretraining."},
	}
}

func TestGenerate_BuildsNumberedContext(t *testing.T) {
	client := &fakeLLM{response: "## Introduction\n\nTransformers changed everything [1][2]."}
	g := NewGenerator(client, zerolog.Nop())

	review, err := g.Generate(context.Background(), testPapers(), "transformer architectures")
	require.NoError(t, err)
	assert.Contains(t, review, "[1]")

	assert.Contains(t, client.lastReq.Prompt, "transformer architectures")
	assert.Contains(t, client.lastReq.Prompt, "Reference 1:\nTitle: Attention Is All You Need")
	assert.Contains(t, client.lastReq.Prompt, "Ada Lovelace, Alan Turing")
	assert.Contains(t, client.lastReq.Prompt, "Reference 2:\nTitle: BERT")
}

func TestGenerate_NoPapers(t *testing.T) {
	g := NewGenerator(&fakeLLM{}, zerolog.Nop())

	_, err := g.Generate(context.Background(), nil, "some topic")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestGenerate_EmptyTopic(t *testing.T) {
	g := NewGenerator(&fakeLLM{}, zerolog.Nop())

	_, err := g.Generate(context.Background(), testPapers(), "   ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestGenerate_LLMErrorIsTerminal(t *testing.T) {
	client := &fakeLLM{err: errors.New("provider down")}
	g := NewGenerator(client, zerolog.Nop())

	_, err := g.Generate(context.Background(), testPapers(), "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestGenerate_EmptyResponseIsError(t *testing.T) {
	client := &fakeLLM{response: "  \n "}
	g := NewGenerator(client, zerolog.Nop())

	_, err := g.Generate(context.Background(), testPapers(), "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
