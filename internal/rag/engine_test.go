package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilrm794/Context-QA/internal/ai"
	"github.com/sahilrm794/Context-QA/internal/index"
	"github.com/sahilrm794/Context-QA/internal/model"
)

type fakeLLM struct {
	completions []string
	requests    [][]ai.ChatMessage
	embedErr    error
}

func (f *fakeLLM) Complete(_ context.Context, _ string, messages []ai.ChatMessage) (string, error) {
	f.requests = append(f.requests, messages)
	if len(f.completions) == 0 {
		return "fallback answer", nil
	}
	next := f.completions[0]
	f.completions = f.completions[1:]
	return next, nil
}

func (f *fakeLLM) Embed(context.Context, string, string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{1, 0}, nil
}

func savedIndex(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	idx := &index.Index{
		Chunks: []index.Chunk{
			{Source: "doc.txt", Content: "the capital of france is paris", Embedding: []float32{1, 0}},
			{Source: "doc.txt", Content: "unrelated trivia", Embedding: []float32{0, 1}},
		},
		SearchDefaults: index.SearchOptions{SearchType: index.SearchSimilarity, K: 1},
	}
	require.NoError(t, index.Save(dir, idx))
	return dir
}

func TestLoaderLoadIndex(t *testing.T) {
	t.Run("missing index fails", func(t *testing.T) {
		loader := NewLoader(&fakeLLM{}, "chat-model", "embed-model")
		_, err := loader.LoadIndex(t.TempDir(), index.SearchOptions{})
		assert.Error(t, err)
	})

	t.Run("empty options fall back to ingestion defaults", func(t *testing.T) {
		loader := NewLoader(&fakeLLM{}, "chat-model", "embed-model")
		engine, err := loader.LoadIndex(savedIndex(t), index.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, index.SearchSimilarity, engine.opts.SearchType)
	})
}

func TestEngineAnswer(t *testing.T) {
	t.Run("grounds the reply in retrieved context", func(t *testing.T) {
		llm := &fakeLLM{completions: []string{"Paris."}}
		loader := NewLoader(llm, "chat-model", "embed-model")
		engine, err := loader.LoadIndex(savedIndex(t), index.SearchOptions{SearchType: index.SearchSimilarity, K: 1})
		require.NoError(t, err)

		answer, err := engine.Answer(context.Background(), "what is the capital of france?", nil)
		require.NoError(t, err)
		assert.Equal(t, "Paris.", answer)

		// One completion call (no history, so no condense pass), with
		// the retrieved chunk inside the system prompt.
		require.Len(t, llm.requests, 1)
		prompt := llm.requests[0]
		assert.Equal(t, "system", prompt[0].Role)
		assert.Contains(t, prompt[0].Content, "the capital of france is paris")
		assert.Equal(t, model.RoleUser, prompt[len(prompt)-1].Role)
	})

	t.Run("history is condensed first and kept in order", func(t *testing.T) {
		llm := &fakeLLM{completions: []string{"standalone question", "It is Paris."}}
		loader := NewLoader(llm, "chat-model", "embed-model")
		engine, err := loader.LoadIndex(savedIndex(t), index.SearchOptions{SearchType: index.SearchSimilarity, K: 1})
		require.NoError(t, err)

		history := []model.Turn{
			{Role: model.RoleUser, Content: "tell me about france"},
			{Role: model.RoleAssistant, Content: "france is a country in europe"},
		}
		answer, err := engine.Answer(context.Background(), "and its capital?", history)
		require.NoError(t, err)
		assert.Equal(t, "It is Paris.", answer)

		require.Len(t, llm.requests, 2)
		condense := llm.requests[0]
		assert.True(t, strings.Contains(condense[0].Content, "rewrite the question"))

		final := llm.requests[1]
		// system, two history turns, question
		require.Len(t, final, 4)
		assert.Equal(t, "tell me about france", final[1].Content)
		assert.Equal(t, "france is a country in europe", final[2].Content)
	})

	t.Run("embedding failure surfaces", func(t *testing.T) {
		llm := &fakeLLM{embedErr: errors.New("no provider")}
		loader := NewLoader(llm, "chat-model", "embed-model")
		engine, err := loader.LoadIndex(savedIndex(t), index.SearchOptions{SearchType: index.SearchSimilarity, K: 1})
		require.NoError(t, err)

		_, err = engine.Answer(context.Background(), "anything", nil)
		assert.Error(t, err)
	})
}
