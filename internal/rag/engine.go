package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilrm794/Context-QA/internal/ai"
	"github.com/sahilrm794/Context-QA/internal/index"
	"github.com/sahilrm794/Context-QA/internal/model"
)

const condensePrompt = "You are a helpful assistant. Given a chat history and the " +
	"latest user question, rewrite the question so it can be understood without the " +
	"history. Do not answer the question. If the question is already standalone, " +
	"return it unchanged."

const answerPrompt = "You are a concise assistant for question answering. Use the " +
	"provided context to answer the question. If the answer is not in the context, " +
	"say you don't know. Keep answers brief.\n\nContext:\n%s"

// LLM is the slice of the AI client the engine needs.
type LLM interface {
	Complete(ctx context.Context, model string, messages []ai.ChatMessage) (string, error)
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// Loader builds answer engines from persisted session indexes.
type Loader struct {
	llm       LLM
	chatModel string
	embModel  string
}

func NewLoader(llm LLM, chatModel, embModel string) *Loader {
	return &Loader{llm: llm, chatModel: chatModel, embModel: embModel}
}

// LoadIndex reads the vector index from the session's index directory
// and returns an engine bound to it. The given options override the
// defaults recorded at ingestion time where set.
func (l *Loader) LoadIndex(dir string, opts index.SearchOptions) (*Engine, error) {
	idx, err := index.Load(dir)
	if err != nil {
		return nil, err
	}
	if opts.SearchType == "" {
		opts = idx.SearchDefaults
	}
	return &Engine{llm: l.llm, chatModel: l.chatModel, embModel: l.embModel, idx: idx, opts: opts}, nil
}

// Engine answers one question at a time against a loaded index.
type Engine struct {
	llm       LLM
	chatModel string
	embModel  string
	idx       *index.Index
	opts      index.SearchOptions
}

// Answer retrieves the chunks most relevant to the message and asks the
// chat model for a grounded reply, with the conversation history in the
// prompt. History order is preserved.
func (e *Engine) Answer(ctx context.Context, message string, history []model.Turn) (string, error) {
	query := e.condenseQuestion(ctx, message, history)

	queryEmb, err := e.llm.Embed(ctx, e.embModel, query)
	if err != nil {
		return "", fmt.Errorf("embed question failed: %w", err)
	}
	retrieved := e.idx.Search(queryEmb, e.opts)

	var contextBlock strings.Builder
	for _, c := range retrieved {
		contextBlock.WriteString("\n---\n")
		contextBlock.WriteString(c.Content)
	}
	if contextBlock.Len() > 0 {
		contextBlock.WriteString("\n---")
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    "system",
		Content: fmt.Sprintf(answerPrompt, contextBlock.String()),
	})
	for _, turn := range history {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleUser, Content: "Question: " + message})

	answer, err := e.llm.Complete(ctx, e.chatModel, messages)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// condenseQuestion rewrites a follow-up question into a standalone one
// so retrieval does not miss context carried by the history. Falls back
// to the original message if the rewrite fails.
func (e *Engine) condenseQuestion(ctx context.Context, message string, history []model.Turn) string {
	if len(history) == 0 {
		return message
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: condensePrompt})
	for _, turn := range history {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleUser, Content: message})

	rewritten, err := e.llm.Complete(ctx, e.chatModel, messages)
	if err != nil || strings.TrimSpace(rewritten) == "" {
		return message
	}
	return strings.TrimSpace(rewritten)
}
