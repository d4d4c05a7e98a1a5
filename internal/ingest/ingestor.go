package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sahilrm794/Context-QA/internal/index"
	"github.com/sahilrm794/Context-QA/internal/model"
	"github.com/sahilrm794/Context-QA/internal/pkg/pdfextract"
	"github.com/sahilrm794/Context-QA/internal/session"
)

const (
	defaultChunkSize    = 512
	defaultChunkOverlap = 64
	embeddingBatchSize  = 10 // many embedding providers cap batch size
)

var ErrNoExtractableText = errors.New("uploaded files contain no extractable text")

// Embedder is the slice of the LLM client ingestion needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// Ingestor turns a set of uploaded files into a new session: raw files
// saved under the data root, text extracted, chunked, embedded, and the
// vector index written under the index root.
type Ingestor struct {
	layout   session.Layout
	embedder Embedder
	embModel string
	log      zerolog.Logger

	newID func() string
}

func NewIngestor(layout session.Layout, embedder Embedder, embModel string, log zerolog.Logger) *Ingestor {
	return &Ingestor{
		layout:   layout,
		embedder: embedder,
		embModel: embModel,
		log:      log,
		newID:    uuid.NewString,
	}
}

// Ingest builds a persisted vector index for the files and returns the
// new session identifier. The metadata record is written before any
// index artifact: a failure partway through still leaves a dated
// directory behind, so the reaper can age it out instead of orphaning
// it forever.
func (g *Ingestor) Ingest(ctx context.Context, files []model.UploadedFile, opts index.SearchOptions) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no files to ingest")
	}

	sessionID := g.newID()

	dataDir := g.layout.DataDir(sessionID)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir failed: %w", err)
	}
	for _, f := range files {
		name := filepath.Base(f.Name)
		if name == "" || name == "." || name == string(filepath.Separator) {
			name = "file"
		}
		if err := os.WriteFile(filepath.Join(dataDir, name), f.Data, 0o644); err != nil {
			return "", fmt.Errorf("save uploaded file %q failed: %w", name, err)
		}
	}

	indexDir := g.layout.IndexDir(sessionID)
	if err := session.Touch(indexDir, sessionID); err != nil {
		return "", err
	}

	var chunks []index.Chunk
	for _, f := range files {
		text, err := extractText(f)
		if err != nil {
			return "", fmt.Errorf("extract text from %q failed: %w", f.Name, err)
		}
		for _, piece := range chunkText(text, defaultChunkSize, defaultChunkOverlap) {
			chunks = append(chunks, index.Chunk{Source: f.Name, Content: piece})
		}
	}
	if len(chunks) == 0 {
		return "", ErrNoExtractableText
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := g.embedAll(ctx, texts)
	if err != nil {
		return "", err
	}
	if len(embeddings) != len(chunks) {
		return "", fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(chunks), len(embeddings))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	idx := &index.Index{Chunks: chunks, SearchDefaults: opts}
	if err := index.Save(indexDir, idx); err != nil {
		return "", err
	}

	g.log.Info().
		Str("session_id", sessionID).
		Int("files", len(files)).
		Int("chunks", len(chunks)).
		Msg("session indexed")
	return sessionID, nil
}

func (g *Ingestor) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := g.embedder.EmbedBatch(ctx, g.embModel, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunk batch failed: %w", err)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

func extractText(f model.UploadedFile) (string, error) {
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".pdf":
		return pdfextract.ExtractText(bytes.NewReader(f.Data))
	default:
		// .txt, .md and anything else plain is used verbatim.
		return string(f.Data), nil
	}
}

// chunkText splits text into overlapping chunks by rune count.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap >= size {
		overlap = size / 2
	}
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		i += size - overlap
		if i >= len(runes) {
			break
		}
	}
	return chunks
}
