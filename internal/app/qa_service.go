package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sahilrm794/Context-QA/internal/index"
	"github.com/sahilrm794/Context-QA/internal/model"
	"github.com/sahilrm794/Context-QA/internal/session"
)

var (
	ErrNoFiles         = errors.New("no files uploaded")
	ErrSessionNotFound = errors.New("invalid or expired session_id, re-upload documents")
	ErrMessageEmpty    = errors.New("message cannot be empty")
)

// Ingestor builds a persisted vector index from uploaded files and
// returns the new session identifier.
type Ingestor interface {
	Ingest(ctx context.Context, files []model.UploadedFile, opts index.SearchOptions) (string, error)
}

// AnswerEngine answers a question against a loaded session index.
type AnswerEngine interface {
	Answer(ctx context.Context, message string, history []model.Turn) (string, error)
}

// EngineLoader reloads the persisted index for a session.
type EngineLoader interface {
	LoadIndex(dir string, opts index.SearchOptions) (AnswerEngine, error)
}

// QAService is the entry point consumed by the HTTP layer. It owns the
// session lifecycle: every write path first runs the reaper so storage
// growth stays bounded, then touches the session's metadata on success.
type QAService struct {
	layout     session.Layout
	registry   *session.Registry
	reaper     *session.Reaper
	ingestor   Ingestor
	loader     EngineLoader
	ingestOpts index.SearchOptions
	chatOpts   index.SearchOptions
	log        zerolog.Logger
}

func NewQAService(
	layout session.Layout,
	registry *session.Registry,
	reaper *session.Reaper,
	ingestor Ingestor,
	loader EngineLoader,
	ingestOpts, chatOpts index.SearchOptions,
	log zerolog.Logger,
) *QAService {
	return &QAService{
		layout:     layout,
		registry:   registry,
		reaper:     reaper,
		ingestor:   ingestor,
		loader:     loader,
		ingestOpts: ingestOpts,
		chatOpts:   chatOpts,
		log:        log,
	}
}

// Upload ingests the files into a fresh session and returns its id.
func (s *QAService) Upload(ctx context.Context, files []model.UploadedFile) (string, error) {
	if len(files) == 0 {
		return "", ErrNoFiles
	}

	// Prune stale sessions before accepting new uploads.
	s.reaper.Reap(s.registry)

	sessionID, err := s.ingestor.Ingest(ctx, files, s.ingestOpts)
	if err != nil {
		return "", err
	}

	s.registry.Init(sessionID)
	if err := session.Touch(s.layout.IndexDir(sessionID), sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Chat answers the message against the session's documents and appends
// the exchange to its history.
//
// The registry is the source of truth for whether a conversation is
// live: a session that exists on disk but not in the registry (for
// example after a restart) is rejected as unknown, and its directories
// are left for the reaper to age out.
func (s *QAService) Chat(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if sessionID == "" || !s.registry.Has(sessionID) {
		return "", ErrSessionNotFound
	}
	if message == "" {
		return "", ErrMessageEmpty
	}

	// Prune stale sessions on access. This may reclaim the very session
	// being chatted with if it was already stale; the exchange below
	// then completes but its history append is dropped, and the next
	// call is rejected as unknown. That race is accepted.
	s.reaper.Reap(s.registry)

	engine, err := s.loader.LoadIndex(s.layout.IndexDir(sessionID), s.chatOpts)
	if err != nil {
		return "", err
	}

	history, _ := s.registry.History(sessionID)
	answer, err := engine.Answer(ctx, message, history)
	if err != nil {
		return "", err
	}

	appended := s.registry.Append(sessionID,
		model.Turn{Role: model.RoleUser, Content: message},
		model.Turn{Role: model.RoleAssistant, Content: answer},
	)
	if !appended {
		s.log.Warn().Str("session_id", sessionID).
			Msg("session reclaimed mid-chat, history append dropped")
		return answer, nil
	}

	if err := session.Touch(s.layout.IndexDir(sessionID), sessionID); err != nil {
		return "", err
	}
	return answer, nil
}
