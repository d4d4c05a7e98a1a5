package bootstrap

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahilrm794/Context-QA/internal/ai"
	appsvc "github.com/sahilrm794/Context-QA/internal/app"
	"github.com/sahilrm794/Context-QA/internal/config"
	"github.com/sahilrm794/Context-QA/internal/index"
	"github.com/sahilrm794/Context-QA/internal/ingest"
	"github.com/sahilrm794/Context-QA/internal/logging"
	"github.com/sahilrm794/Context-QA/internal/rag"
	"github.com/sahilrm794/Context-QA/internal/session"
)

type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Registry  *session.Registry
	Reaper    *session.Reaper
	Sweeper   *session.Sweeper
	QAService *appsvc.QAService

	StartedAt time.Time
}

// New wires the service. Storage roots that cannot be created are fatal
// here; nothing else at startup touches the network or disk.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log := logging.New(cfg.App.LogLevel, cfg.App.Env)

	for _, root := range []string{cfg.Storage.IndexRoot, cfg.Storage.DataRoot} {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("create storage root %q failed: %w", root, err)
		}
	}

	layout := session.Layout{
		IndexRoot: cfg.Storage.IndexRoot,
		DataRoot:  cfg.Storage.DataRoot,
	}
	registry := session.NewRegistry()
	reaper := session.NewReaper(layout, time.Duration(cfg.Session.TTLHours)*time.Hour, log)

	llmClient := ai.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey)
	ingestor := ingest.NewIngestor(layout, llmClient, cfg.LLM.EmbeddingModel, log)
	loader := rag.NewLoader(llmClient, cfg.LLM.Model, cfg.LLM.EmbeddingModel)

	ingestOpts := index.SearchOptions{
		SearchType: cfg.Retrieval.SearchType,
		K:          cfg.Retrieval.TopK,
		FetchK:     cfg.Retrieval.IngestFetchK,
		LambdaMult: cfg.Retrieval.IngestLambdaMult,
	}
	chatOpts := index.SearchOptions{
		SearchType: cfg.Retrieval.SearchType,
		K:          cfg.Retrieval.TopK,
		FetchK:     cfg.Retrieval.FetchK,
		LambdaMult: cfg.Retrieval.LambdaMult,
	}

	qaService := appsvc.NewQAService(
		layout,
		registry,
		reaper,
		ingestor,
		engineLoader{loader},
		ingestOpts,
		chatOpts,
		log,
	)

	sweeper, err := session.NewSweeper(cfg.Session.SweepSchedule, reaper, registry, log)
	if err != nil {
		return nil, err
	}
	sweeper.Start()

	return &App{
		Config:    cfg,
		Log:       log,
		Registry:  registry,
		Reaper:    reaper,
		Sweeper:   sweeper,
		QAService: qaService,
		StartedAt: time.Now(),
	}, nil
}

func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	return nil
}

// engineLoader adapts the concrete rag loader to the interface the
// orchestrator consumes.
type engineLoader struct {
	loader *rag.Loader
}

func (l engineLoader) LoadIndex(dir string, opts index.SearchOptions) (appsvc.AnswerEngine, error) {
	return l.loader.LoadIndex(dir, opts)
}
