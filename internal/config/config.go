package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Storage   StorageConfig   `toml:"storage"`
	Session   SessionConfig   `toml:"session"`
	LLM       LLMConfig       `toml:"llm"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

type AppConfig struct {
	Name     string `toml:"name"`
	Env      string `toml:"env"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	GinMode  string `toml:"gin_mode"`
	LogLevel string `toml:"log_level"`
}

type StorageConfig struct {
	// IndexRoot holds one directory per session with the vector index
	// artifacts and the session metadata file.
	IndexRoot string `toml:"index_root"`
	// DataRoot holds one directory per session with the raw uploaded files.
	DataRoot string `toml:"data_root"`
}

type SessionConfig struct {
	TTLHours int `toml:"ttl_hours"`
	// SweepSchedule is a cron spec for the background reaper pass.
	SweepSchedule string `toml:"sweep_schedule"`
}

type LLMConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
}

type RetrievalConfig struct {
	SearchType       string  `toml:"search_type"`
	TopK             int     `toml:"top_k"`
	FetchK           int     `toml:"fetch_k"`
	LambdaMult       float64 `toml:"lambda_mult"`
	IngestFetchK     int     `toml:"ingest_fetch_k"`
	IngestLambdaMult float64 `toml:"ingest_lambda_mult"`
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "context-qa",
			Env:      "dev",
			Host:     "0.0.0.0",
			Port:     8000,
			GinMode:  "debug",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			IndexRoot: "storage/index",
			DataRoot:  "storage/data",
		},
		Session: SessionConfig{
			TTLHours:      24,
			SweepSchedule: "@every 30m",
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			APIKey:         "",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
		Retrieval: RetrievalConfig{
			SearchType:       "mmr",
			TopK:             15,
			FetchK:           30,
			LambdaMult:       0.7,
			IngestFetchK:     20,
			IngestLambdaMult: 0.8,
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)

	cfg.Storage.IndexRoot = getEnv("STORAGE_INDEX_ROOT", cfg.Storage.IndexRoot)
	cfg.Storage.DataRoot = getEnv("STORAGE_DATA_ROOT", cfg.Storage.DataRoot)

	cfg.Session.TTLHours = getEnvAsInt("SESSION_TTL_HOURS", cfg.Session.TTLHours)
	cfg.Session.SweepSchedule = getEnv("SESSION_SWEEP_SCHEDULE", cfg.Session.SweepSchedule)

	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.EmbeddingModel = getEnv("LLM_EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
