package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MetaFilename is the well-known metadata file inside each session's
// index directory.
const MetaFilename = "session_meta.json"

// Meta is the durable record of a session's identity and timestamps.
// Timestamps are RFC3339 in UTC.
type Meta struct {
	SessionID  string `json:"session_id"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at"`
}

// MetaState reports what Load found on disk.
type MetaState int

const (
	// MetaAbsent means the metadata file does not exist.
	MetaAbsent MetaState = iota
	// MetaValid means the file parsed as a well-formed record.
	MetaValid
	// MetaCorrupt means the file exists but is unreadable or malformed;
	// callers treat it like an absent record but can log the difference.
	MetaCorrupt
)

// Load reads the metadata record from dir. It never returns an error:
// a missing, unreadable, or malformed file is reported through the
// returned state instead.
func Load(dir string) (Meta, MetaState) {
	path := filepath.Join(dir, MetaFilename)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, MetaAbsent
		}
		return Meta{}, MetaCorrupt
	}
	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Meta{}, MetaCorrupt
	}
	return meta, MetaValid
}

// Touch creates or updates the metadata record in dir, creating the
// directory first if needed. An existing record's created_at is
// preserved; session_id is always forced to the supplied value to guard
// against a corrupted or foreign record; last_used_at is always set to
// now. Read problems are swallowed and treated as no existing record,
// so only directory creation or the final write can fail the caller.
func Touch(dir, sessionID string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir failed: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	meta := Meta{
		SessionID:  sessionID,
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if existing, state := Load(dir); state == MetaValid && existing.CreatedAt != "" {
		meta.CreatedAt = existing.CreatedAt
	}

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session meta failed: %w", err)
	}
	path := filepath.Join(dir, MetaFilename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write session meta failed: %w", err)
	}
	return nil
}
