package session

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL bounds how long an idle session's artifacts are kept.
const DefaultTTL = 24 * time.Hour

// Reaper removes sessions whose last_used_at is older than the TTL. It
// deletes both storage directories and prunes the registry entry, and
// is run on every upload and chat so storage growth is bounded by the
// write path itself.
type Reaper struct {
	layout Layout
	ttl    time.Duration
	log    zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewReaper builds a reaper for the given layout. A non-positive ttl is
// a misconfiguration; it falls back to DefaultTTL rather than disabling
// reclamation.
func NewReaper(layout Layout, ttl time.Duration, log zerolog.Logger) *Reaper {
	if ttl <= 0 {
		log.Warn().Dur("ttl", ttl).Dur("fallback", DefaultTTL).
			Msg("non-positive session ttl, using default")
		ttl = DefaultTTL
	}
	return &Reaper{
		layout: layout,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Reap scans every session directory under the index root and removes
// the expired ones everywhere they exist: index directory, data
// directory, and registry entry. It returns the reclaimed session ids
// in enumeration order. A missing index root is a no-op, and one
// session's deletion failure never aborts the rest of the pass.
//
// Directories without a readable metadata record are never reclaimed;
// destroying state we cannot date is worse than leaking it. A record
// whose last_used_at is missing or unparsable counts as expired, since
// an untrackable session is stale by definition.
func (r *Reaper) Reap(reg *Registry) []string {
	var reclaimed []string
	cutoff := r.now().UTC().Add(-r.ttl)

	entries, err := os.ReadDir(r.layout.IndexRoot)
	if err != nil {
		return reclaimed
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := r.layout.IndexDir(entry.Name())

		meta, state := Load(dir)
		if state == MetaCorrupt {
			r.log.Warn().Str("dir", entry.Name()).Msg("skipping session with corrupt metadata")
			continue
		}
		if state == MetaAbsent {
			continue
		}

		sessionID := meta.SessionID
		if sessionID == "" {
			sessionID = entry.Name()
		}

		lastUsed, parseErr := time.Parse(time.RFC3339, meta.LastUsedAt)
		if parseErr == nil && !lastUsed.Before(cutoff) {
			continue
		}

		// Expired (or undatable): remove the full footprint. Files that
		// vanished since enumeration are tolerated.
		_ = os.RemoveAll(dir)
		_ = os.RemoveAll(r.layout.DataDir(entry.Name()))
		if reg != nil {
			reg.Remove(entry.Name())
		}
		reclaimed = append(reclaimed, sessionID)

		r.log.Info().
			Str("session_id", sessionID).
			Str("last_used", meta.LastUsedAt).
			Time("cutoff", cutoff).
			Msg("session pruned by ttl")
	}
	return reclaimed
}
