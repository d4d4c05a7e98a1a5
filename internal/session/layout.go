package session

import "path/filepath"

// Layout maps a session identifier to its two storage directories.
// A session owns exactly one directory under each root, both named by
// the session id; no two sessions ever share a directory.
type Layout struct {
	IndexRoot string
	DataRoot  string
}

// IndexDir is where the session's vector index artifacts and metadata
// file live.
func (l Layout) IndexDir(sessionID string) string {
	return filepath.Join(l.IndexRoot, sessionID)
}

// DataDir is where the session's raw uploaded files live.
func (l Layout) DataDir(sessionID string) string {
	return filepath.Join(l.DataRoot, sessionID)
}
