package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// UpsertMode selects how SupportsUpsert answers.
type UpsertMode string

const (
	// UpsertAuto probes the SQLite library version.
	UpsertAuto UpsertMode = "auto"
	// UpsertAlways reports upsert as available.
	UpsertAlways UpsertMode = "always"
	// UpsertNever reports upsert as unavailable, forcing delete-then-insert.
	UpsertNever UpsertMode = "never"
)

// ParseUpsertMode converts a mode name to an UpsertMode. Empty means auto.
func ParseUpsertMode(s string) (UpsertMode, error) {
	switch mode := UpsertMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return UpsertAuto, nil
	case UpsertAuto, UpsertAlways, UpsertNever:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid upsert mode %q: must be one of auto, always, never", s)
	}
}

// minUpsertVersion is the first SQLite release with ON CONFLICT ... DO UPDATE.
const minUpsertVersion = "v3.24.0"

// Version returns the SQLite library version, e.g. "3.46.1".
func (s *Store) Version(ctx context.Context) (string, error) {
	var version string
	if err := s.db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&version); err != nil {
		return "", fmt.Errorf("query sqlite version: %w", err)
	}
	return version, nil
}

// SupportsUpsert reports whether the backend can express a single idempotent
// insert-or-update.
func (s *Store) SupportsUpsert(ctx context.Context) (bool, error) {
	switch s.upsertMode {
	case UpsertAlways:
		return true, nil
	case UpsertNever:
		return false, nil
	}

	version, err := s.Version(ctx)
	if err != nil {
		return false, err
	}
	return versionSupportsUpsert(version), nil
}

func versionSupportsUpsert(version string) bool {
	v := "v" + strings.TrimSpace(version)
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(v, minUpsertVersion) >= 0
}
