package ports

import (
	"context"
	"time"

	"neurosense/domain/nsi"
)

// SessionRecord is one scored (or not yet scored) recording session.
type SessionRecord struct {
	SessionID string   `db:"session_id" json:"session_id"`
	Index     int      `db:"session_index" json:"session_index"`
	Score     *float64 `db:"score" json:"score,omitempty"`
	ModelUsed string   `db:"model_used" json:"model_used,omitempty"`
}

// GameEvent is one append-only play-history entry.
type GameEvent struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	GameID    string    `db:"game_id" json:"game_id"`
	Source    string    `db:"source" json:"source"`
	Timestamp time.Time `db:"ts" json:"timestamp"`
}

// Store is the persistence collaborator for subjects, sessions, the
// NSI cache and play history.
//
// Consistency contract: SetSessionScore must invalidate the subject's
// cached NSI in the same atomic step, so a later read never observes a
// stale index (read-after-write per subject).
type Store interface {
	ListSubjects(ctx context.Context) ([]string, error)

	// GetSessions returns the subject's sessions ordered by session
	// index; sessions without a parseable index come last, by id.
	GetSessions(ctx context.Context, subjectID string) ([]SessionRecord, error)

	// SetSessionScore upserts one session score and invalidates the
	// subject's cached NSI atomically.
	SetSessionScore(ctx context.Context, subjectID, sessionID string, score float64, modelUsed string) error

	// GetCachedNSI returns the cached index, or nil when absent.
	GetCachedNSI(ctx context.Context, subjectID string) (*nsi.Result, error)
	SetCachedNSI(ctx context.Context, subjectID string, result *nsi.Result) error
	InvalidateNSI(ctx context.Context, subjectID string) error

	// GetRecentGameHistory returns up to limit events, most recent
	// last.
	GetRecentGameHistory(ctx context.Context, subjectID string, limit int) ([]GameEvent, error)
	LogGame(ctx context.Context, event GameEvent) error
}
