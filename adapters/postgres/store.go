// Package postgres implements the persistence port on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"neurosense/domain/nsi"
	"neurosense/ports"
)

// StoreImpl implements ports.Store for PostgreSQL.
type StoreImpl struct {
	db *sqlx.DB
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sqlx.DB) ports.Store {
	return &StoreImpl{db: db}
}

// Migrate creates the schema when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			subject_id    TEXT NOT NULL,
			session_id    TEXT NOT NULL,
			session_index INT,
			score         DOUBLE PRECISION,
			model_used    TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (subject_id, session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS nsi_cache (
			subject_id  TEXT PRIMARY KEY,
			nsi         INT NOT NULL,
			components  JSONB NOT NULL,
			computed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS game_history (
			id         UUID PRIMARY KEY,
			subject_id TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			game_id    TEXT NOT NULL,
			source     TEXT NOT NULL DEFAULT '',
			ts         TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_history_subject_ts ON game_history (subject_id, ts)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ListSubjects returns all subject ids with at least one session.
func (s *StoreImpl) ListSubjects(ctx context.Context) ([]string, error) {
	var subjects []string
	err := s.db.SelectContext(ctx, &subjects, `
		SELECT DISTINCT subject_id FROM sessions ORDER BY subject_id
	`)
	return subjects, err
}

// GetSessions returns the subject's sessions ordered by session index.
func (s *StoreImpl) GetSessions(ctx context.Context, subjectID string) ([]ports.SessionRecord, error) {
	var records []ports.SessionRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT session_id, COALESCE(session_index, 0) AS session_index, score, model_used
		FROM sessions
		WHERE subject_id = $1
		ORDER BY sessions.session_index NULLS LAST, session_id
	`, subjectID)
	return records, err
}

// SetSessionScore upserts the session score and drops the subject's
// cached NSI in one transaction, so no reader observes the new score
// with the old index.
func (s *StoreImpl) SetSessionScore(ctx context.Context, subjectID, sessionID string, score float64, modelUsed string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (subject_id, session_id, session_index, score, model_used, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (subject_id, session_id)
		DO UPDATE SET score = EXCLUDED.score, model_used = EXCLUDED.model_used
	`, subjectID, sessionID, sessionIndex(sessionID), score, modelUsed)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM nsi_cache WHERE subject_id = $1`, subjectID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetCachedNSI returns the cached index, or nil when absent.
func (s *StoreImpl) GetCachedNSI(ctx context.Context, subjectID string) (*nsi.Result, error) {
	var row struct {
		NSI        int             `db:"nsi"`
		Components json.RawMessage `db:"components"`
		ComputedAt time.Time       `db:"computed_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT nsi, components, computed_at FROM nsi_cache WHERE subject_id = $1
	`, subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result := &nsi.Result{NSI: row.NSI, ComputedAt: row.ComputedAt}
	if err := json.Unmarshal(row.Components, &result.Components); err != nil {
		return nil, fmt.Errorf("decoding cached NSI components for %s: %w", subjectID, err)
	}
	return result, nil
}

// SetCachedNSI stores the computed index for the subject.
func (s *StoreImpl) SetCachedNSI(ctx context.Context, subjectID string, result *nsi.Result) error {
	components, err := json.Marshal(result.Components)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO nsi_cache (subject_id, nsi, components, computed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id)
		DO UPDATE SET nsi = EXCLUDED.nsi, components = EXCLUDED.components, computed_at = EXCLUDED.computed_at
	`, subjectID, result.NSI, components, result.ComputedAt)
	return err
}

// InvalidateNSI drops the subject's cached index.
func (s *StoreImpl) InvalidateNSI(ctx context.Context, subjectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM nsi_cache WHERE subject_id = $1`, subjectID)
	return err
}

// GetRecentGameHistory returns up to limit events, most recent last.
func (s *StoreImpl) GetRecentGameHistory(ctx context.Context, subjectID string, limit int) ([]ports.GameEvent, error) {
	var events []ports.GameEvent
	err := s.db.SelectContext(ctx, &events, `
		SELECT id, subject_id, session_id, game_id, source, ts
		FROM (
			SELECT id, subject_id, session_id, game_id, source, ts
			FROM game_history
			WHERE subject_id = $1
			ORDER BY ts DESC
			LIMIT $2
		) recent
		ORDER BY ts ASC
	`, subjectID, limit)
	return events, err
}

// LogGame appends one play-history event.
func (s *StoreImpl) LogGame(ctx context.Context, event ports.GameEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_history (id, subject_id, session_id, game_id, source, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.SubjectID, event.SessionID, event.GameID, event.Source, event.Timestamp)
	return err
}

// sessionIndex parses the numeric part of ids like "S03". Opaque ids
// store NULL so they sort after every numbered session, by id.
func sessionIndex(sessionID string) *int {
	n, err := strconv.Atoi(strings.TrimPrefix(sessionID, "S"))
	if err != nil {
		return nil
	}
	return &n
}
