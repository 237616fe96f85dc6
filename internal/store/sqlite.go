package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/models"
)

// SQLiteStore implements SessionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ SessionStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the session database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		symbols TEXT NOT NULL,
		error_message TEXT,
		config TEXT NOT NULL,
		progress TEXT,
		results TEXT,
		created_at DATETIME NOT NULL,
		started_at DATETIME,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts or replaces the full session record.
func (s *SQLiteStore) Save(ctx context.Context, session *models.Session) error {
	config, err := json.Marshal(session.Config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	progress, err := json.Marshal(session.Progress)
	if err != nil {
		return fmt.Errorf("marshaling progress: %w", err)
	}

	var results []byte
	if session.Results != nil {
		results, err = json.Marshal(session.Results)
		if err != nil {
			return fmt.Errorf("marshaling results: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
		(id, mode, status, symbols, error_message, config, progress, results, created_at, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		string(session.Config.Mode),
		string(session.Status),
		strings.Join(session.Config.Symbols, ","),
		session.ErrorMessage,
		string(config),
		string(progress),
		nullableString(results),
		session.CreatedAt,
		nullableTime(session.StartedAt),
		nullableTime(session.FinishedAt),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	return nil
}

// Load returns the session with the given id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, error_message, config, progress, results, created_at, started_at, finished_at
		FROM sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	return session, nil
}

// Delete removes the session with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	if affected == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// List returns session summaries, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	query := `
		SELECT id, mode, status, symbols, progress, created_at, finished_at
		FROM sessions ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	defer rows.Close()

	var summaries []models.SessionSummary
	for rows.Next() {
		var (
			summary      models.SessionSummary
			mode         string
			status       string
			symbols      string
			progressJSON sql.NullString
			finishedAt   sql.NullTime
		)
		if err := rows.Scan(&summary.ID, &mode, &status, &symbols, &progressJSON, &summary.CreatedAt, &finishedAt); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
		}
		summary.Mode = models.SessionMode(mode)
		summary.Status = models.SessionStatus(status)
		if symbols != "" {
			summary.Symbols = strings.Split(symbols, ",")
		}
		if finishedAt.Valid {
			summary.FinishedAt = finishedAt.Time
		}
		if progressJSON.Valid && progressJSON.String != "" {
			var progress models.Progress
			if err := json.Unmarshal([]byte(progressJSON.String), &progress); err == nil {
				summary.TotalPnL = progress.TotalPnL
				summary.Trades = progress.TotalTrades
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// LoadByStatus returns all sessions in the given status.
func (s *SQLiteStore) LoadByStatus(ctx context.Context, status models.SessionStatus) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, error_message, config, progress, results, created_at, started_at, finished_at
		FROM sessions WHERE status = ? ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabaseError, err.Error())
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		session      models.Session
		status       string
		errorMessage sql.NullString
		configJSON   string
		progressJSON sql.NullString
		resultsJSON  sql.NullString
		startedAt    sql.NullTime
		finishedAt   sql.NullTime
	)

	err := row.Scan(&session.ID, &status, &errorMessage, &configJSON, &progressJSON,
		&resultsJSON, &session.CreatedAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	session.Status = models.SessionStatus(status)
	if errorMessage.Valid {
		session.ErrorMessage = errorMessage.String
	}
	if err := json.Unmarshal([]byte(configJSON), &session.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if progressJSON.Valid && progressJSON.String != "" {
		if err := json.Unmarshal([]byte(progressJSON.String), &session.Progress); err != nil {
			return nil, fmt.Errorf("unmarshaling progress: %w", err)
		}
	}
	if resultsJSON.Valid && resultsJSON.String != "" {
		session.Results = &models.SessionResults{}
		if err := json.Unmarshal([]byte(resultsJSON.String), session.Results); err != nil {
			return nil, fmt.Errorf("unmarshaling results: %w", err)
		}
	}
	if startedAt.Valid {
		session.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		session.FinishedAt = finishedAt.Time
	}
	return &session, nil
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
