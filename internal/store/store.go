// Package store provides durable persistence for session records.
package store

import (
	"context"

	"strategy-trader/internal/models"
)

// SessionStore persists Session records keyed by session id. Records survive
// process restarts so interrupted sessions can be detected and resolved on
// startup.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Load(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error

	// List returns summaries of all sessions, newest first. A limit of 0
	// means no limit.
	List(ctx context.Context, limit int) ([]models.SessionSummary, error)

	// LoadByStatus returns all sessions currently in the given status.
	LoadByStatus(ctx context.Context, status models.SessionStatus) ([]*models.Session, error)

	Close() error
}
