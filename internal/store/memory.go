package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	apperrors "strategy-trader/internal/errors"
	"strategy-trader/internal/models"
)

// MemoryStore is an in-memory SessionStore for tests and ephemeral runs.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
	}
}

// Save stores a deep copy of the session.
func (m *MemoryStore) Save(ctx context.Context, session *models.Session) error {
	copied, err := copySession(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = copied
	return nil
}

// Load returns a deep copy of the session with the given id.
func (m *MemoryStore) Load(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return copySession(session)
}

// Delete removes the session with the given id.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// List returns session summaries, newest first.
func (m *MemoryStore) List(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ordered := make([]*models.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		ordered = append(ordered, session)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	summaries := make([]models.SessionSummary, 0, len(ordered))
	for _, session := range ordered {
		symbols := make([]string, len(session.Config.Symbols))
		copy(symbols, session.Config.Symbols)
		summaries = append(summaries, models.SessionSummary{
			ID:         session.ID,
			Mode:       session.Config.Mode,
			Symbols:    symbols,
			Status:     session.Status,
			CreatedAt:  session.CreatedAt,
			FinishedAt: session.FinishedAt,
			TotalPnL:   session.Progress.TotalPnL,
			Trades:     session.Progress.TotalTrades,
		})
	}
	return summaries, nil
}

// LoadByStatus returns all sessions in the given status, newest first.
func (m *MemoryStore) LoadByStatus(ctx context.Context, status models.SessionStatus) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.Session
	for _, session := range m.sessions {
		if session.Status != status {
			continue
		}
		copied, err := copySession(session)
		if err != nil {
			return nil, err
		}
		matched = append(matched, copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func copySession(session *models.Session) (*models.Session, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, apperrors.Wrap(err, "copying session")
	}
	var copied models.Session
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, apperrors.Wrap(err, "copying session")
	}
	return &copied, nil
}
