package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/bookswap/internal/models"
)

var (
	// ErrNotFound is returned when no session has the requested ID
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned when creating a session whose ID is taken
	ErrExists = errors.New("session already exists")
)

// Store persists intake sessions. Sessions are immutable once created.
type Store interface {
	Create(ctx context.Context, session *models.IntakeSession) error
	Get(ctx context.Context, id string) (*models.IntakeSession, error)
	List(ctx context.Context) ([]*models.IntakeSession, error)
	Close() error
}

// SessionStore keeps sessions in memory
type SessionStore struct {
	sessions map[string]*models.IntakeSession
	mu       sync.RWMutex
}

// NewMemory returns an empty in-memory store
func NewMemory() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.IntakeSession),
	}
}

func (s *SessionStore) Create(_ context.Context, session *models.IntakeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return ErrExists
	}
	s.sessions[session.ID] = clone(session)
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*models.IntakeSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	return clone(session), nil
}

// List returns all sessions, newest first
func (s *SessionStore) List(_ context.Context) ([]*models.IntakeSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.IntakeSession, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, clone(v))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *SessionStore) Close() error {
	return nil
}

func clone(s *models.IntakeSession) *models.IntakeSession {
	cp := *s
	if s.Images != nil {
		cp.Images = make([]models.ImageItem, len(s.Images))
		copy(cp.Images, s.Images)
	}
	return &cp
}

// Open returns a Store for the configured driver ("memory" or "sqlite")
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
