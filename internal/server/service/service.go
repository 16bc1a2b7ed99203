package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chessrules/internal/server/game"
	"chessrules/internal/server/storage"
)

// ErrGameNotFound is wrapped by every lookup of an unknown game ID
var ErrGameNotFound = errors.New("game not found")

// Service coordinates live games, long-poll waiters and optional storage
type Service struct {
	games  map[string]*game.Game
	mu     sync.RWMutex
	store  *storage.Store
	waiter *WaitRegistry
	log    zerolog.Logger
}

// New creates a new service instance; store may be nil
func New(store *storage.Store, log zerolog.Logger) *Service {
	return &Service{
		games:  make(map[string]*game.Game),
		store:  store,
		waiter: NewWaitRegistry(),
		log:    log.With().Str("component", "service").Logger(),
	}
}

// GetStorageHealth returns the storage component status
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait registers a client to wait for game state changes
func (s *Service) RegisterWait(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, gameID, moveCount)
}

// GameCount reports the number of live games
func (s *Service) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// ViewGame runs fn with the game under a read lock. fn must not mutate it.
func (s *Service) ViewGame(gameID string, fn func(*game.Game) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return fn(g)
}

// withGame runs fn with the game under the write lock
func (s *Service) withGame(gameID string, fn func(*game.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return fn(g)
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info().Int("games", len(s.games)).Msg("dropping live games")
	s.games = make(map[string]*game.Game)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}
