package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/rules"
	"chessrules/internal/server/storage"
)

// CreateGame registers a new game at initialFEN with pre-constructed players
func (s *Service) CreateGame(id string, whitePlayer, blackPlayer *core.Player, initialFEN string) (*game.Game, error) {
	g, err := game.New(initialFEN, whitePlayer, blackPlayer)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; exists {
		return nil, fmt.Errorf("game %s already exists", id)
	}
	s.games[id] = g

	s.log.Info().Str("game", id).Str("fen", g.InitialFEN()).Msg("game created")

	if s.store != nil {
		s.store.RecordNewGame(storage.GameRecord{
			GameID:          id,
			InitialFEN:      g.InitialFEN(),
			WhitePlayerID:   whitePlayer.ID,
			WhitePlayerName: whitePlayer.Name,
			BlackPlayerID:   blackPlayer.ID,
			BlackPlayerName: blackPlayer.Name,
			StartTimeUTC:    time.Now().UTC(),
		})
	}

	return g, nil
}

// UpdatePlayers replaces players in an existing game
func (s *Service) UpdatePlayers(gameID string, whitePlayer, blackPlayer *core.Player) error {
	return s.withGame(gameID, func(g *game.Game) error {
		g.UpdatePlayers(whitePlayer, blackPlayer)
		if s.store != nil {
			s.store.UpdatePlayers(storage.GameRecord{
				GameID:          gameID,
				WhitePlayerID:   whitePlayer.ID,
				WhitePlayerName: whitePlayer.Name,
				BlackPlayerID:   blackPlayer.ID,
				BlackPlayerName: blackPlayer.Name,
			})
		}
		return nil
	})
}

// GenerateGameID creates a new unique game ID
func (s *Service) GenerateGameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// Select picks up the piece on sq for the side to move
func (s *Service) Select(gameID string, sq board.Square) (rules.Selection, error) {
	var sel rules.Selection
	err := s.withGame(gameID, func(g *game.Game) error {
		var err error
		sel, err = g.Select(sq)
		return err
	})
	return sel, err
}

// Deselect drops the current selection
func (s *Service) Deselect(gameID string) error {
	return s.withGame(gameID, func(g *game.Game) error {
		return g.Deselect()
	})
}

// Move sends the selected piece to dst. Completed plies are persisted and
// announced to waiters. A non-nil view sees the game under the same write
// lock, so what it reads matches res.
func (s *Service) Move(gameID string, dst board.Square, view func(*game.Game, rules.Result)) (rules.Result, error) {
	var res rules.Result
	err := s.withGame(gameID, func(g *game.Game) error {
		var err error
		if res, err = g.Move(dst); err != nil {
			return err
		}
		if res.Phase != core.PhasePawnPromotion {
			s.completePly(gameID, g, res)
		}
		if view != nil {
			view(g, res)
		}
		return nil
	})
	return res, err
}

// Promote finishes a move held on the last rank; view behaves as in Move
func (s *Service) Promote(gameID string, kind core.Kind, view func(*game.Game, rules.Result)) (rules.Result, error) {
	var res rules.Result
	err := s.withGame(gameID, func(g *game.Game) error {
		var err error
		if res, err = g.Promote(kind); err != nil {
			return err
		}
		s.completePly(gameID, g, res)
		if view != nil {
			view(g, res)
		}
		return nil
	})
	return res, err
}

// completePly runs with the write lock held
func (s *Service) completePly(gameID string, g *game.Game, res rules.Result) {
	moves := g.Moves()
	n := len(moves)

	s.log.Debug().
		Str("game", gameID).
		Str("move", moves[n-1]).
		Str("situation", res.Situation.String()).
		Msg("ply completed")

	s.waiter.NotifyGame(gameID, n)

	if s.store != nil {
		s.store.RecordMove(storage.MoveRecord{
			GameID:       gameID,
			MoveNumber:   n,
			MoveUCI:      moves[n-1],
			FENAfterMove: g.CurrentSnapshot().FEN,
			PlayerColor:  res.Mover.String(),
			Situation:    res.Situation.String(),
			MoveTimeUTC:  time.Now().UTC(),
		})
	}
}

// UndoMoves removes the specified number of plies from game history
func (s *Service) UndoMoves(gameID string, count int) error {
	return s.withGame(gameID, func(g *game.Game) error {
		originalMoveCount := len(g.Moves())

		if err := g.UndoMoves(count); err != nil {
			return err
		}

		remaining := len(g.Moves())
		s.waiter.NotifyGame(gameID, remaining)

		if s.store != nil && remaining < originalMoveCount {
			s.store.DeleteUndoneMoves(gameID, remaining)
		}
		return nil
	})
}

// DeleteGame removes a game from memory and storage
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	// Notify and remove all waiters before deletion
	s.waiter.RemoveGame(gameID)
	delete(s.games, gameID)

	if s.store != nil {
		s.store.DeleteGame(gameID)
	}
	s.log.Info().Str("game", gameID).Msg("game deleted")
	return nil
}
