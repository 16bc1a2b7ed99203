package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chess.db")
	s, err := NewStore(path, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestStore_GamesAndMoves(t *testing.T) {
	s := openStore(t)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s.RecordNewGame(GameRecord{
		GameID:          "g1",
		InitialFEN:      "start",
		WhitePlayerID:   "w1",
		WhitePlayerName: "White",
		BlackPlayerID:   "b1",
		BlackPlayerName: "Black",
		StartTimeUTC:    start,
	})
	s.RecordMove(MoveRecord{GameID: "g1", MoveNumber: 1, MoveUCI: "e2e4", FENAfterMove: "f1", PlayerColor: "w", Situation: "casual", MoveTimeUTC: start})
	s.RecordMove(MoveRecord{GameID: "g1", MoveNumber: 2, MoveUCI: "e7e5", FENAfterMove: "f2", PlayerColor: "b", Situation: "casual", MoveTimeUTC: start})
	s.RecordMove(MoveRecord{GameID: "g1", MoveNumber: 3, MoveUCI: "d1h5", FENAfterMove: "f3", PlayerColor: "w", Situation: "casual", MoveTimeUTC: start})
	flush(t, s)

	if !s.IsHealthy() {
		t.Fatalf("store degraded")
	}

	games, err := s.QueryGames("*", "b1")
	if err != nil {
		t.Fatalf("QueryGames: %v", err)
	}
	if len(games) != 1 || games[0].WhitePlayerName != "White" || !games[0].StartTimeUTC.Equal(start) {
		t.Fatalf("unexpected games %+v", games)
	}

	s.DeleteUndoneMoves("g1", 1)
	flush(t, s)

	moves, err := s.QueryMoves("g1")
	if err != nil {
		t.Fatalf("QueryMoves: %v", err)
	}
	var ucis []string
	for _, m := range moves {
		ucis = append(ucis, m.MoveUCI)
	}
	if diff := cmp.Diff([]string{"e2e4"}, ucis); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}

	s.UpdatePlayers(GameRecord{GameID: "g1", WhitePlayerID: "w2", WhitePlayerName: "Ann", BlackPlayerID: "b1", BlackPlayerName: "Black"})
	flush(t, s)
	if games, _ := s.QueryGames("g1", ""); len(games) != 1 || games[0].WhitePlayerID != "w2" {
		t.Fatalf("players not updated: %+v", games)
	}

	s.DeleteGame("g1")
	flush(t, s)
	if games, _ := s.QueryGames("", ""); len(games) != 0 {
		t.Fatalf("game not deleted: %+v", games)
	}
	if moves, _ := s.QueryMoves("g1"); len(moves) != 0 {
		t.Fatalf("moves not cascaded: %+v", moves)
	}
}

func TestStore_DegradesOnFailedWrite(t *testing.T) {
	s := openStore(t)

	// no parent game row, the foreign key rejects it
	s.RecordMove(MoveRecord{GameID: "missing", MoveNumber: 1, MoveUCI: "e2e4", FENAfterMove: "x", PlayerColor: "w", Situation: "casual", MoveTimeUTC: time.Now().UTC()})

	deadline := time.Now().Add(5 * time.Second)
	for s.IsHealthy() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsHealthy() {
		t.Fatalf("expected store to degrade")
	}
}

func TestStore_DeleteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.db")
	s, err := NewStore(path, true, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	if err := s.DeleteDB(); err != nil {
		t.Fatalf("DeleteDB: %v", err)
	}
	if matches, _ := filepath.Glob(path); len(matches) != 0 {
		t.Fatalf("database file still present")
	}
}
