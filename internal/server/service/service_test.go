package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/rules"
	"chessrules/internal/server/storage"
)

func square(t *testing.T, s string) board.Square {
	t.Helper()
	sq, err := board.ParseSquare(s)
	if err != nil {
		t.Fatal(err)
	}
	return sq
}

func newService(t *testing.T, store *storage.Store) (*Service, string) {
	t.Helper()
	svc := New(store, zerolog.Nop())
	t.Cleanup(func() { svc.Shutdown(time.Second) })

	id := svc.GenerateGameID()
	white := core.NewPlayer(core.PlayerConfig{}, core.ColorWhite)
	black := core.NewPlayer(core.PlayerConfig{}, core.ColorBlack)
	if _, err := svc.CreateGame(id, white, black, ""); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return svc, id
}

func move(t *testing.T, svc *Service, id, from, to string) rules.Result {
	t.Helper()
	if _, err := svc.Select(id, square(t, from)); err != nil {
		t.Fatalf("Select(%s): %v", from, err)
	}
	res, err := svc.Move(id, square(t, to), nil)
	if err != nil {
		t.Fatalf("Move(%s): %v", to, err)
	}
	return res
}

func TestService_GameNotFound(t *testing.T) {
	svc, _ := newService(t, nil)

	if _, err := svc.Select("nope", square(t, "e2")); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if err := svc.DeleteGame("nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if svc.GetStorageHealth() != "disabled" {
		t.Fatalf("expected disabled storage")
	}
}

func TestService_DuplicateAndBadFEN(t *testing.T) {
	svc, id := newService(t, nil)
	p := core.NewPlayer(core.PlayerConfig{}, core.ColorWhite)

	if _, err := svc.CreateGame(id, p, p, ""); err == nil {
		t.Fatalf("expected duplicate ID error")
	}
	if _, err := svc.CreateGame("other", p, p, "8/8/8 w - - 0 1"); err == nil {
		t.Fatalf("expected FEN error")
	}
	if svc.GameCount() != 1 {
		t.Fatalf("expected 1 game, got %d", svc.GameCount())
	}
}

func TestService_EngineErrorsPassThrough(t *testing.T) {
	svc, id := newService(t, nil)

	if _, err := svc.Select(id, square(t, "e7")); !errors.Is(err, rules.ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if _, err := svc.Move(id, square(t, "e4"), nil); !errors.Is(err, rules.ErrPhaseViolation) {
		t.Fatalf("expected ErrPhaseViolation, got %v", err)
	}
}

func TestService_MoveViewSeesSamePly(t *testing.T) {
	svc, id := newService(t, nil)
	if _, err := svc.Select(id, square(t, "g1")); err != nil {
		t.Fatal(err)
	}

	var fen string
	var moves []string
	res, err := svc.Move(id, square(t, "f3"), func(g *game.Game, r rules.Result) {
		fen = g.CurrentFEN()
		moves = g.Moves()
		if r.To != square(t, "f3") {
			t.Errorf("view got result for %s", r.To)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"g1f3"}, moves); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if fen != "rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R b KQkq - 1 1" || res.Turn != core.ColorBlack {
		t.Fatalf("view saw %s after %+v", fen, res)
	}

	called := false
	if _, err := svc.Move(id, square(t, "e4"), func(*game.Game, rules.Result) { called = true }); err == nil {
		t.Fatalf("expected a phase error")
	}
	if called {
		t.Fatalf("view ran for a rejected move")
	}
}

func TestService_WaitersWakeOnMove(t *testing.T) {
	svc, id := newService(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := svc.RegisterWait(ctx, id, 0)

	// a selection is not a ply
	if _, err := svc.Select(id, square(t, "e2")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
		t.Fatalf("woken without a completed ply")
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := svc.Move(id, square(t, "e4"), nil); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("waiter not notified")
	}
}

func TestService_WaitersWakeOnDelete(t *testing.T) {
	svc, id := newService(t, nil)

	ch := svc.RegisterWait(context.Background(), id, 0)
	if err := svc.DeleteGame(id); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("waiter not released on delete")
	}
}

func TestService_PersistsPlies(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "svc.db"), false, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	svc, id := newService(t, store)

	move(t, svc, id, "f2", "f3")
	move(t, svc, id, "e7", "e5")
	move(t, svc, id, "g2", "g4")
	res := move(t, svc, id, "d8", "h4")
	if res.Situation != core.SituationCheckmate {
		t.Fatalf("expected checkmate, got %s", res.Situation)
	}
	if err := svc.UndoMoves(id, 1); err != nil {
		t.Fatalf("UndoMoves: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	records, err := store.QueryMoves(id)
	if err != nil {
		t.Fatalf("QueryMoves: %v", err)
	}
	var got []string
	for _, r := range records {
		got = append(got, r.PlayerColor+":"+r.MoveUCI)
	}
	if diff := cmp.Diff([]string{"w:f2f3", "b:e7e5", "w:g2g4"}, got); diff != "" {
		t.Fatalf("persisted moves mismatch (-want +got):\n%s", diff)
	}

	err = svc.ViewGame(id, func(g *game.Game) error {
		if g.Situation() != core.SituationCasual {
			t.Errorf("undo should reopen the game, got %s", g.Situation())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ViewGame: %v", err)
	}
	if svc.GetStorageHealth() != "ok" {
		t.Fatalf("storage health %s", svc.GetStorageHealth())
	}
}

func TestService_PromotionPersistsOnce(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "promo.db"), false, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	svc := New(store, zerolog.Nop())
	t.Cleanup(func() { svc.Shutdown(time.Second) })

	p := core.NewPlayer(core.PlayerConfig{}, core.ColorWhite)
	if _, err := svc.CreateGame("g", p, p, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1"); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	move(t, svc, "g", "e7", "e8")
	if _, err := svc.Promote("g", core.KindRook, nil); err != nil {
		t.Fatalf("Promote: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	records, err := store.QueryMoves("g")
	if err != nil {
		t.Fatalf("QueryMoves: %v", err)
	}
	if len(records) != 1 || records[0].MoveUCI != "e7e8r" || records[0].FENAfterMove != "4R3/8/8/8/8/8/k7/4K3 b - - 0 1" {
		t.Fatalf("unexpected records %+v", records)
	}
}
