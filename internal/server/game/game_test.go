package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
)

func newGame(t *testing.T, fen string) *Game {
	t.Helper()
	white := core.NewPlayer(core.PlayerConfig{}, core.ColorWhite)
	black := core.NewPlayer(core.PlayerConfig{Name: "Opponent"}, core.ColorBlack)
	g, err := New(fen, white, black)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func step(t *testing.T, g *Game, from, to string) {
	t.Helper()
	f, _ := board.ParseSquare(from)
	d, _ := board.ParseSquare(to)
	if _, err := g.Select(f); err != nil {
		t.Fatalf("Select(%s): %v", from, err)
	}
	if _, err := g.Move(d); err != nil {
		t.Fatalf("Move(%s): %v", to, err)
	}
}

func TestNew_Defaults(t *testing.T) {
	g := newGame(t, "")
	if g.InitialFEN() != board.StartingFEN {
		t.Fatalf("expected starting FEN, got %s", g.InitialFEN())
	}
	if g.NextPlayer().Name != "White" {
		t.Fatalf("default white name, got %q", g.NextPlayer().Name)
	}
	if g.GetPlayer(core.ColorBlack).Name != "Opponent" {
		t.Fatalf("black name not kept")
	}
	if len(g.Moves()) != 0 || g.UndoableMoves() != 0 {
		t.Fatalf("fresh game has history")
	}
	if _, err := New("not a fen", nil, nil); err == nil {
		t.Fatalf("expected FEN error")
	}
}

func TestMoveLogAndUndo(t *testing.T) {
	g := newGame(t, "")
	step(t, g, "e2", "e4")
	step(t, g, "e7", "e5")
	step(t, g, "g1", "f3")

	if diff := cmp.Diff([]string{"e2e4", "e7e5", "g1f3"}, g.Moves()); diff != "" {
		t.Fatalf("move log mismatch (-want +got):\n%s", diff)
	}
	if g.NextTurnColor() != core.ColorBlack || g.CurrentSnapshot().PlayerID != g.GetPlayer(core.ColorBlack).ID {
		t.Fatalf("snapshot does not point at Black")
	}
	if lr := g.LastResult(); lr == nil || lr.Move != "g1f3" || lr.PlayerColor != core.ColorWhite {
		t.Fatalf("unexpected last result %+v", lr)
	}

	if err := g.UndoMoves(4); err == nil {
		t.Fatalf("expected error undoing past the start")
	}
	if err := g.UndoMoves(0); err == nil {
		t.Fatalf("expected error for zero count")
	}
	if err := g.UndoMoves(2); err != nil {
		t.Fatalf("UndoMoves(2): %v", err)
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if g.CurrentFEN() != want {
		t.Fatalf("FEN after undo\n got: %s\nwant: %s", g.CurrentFEN(), want)
	}
	if g.LastResult() != nil {
		t.Fatalf("last result should be cleared by undo")
	}

	// the restored engine still knows about the en-passant window and rights
	step(t, g, "d7", "d5")
	step(t, g, "e4", "e5")
	step(t, g, "f7", "f5")
	e5, _ := board.ParseSquare("e5")
	f6, _ := board.ParseSquare("f6")
	if !containsSquare(g.Engine().LegalMoves(e5), f6) {
		t.Fatalf("expected exf6 en passant to be available")
	}
}

func TestPromotionHoldsMove(t *testing.T) {
	g := newGame(t, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	step(t, g, "e7", "e8")

	if len(g.Moves()) != 0 {
		t.Fatalf("move recorded before promotion")
	}
	if g.UndoableMoves() != 1 {
		t.Fatalf("held move should be undoable")
	}

	res, err := g.Promote(core.KindKnight)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if diff := cmp.Diff([]string{"e7e8n"}, g.Moves()); diff != "" {
		t.Fatalf("move log mismatch (-want +got):\n%s", diff)
	}
	if len(res.Delta) != 2 {
		t.Fatalf("full ply delta should cover e7 and e8, got %+v", res.Delta)
	}
	e8, _ := board.ParseSquare("e8")
	for _, c := range res.Delta {
		if c.Square == e8 && c.Occupant.Kind != core.KindKnight {
			t.Fatalf("e8 should hold the knight, got %+v", c.Occupant)
		}
	}
	if g.LastResult().Promotion != core.KindKnight {
		t.Fatalf("last result lost the promotion")
	}
}

func TestUndoHeldPromotion(t *testing.T) {
	start := "8/4P3/8/8/8/8/k7/4K3 w - - 0 1"
	g := newGame(t, start)
	step(t, g, "e7", "e8")

	if err := g.UndoMoves(1); err != nil {
		t.Fatalf("UndoMoves: %v", err)
	}
	if g.CurrentFEN() != start {
		t.Fatalf("expected start position, got %s", g.CurrentFEN())
	}
	if g.Engine().Phase() != core.PhaseChoosingPiece {
		t.Fatalf("expected choosing_piece after undo, got %s", g.Engine().Phase())
	}
}

func TestUpdatePlayers(t *testing.T) {
	g := newGame(t, "")
	w := core.NewPlayer(core.PlayerConfig{Name: "Ann"}, core.ColorWhite)
	b := core.NewPlayer(core.PlayerConfig{Name: "Bo"}, core.ColorBlack)
	g.UpdatePlayers(w, b)

	if g.CurrentSnapshot().PlayerID != w.ID {
		t.Fatalf("snapshot player not refreshed")
	}
}

func containsSquare(list []board.Square, sq board.Square) bool {
	for _, s := range list {
		if s == sq {
			return true
		}
	}
	return false
}
