package game

import (
	"fmt"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
	"chessrules/internal/server/rules"
)

// Snapshot is the position after one completed ply
type Snapshot struct {
	FEN           string     `json:"fen"`
	PreviousMove  string     `json:"previousMove"`
	NextTurnColor core.Color `json:"nextTurnColor"`
	PlayerID      string     `json:"playerId"` // ID of the player whose turn it is
}

// MoveResult tracks the outcome of the last completed ply
type MoveResult struct {
	Move        string         `json:"move"`
	PlayerColor core.Color     `json:"playerColor"`
	Situation   core.Situation `json:"situation"`
	Captured    core.Kind      `json:"captured,omitempty"`
	Castled     bool           `json:"castled,omitempty"`
	EnPassant   bool           `json:"enPassant,omitempty"`
	Promotion   core.Kind      `json:"promotion,omitempty"`
}

// Game wraps a live engine with players and a per-ply snapshot history.
// Not safe for concurrent use; the service serializes access.
type Game struct {
	engine     *rules.Engine
	snapshots  []Snapshot
	players    map[core.Color]*core.Player
	lastResult *MoveResult

	// move that reached the last rank and waits for Promote
	pending    string
	pendingRes rules.Result
}

// New starts a game at initialFEN, the standard position when empty
func New(initialFEN string, whitePlayer, blackPlayer *core.Player) (*Game, error) {
	if initialFEN == "" {
		initialFEN = board.StartingFEN
	}
	e, err := rules.NewFromFEN(initialFEN)
	if err != nil {
		return nil, err
	}

	g := &Game{
		engine: e,
		players: map[core.Color]*core.Player{
			core.ColorWhite: whitePlayer,
			core.ColorBlack: blackPlayer,
		},
	}
	g.snapshots = []Snapshot{{
		FEN:           e.FEN(),
		NextTurnColor: e.Turn(),
		PlayerID:      g.players[e.Turn()].ID,
	}}
	return g, nil
}

// Engine exposes the live engine for queries
func (g *Game) Engine() *rules.Engine {
	return g.engine
}

func (g *Game) Select(sq board.Square) (rules.Selection, error) {
	return g.engine.Select(sq)
}

func (g *Game) Deselect() error {
	return g.engine.Deselect()
}

// Move forwards to the engine. A completed ply is appended to the history;
// a move onto the last rank is held until Promote.
func (g *Game) Move(dst board.Square) (rules.Result, error) {
	res, err := g.engine.Move(dst)
	if err != nil {
		return res, err
	}

	uci := res.From.String() + res.To.String()
	if res.Phase == core.PhasePawnPromotion {
		g.pending = uci
		g.pendingRes = res
		return res, nil
	}
	g.record(uci, res)
	return res, nil
}

// Promote completes a held move. The returned delta covers the whole ply.
func (g *Game) Promote(kind core.Kind) (rules.Result, error) {
	res, err := g.engine.Promote(kind)
	if err != nil {
		return res, err
	}

	full := g.pendingRes
	full.Promotion = res.Promotion
	full.Delta = mergeDelta(full.Delta, res.Delta)
	full.Situation, full.Phase, full.Turn = res.Situation, res.Phase, res.Turn

	g.record(g.pending+string(kind.Letter()), full)
	g.pending = ""
	g.pendingRes = rules.Result{}
	return full, nil
}

// mergeDelta overlays later square changes onto earlier ones
func mergeDelta(first, second []rules.SquareChange) []rules.SquareChange {
	out := append([]rules.SquareChange(nil), first...)
	for _, c := range second {
		replaced := false
		for i := range out {
			if out[i].Square == c.Square {
				out[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	return out
}

func (g *Game) record(uci string, res rules.Result) {
	next := g.engine.Turn()
	g.snapshots = append(g.snapshots, Snapshot{
		FEN:           g.engine.FEN(),
		PreviousMove:  uci,
		NextTurnColor: next,
		PlayerID:      g.players[next].ID,
	})
	g.lastResult = &MoveResult{
		Move:        uci,
		PlayerColor: res.Mover,
		Situation:   res.Situation,
		Captured:    res.Captured,
		Castled:     res.Castled,
		EnPassant:   res.EnPassant,
		Promotion:   res.Promotion,
	}
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

// CurrentSnapshot returns the latest completed position
func (g *Game) CurrentSnapshot() Snapshot {
	return g.snapshots[len(g.snapshots)-1]
}

// CurrentFEN returns the live position, which differs from the snapshot
// while a promotion is pending
func (g *Game) CurrentFEN() string {
	return g.engine.FEN()
}

func (g *Game) NextTurnColor() core.Color {
	return g.engine.Turn()
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextTurnColor()]
}

func (g *Game) GetPlayer(color core.Color) *core.Player {
	return g.players[color]
}

func (g *Game) Situation() core.Situation {
	return g.engine.Situation()
}

func (g *Game) UpdatePlayers(whitePlayer, blackPlayer *core.Player) {
	g.players[core.ColorWhite] = whitePlayer
	g.players[core.ColorBlack] = blackPlayer

	// Update current snapshot's PlayerID to reflect new player
	currentSnap := &g.snapshots[len(g.snapshots)-1]
	currentSnap.PlayerID = g.players[currentSnap.NextTurnColor].ID
}

// UndoableMoves counts completed plies plus a held promotion move
func (g *Game) UndoableMoves() int {
	n := len(g.snapshots) - 1
	if g.pending != "" {
		n++
	}
	return n
}

// UndoMoves takes back count plies by rebuilding the engine from an earlier
// snapshot. A move held for promotion counts as one ply.
func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}
	if available := g.UndoableMoves(); available < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, available)
	}

	keep := len(g.snapshots) - count
	if g.pending != "" {
		keep++
	}

	e, err := rules.NewFromFEN(g.snapshots[keep-1].FEN)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	g.engine = e
	g.snapshots = g.snapshots[:keep]
	g.pending = ""
	g.pendingRes = rules.Result{}
	g.lastResult = nil
	return nil
}

// Moves lists completed plies in coordinate form ("e2e4", "e7e8q")
func (g *Game) Moves() []string {
	moves := []string{}
	for i := 1; i < len(g.snapshots); i++ {
		moves = append(moves, g.snapshots[i].PreviousMove)
	}
	return moves
}

func (g *Game) InitialFEN() string {
	return g.snapshots[0].FEN
}
