// Package rules adjudicates chess one ply at a time: piece selection, legal
// move filtering, move application, promotion and check/mate/stalemate.
//
// An Engine is not safe for concurrent use; callers serialize access.
package rules

import (
	"fmt"

	"golang.org/x/exp/slices"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
)

// Engine owns one live board and the turn state machine around it.
//
// A pawn that just advanced two squares stays capturable en passant until the
// next ply is applied; selecting and deselecting pieces in between keeps it.
type Engine struct {
	board     *board.Board
	turn      core.Color
	phase     core.Phase
	situation core.Situation

	selected      *board.Piece
	selectedMoves []board.Square

	enPassant *board.Piece // pawn capturable en passant on this ply
	promotion *board.Piece // pawn waiting in PhasePawnPromotion

	halfmove int
	fullmove int
}

// Selection is returned by a successful Select
type Selection struct {
	Square board.Square
	Piece  board.Occupant
	Moves  []board.Square
}

// SquareChange is one entry of a board delta
type SquareChange struct {
	Square   board.Square
	Occupant board.Occupant
}

// Result describes one accepted Move or Promote
type Result struct {
	From       board.Square
	To         board.Square
	Mover      core.Color
	Kind       core.Kind
	Captured   core.Kind
	CapturedOn board.Square
	Castled    bool
	CastleSide board.CastleSide
	EnPassant  bool
	Promotion  core.Kind

	Delta     []SquareChange
	Situation core.Situation
	Phase     core.Phase
	Turn      core.Color
}

// New starts a game from the standard arrangement
func New() *Engine {
	return NewFromPosition(&board.Position{
		Board:    board.NewStandard(),
		Turn:     core.ColorWhite,
		Fullmove: 1,
	})
}

// NewFromFEN starts a game from a FEN string. A position where the side
// not on move is already in check is rejected, since its king could be taken.
func NewFromFEN(fen string) (*Engine, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	if idle := core.OppositeColor(pos.Turn); IsInCheck(pos.Board, idle) {
		return nil, fmt.Errorf("invalid FEN: %s king is in check with %s to move", idle.Name(), pos.Turn.Name())
	}
	return NewFromPosition(pos), nil
}

// NewFromPosition takes ownership of pos.Board
func NewFromPosition(pos *board.Position) *Engine {
	e := &Engine{
		board:    pos.Board,
		turn:     pos.Turn,
		phase:    core.PhaseChoosingPiece,
		halfmove: pos.Halfmove,
		fullmove: pos.Fullmove,
	}
	if e.fullmove < 1 {
		e.fullmove = 1
	}
	for _, p := range e.board.Pieces(core.OppositeColor(e.turn)) {
		if p.Kind == core.KindPawn && p.DoubleStep {
			e.enPassant = p
		}
	}
	RecordCheck(e.board)
	e.situation = Evaluate(e.board, e.turn)
	return e
}

func (e *Engine) Turn() core.Color { return e.turn }

func (e *Engine) Phase() core.Phase { return e.phase }

func (e *Engine) Situation() core.Situation { return e.situation }

// Board exposes the live board; callers must not mutate it
func (e *Engine) Board() *board.Board { return e.board }

// EnPassantTarget is the pawn that may be captured en passant this ply
func (e *Engine) EnPassantTarget() *board.Piece { return e.enPassant }

// Selected returns the selected piece's square and legal moves, if any
func (e *Engine) Selected() (board.Square, []board.Square, bool) {
	if e.selected == nil {
		return board.Square{}, nil, false
	}
	return e.selected.Square, slices.Clone(e.selectedMoves), true
}

// PromotionSquare returns where a pawn waits for promotion
func (e *Engine) PromotionSquare() (board.Square, bool) {
	if e.promotion == nil {
		return board.Square{}, false
	}
	return e.promotion.Square, true
}

// PieceAt returns the occupant of sq by value
func (e *Engine) PieceAt(sq board.Square) (board.Occupant, bool) {
	p := e.board.At(sq)
	if p == nil {
		return board.Occupant{}, false
	}
	return board.Occupant{Kind: p.Kind, Color: p.Color}, true
}

// LegalMoves computes the legal set of whatever stands on sq
func (e *Engine) LegalMoves(sq board.Square) []board.Square {
	return LegalMoves(e.board, e.board.At(sq))
}

// AllLegalMoves maps each movable piece of the side to move to its targets
func (e *Engine) AllLegalMoves() map[board.Square][]board.Square {
	out := make(map[board.Square][]board.Square)
	for _, p := range e.board.Pieces(e.turn) {
		if moves := LegalMoves(e.board, p); len(moves) > 0 {
			out[p.Square] = moves
		}
	}
	return out
}

// Position exposes the live board with the current counters
func (e *Engine) Position() *board.Position {
	return &board.Position{
		Board:    e.board,
		Turn:     e.turn,
		Halfmove: e.halfmove,
		Fullmove: e.fullmove,
	}
}

func (e *Engine) FEN() string {
	return e.Position().FEN()
}

// Select picks the piece on sq for the side to move
func (e *Engine) Select(sq board.Square) (Selection, error) {
	if err := e.require(core.PhaseChoosingPiece); err != nil {
		return Selection{}, err
	}

	p := e.board.At(sq)
	if p == nil {
		return Selection{}, fmt.Errorf("%w: %s is empty", ErrInvalidSelection, sq)
	}
	if p.Color != e.turn {
		return Selection{}, fmt.Errorf("%w: %s belongs to %s", ErrInvalidSelection, sq, p.Color.Name())
	}

	moves := LegalMoves(e.board, p)
	if len(moves) == 0 {
		return Selection{}, fmt.Errorf("%w: %s has no legal moves", ErrInvalidSelection, sq)
	}

	e.selected = p
	e.selectedMoves = moves
	e.phase = core.PhaseMovingAPiece

	return Selection{
		Square: sq,
		Piece:  board.Occupant{Kind: p.Kind, Color: p.Color},
		Moves:  slices.Clone(moves),
	}, nil
}

// Deselect drops the current selection without touching the board
func (e *Engine) Deselect() error {
	if err := e.require(core.PhaseMovingAPiece); err != nil {
		return err
	}
	e.clearSelection()
	e.phase = core.PhaseChoosingPiece
	return nil
}

// Move sends the selected piece to dst
func (e *Engine) Move(dst board.Square) (Result, error) {
	if err := e.require(core.PhaseMovingAPiece); err != nil {
		return Result{}, err
	}
	if !slices.Contains(e.selectedMoves, dst) {
		return Result{}, fmt.Errorf("%w: %s cannot reach %s", ErrIllegalDestination, e.selected.Square, dst)
	}

	before := e.board.Occupancy()
	p := e.selected
	res := Result{From: p.Square, To: dst, Mover: e.turn, Kind: p.Kind}

	fx := applyMove(e.board, p, dst)
	if fx.captured != nil {
		res.Captured = fx.captured.Kind
		res.CapturedOn = fx.capturedOn
	}
	res.EnPassant = fx.enPassant
	res.Castled = fx.castled
	res.CastleSide = fx.castleSide

	if p.Kind == core.KindPawn || fx.captured != nil {
		e.halfmove = 0
	} else {
		e.halfmove++
	}

	RecordCheck(e.board)
	e.clearSelection()

	e.enPassant = nil
	if p.DoubleStep {
		e.enPassant = p
	}

	if pawn := promotionCandidate(e.board, e.turn); pawn != nil {
		e.promotion = pawn
		e.phase = core.PhasePawnPromotion
		// a legal move never leaves the mover in check; the opponent is
		// adjudicated once the piece is chosen
		e.situation = core.SituationCasual
	} else {
		e.endTurn()
	}

	e.finish(&res, before)
	return res, nil
}

// Promote replaces the pawn waiting on the far rank with a piece of kind
func (e *Engine) Promote(kind core.Kind) (Result, error) {
	if err := e.require(core.PhasePawnPromotion); err != nil {
		return Result{}, err
	}
	if !kind.IsPromotionTarget() {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidPromotion, kind)
	}

	before := e.board.Occupancy()
	pawn := e.promotion
	sq := pawn.Square

	e.board.Replace(board.NewPiece(kind, pawn.Color, sq))
	RecordCheck(e.board)
	e.promotion = nil

	res := Result{From: sq, To: sq, Mover: e.turn, Kind: core.KindPawn, Promotion: kind}
	e.endTurn()
	e.finish(&res, before)
	return res, nil
}

// require rejects operations after the game ended or outside phase
func (e *Engine) require(phase core.Phase) error {
	if e.situation.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrGameOver, e.situation)
	}
	if e.phase != phase {
		return fmt.Errorf("%w: in %s, need %s", ErrPhaseViolation, e.phase, phase)
	}
	return nil
}

func (e *Engine) clearSelection() {
	e.selected = nil
	e.selectedMoves = nil
}

// endTurn hands the move to the opponent and adjudicates their position
func (e *Engine) endTurn() {
	if e.turn == core.ColorBlack {
		e.fullmove++
	}
	e.turn = core.OppositeColor(e.turn)
	e.phase = core.PhaseChoosingPiece
	e.situation = Evaluate(e.board, e.turn)
}

func (e *Engine) finish(res *Result, before board.Occupancy) {
	after := e.board.Occupancy()
	for _, sq := range before.Changed(after) {
		res.Delta = append(res.Delta, SquareChange{Square: sq, Occupant: after[sq.Row][sq.Col]})
	}
	res.Situation = e.situation
	res.Phase = e.phase
	res.Turn = e.turn
}
