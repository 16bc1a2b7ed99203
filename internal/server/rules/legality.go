package rules

import (
	"sort"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
)

// LegalMoves filters the pseudo-legal moves of p, plus any en-passant
// capture, down to those that do not leave its own king attacked. Each
// candidate is tried on a fresh clone of b. The result is sorted row-major.
func LegalMoves(b *board.Board, p *board.Piece) []board.Square {
	if p == nil {
		return nil
	}
	candidates := p.PseudoLegalMoves(b)
	candidates = append(candidates, enPassantTargets(b, p)...)

	legal := make([]board.Square, 0, len(candidates))
	for _, dst := range candidates {
		if isCastling(p, dst) && !castlingAllowed(b, p, dst) {
			continue
		}
		sim := b.Clone()
		applyMove(sim, sim.At(p.Square), dst)
		if !IsInCheck(sim, p.Color) {
			legal = append(legal, dst)
		}
	}

	sort.Slice(legal, func(i, j int) bool {
		if legal[i].Row != legal[j].Row {
			return legal[i].Row < legal[j].Row
		}
		return legal[i].Col < legal[j].Col
	})
	return legal
}

// enPassantTargets yields the square behind an adjacent enemy pawn that
// double-advanced on the previous ply
func enPassantTargets(b *board.Board, p *board.Piece) []board.Square {
	if p.Kind != core.KindPawn {
		return nil
	}
	var out []board.Square
	for _, dc := range []int{-1, 1} {
		beside := b.At(p.Square.Offset(0, dc))
		if beside == nil || beside.Kind != core.KindPawn || beside.Color == p.Color || !beside.DoubleStep {
			continue
		}
		behind := beside.Square.Offset(board.PawnDirection(p.Color), 0)
		if behind.Valid() && b.At(behind) == nil {
			out = append(out, behind)
		}
	}
	return out
}

func isCastling(p *board.Piece, dst board.Square) bool {
	if p.Kind != core.KindKing || dst.Row != p.Square.Row {
		return false
	}
	d := dst.Col - p.Square.Col
	return d == 2 || d == -2
}

// castlingAllowed vetoes castling when the king's current, transit or landing
// square is attacked
func castlingAllowed(b *board.Board, king *board.Piece, dst board.Square) bool {
	step := 1
	if dst.Col < king.Square.Col {
		step = -1
	}
	enemy := core.OppositeColor(king.Color)
	for i := 0; i <= 2; i++ {
		if IsAttacked(b, king.Square.Offset(0, i*step), enemy) {
			return false
		}
	}
	return true
}
