package rules

import (
	"golang.org/x/exp/slices"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
)

// IsAttacked reports whether any piece of color by threatens sq
func IsAttacked(b *board.Board, sq board.Square, by core.Color) bool {
	for _, p := range b.Pieces(by) {
		if slices.Contains(p.Attacks(b), sq) {
			return true
		}
	}
	return false
}

// IsInCheck reports whether the king of color is attacked on b
func IsInCheck(b *board.Board, color core.Color) bool {
	king := b.King(color)
	if king == nil {
		return false
	}
	return IsAttacked(b, king.Square, core.OppositeColor(color))
}

// RecordCheck refreshes the display check flag of both kings
func RecordCheck(b *board.Board) {
	for _, color := range []core.Color{core.ColorWhite, core.ColorBlack} {
		if king := b.King(color); king != nil {
			king.InCheck = IsInCheck(b, color)
		}
	}
}

// Evaluate adjudicates the situation for color, the side to move
func Evaluate(b *board.Board, color core.Color) core.Situation {
	inCheck := IsInCheck(b, color)
	if CountLegalMoves(b, color) == 0 {
		if inCheck {
			return core.SituationCheckmate
		}
		return core.SituationStalemate
	}
	if inCheck {
		return core.SituationCheck
	}
	return core.SituationCasual
}

// CountLegalMoves sums the legal moves of every piece of color
func CountLegalMoves(b *board.Board, color core.Color) int {
	total := 0
	for _, p := range b.Pieces(color) {
		total += len(LegalMoves(b, p))
	}
	return total
}
