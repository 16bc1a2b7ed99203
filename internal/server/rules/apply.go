package rules

import (
	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
)

// effect describes what a single applyMove did besides relocating the mover
type effect struct {
	captured   *board.Piece
	capturedOn board.Square
	enPassant  bool
	castled    bool
	castleSide board.CastleSide
}

// applyMove performs p's move to dst on b without any legality checks. It is
// used on the live board and on simulation clones alike.
func applyMove(b *board.Board, p *board.Piece, dst board.Square) effect {
	var fx effect
	from := p.Square

	// the double-step window closes after one ply
	for _, q := range b.Pieces(core.OppositeColor(p.Color)) {
		q.DoubleStep = false
	}

	switch {
	case p.Kind == core.KindPawn && dst.Col != from.Col && b.At(dst) == nil:
		fx.enPassant = true
		fx.capturedOn = board.Sq(from.Row, dst.Col)
		fx.captured = b.Remove(fx.capturedOn)

	case isCastling(p, dst):
		fx.castled = true
		fx.castleSide = board.KingSide
		step := 1
		if dst.Col < from.Col {
			fx.castleSide = board.QueenSide
			step = -1
		}
		if rook := b.OriginalRook(p.Color, fx.castleSide); rook != nil {
			b.Relocate(rook, board.Sq(from.Row, from.Col+step))
			rook.Moves++
		}
	}

	if captured := b.Relocate(p, dst); captured != nil {
		fx.captured = captured
		fx.capturedOn = dst
	}

	switch p.Kind {
	case core.KindKing, core.KindRook:
		p.Moves++
	case core.KindPawn:
		d := dst.Row - from.Row
		p.DoubleStep = d == 2 || d == -2
	}

	return fx
}

// promotionCandidate scans the far rank of color for its first pawn
func promotionCandidate(b *board.Board, color core.Color) *board.Piece {
	row := board.PromotionRow(color)
	for col := 0; col < board.Size; col++ {
		if p := b.At(board.Sq(row, col)); p != nil && p.Kind == core.KindPawn && p.Color == color {
			return p
		}
	}
	return nil
}
