package board

import "chessrules/internal/server/core"

type generator func(p *Piece, b *Board) []Square

var generators = [core.KindKing + 1]generator{
	core.KindPawn:   pawnMoves,
	core.KindKnight: knightMoves,
	core.KindBishop: bishopMoves,
	core.KindRook:   rookMoves,
	core.KindQueen:  queenMoves,
	core.KindKing:   kingMoves,
}

type direction struct{ dr, dc int }

var (
	diagonals  = []direction{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	orthogonal = []direction{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	allAround  = append(append([]direction{}, orthogonal...), diagonals...)

	knightJumps = []direction{
		{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
		{1, -2}, {1, 2}, {2, -1}, {2, 1},
	}
)

// PseudoLegalMoves returns the target squares of p on b ignoring self-check.
// En-passant captures are not included; castling is included without the
// attack veto.
func (p *Piece) PseudoLegalMoves(b *Board) []Square {
	if p == nil || int(p.Kind) >= len(generators) || generators[p.Kind] == nil {
		return nil
	}
	return generators[p.Kind](p, b)
}

// Attacks returns the squares p threatens. It differs from PseudoLegalMoves
// for pawns (diagonals only, occupied or not) and kings (no castling).
func (p *Piece) Attacks(b *Board) []Square {
	switch p.Kind {
	case core.KindPawn:
		var out []Square
		for _, dc := range []int{-1, 1} {
			if target := p.Square.Offset(PawnDirection(p.Color), dc); target.Valid() {
				out = append(out, target)
			}
		}
		return out
	case core.KindKing:
		return stepMoves(p, b, allAround)
	default:
		return p.PseudoLegalMoves(b)
	}
}

func pawnMoves(p *Piece, b *Board) []Square {
	var moves []Square
	dir := PawnDirection(p.Color)

	one := p.Square.Offset(dir, 0)
	if one.Valid() && b.At(one) == nil {
		moves = append(moves, one)
		two := one.Offset(dir, 0)
		if p.Square.Row == PawnStartRow(p.Color) && two.Valid() && b.At(two) == nil {
			moves = append(moves, two)
		}
	}

	for _, dc := range []int{-1, 1} {
		target := p.Square.Offset(dir, dc)
		if !target.Valid() {
			continue
		}
		if occupant := b.At(target); occupant != nil && occupant.Color != p.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

func knightMoves(p *Piece, b *Board) []Square {
	return stepMoves(p, b, knightJumps)
}

func bishopMoves(p *Piece, b *Board) []Square {
	return rayMoves(p, b, diagonals)
}

func rookMoves(p *Piece, b *Board) []Square {
	return rayMoves(p, b, orthogonal)
}

func queenMoves(p *Piece, b *Board) []Square {
	return rayMoves(p, b, allAround)
}

func kingMoves(p *Piece, b *Board) []Square {
	moves := stepMoves(p, b, allAround)
	for _, side := range []CastleSide{QueenSide, KingSide} {
		if dst, ok := castlingTarget(p, b, side); ok {
			moves = append(moves, dst)
		}
	}
	return moves
}

// stepMoves covers single-step movers: empty or opponent-occupied targets
func stepMoves(p *Piece, b *Board, steps []direction) []Square {
	var moves []Square
	for _, d := range steps {
		target := p.Square.Offset(d.dr, d.dc)
		if !target.Valid() {
			continue
		}
		if occupant := b.At(target); occupant == nil || occupant.Color != p.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

// rayMoves extends each direction until the edge or the first occupied square
func rayMoves(p *Piece, b *Board, dirs []direction) []Square {
	var moves []Square
	for _, d := range dirs {
		target := p.Square.Offset(d.dr, d.dc)
		for target.Valid() {
			occupant := b.At(target)
			if occupant == nil {
				moves = append(moves, target)
				target = target.Offset(d.dr, d.dc)
				continue
			}
			if occupant.Color != p.Color {
				moves = append(moves, target)
			}
			break
		}
	}
	return moves
}

// castlingTarget emits the castling pseudo-move on side when neither the king
// nor the original rook has moved and the squares between them are empty
func castlingTarget(king *Piece, b *Board, side CastleSide) (Square, bool) {
	if king.HasMoved() {
		return Square{}, false
	}
	rook := b.OriginalRook(king.Color, side)
	if rook == nil || rook.HasMoved() || rook.Square.Row != king.Square.Row {
		return Square{}, false
	}

	lo, hi := king.Square.Col, rook.Square.Col
	if lo > hi {
		lo, hi = hi, lo
	}
	for col := lo + 1; col < hi; col++ {
		if b.At(Sq(king.Square.Row, col)) != nil {
			return Square{}, false
		}
	}

	dst := king.Square.Offset(0, 2*side.step())
	if !dst.Valid() {
		return Square{}, false
	}
	return dst, true
}
