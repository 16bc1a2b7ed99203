package board

import (
	"fmt"
	"strings"

	"chessrules/internal/server/core"
)

// CastleSide selects the queenside (file a) or kingside (file h) rook
type CastleSide int

const (
	QueenSide CastleSide = iota
	KingSide
)

func (s CastleSide) step() int {
	if s == QueenSide {
		return -1
	}
	return 1
}

func (s CastleSide) String() string {
	if s == QueenSide {
		return "queenside"
	}
	return "kingside"
}

// Board is the 8x8 grid plus cached handles on both kings and the four
// originally placed rooks. The handles always reference pieces currently on
// the board; a captured original rook leaves its handle nil.
type Board struct {
	squares [Size][Size]*Piece
	kings   [2]*Piece
	rooks   [2][2]*Piece // [color][side]
}

func colorIndex(c core.Color) int {
	if c == core.ColorWhite {
		return 0
	}
	return 1
}

var backRank = [Size]core.Kind{
	core.KindRook, core.KindKnight, core.KindBishop, core.KindQueen,
	core.KindKing, core.KindBishop, core.KindKnight, core.KindRook,
}

// New returns an empty board
func New() *Board {
	return &Board{}
}

// NewStandard returns the initial arrangement with all 32 pieces
func NewStandard() *Board {
	b := New()
	for _, color := range []core.Color{core.ColorWhite, core.ColorBlack} {
		home := BackRow(color)
		for col, kind := range backRank {
			b.Place(NewPiece(kind, color, Sq(home, col)))
			b.Place(NewPiece(core.KindPawn, color, Sq(PawnStartRow(color), col)))
		}
		b.SetOriginalRook(color, QueenSide, b.At(Sq(home, 0)))
		b.SetOriginalRook(color, KingSide, b.At(Sq(home, Size-1)))
	}
	return b
}

// At returns the occupant of sq or nil
func (b *Board) At(sq Square) *Piece {
	if !sq.Valid() {
		return nil
	}
	return b.squares[sq.Row][sq.Col]
}

// Place puts p on its own square, replacing any occupant without bookkeeping
func (b *Board) Place(p *Piece) {
	b.squares[p.Square.Row][p.Square.Col] = p
	if p.Kind == core.KindKing {
		b.kings[colorIndex(p.Color)] = p
	}
}

// Remove clears sq and returns what was there. Cached handles on the removed
// piece are dropped.
func (b *Board) Remove(sq Square) *Piece {
	p := b.At(sq)
	if p == nil {
		return nil
	}
	b.squares[sq.Row][sq.Col] = nil

	ci := colorIndex(p.Color)
	if b.kings[ci] == p {
		b.kings[ci] = nil
	}
	for side := range b.rooks[ci] {
		if b.rooks[ci][side] == p {
			b.rooks[ci][side] = nil
		}
	}
	return p
}

// Relocate moves p to dst, capturing any occupant, and returns the capture
func (b *Board) Relocate(p *Piece, dst Square) *Piece {
	captured := b.Remove(dst)
	b.squares[p.Square.Row][p.Square.Col] = nil
	p.Square = dst
	b.squares[dst.Row][dst.Col] = p
	return captured
}

// Replace swaps the occupant of p.Square for p, used by promotion
func (b *Board) Replace(p *Piece) *Piece {
	old := b.Remove(p.Square)
	b.Place(p)
	return old
}

// King returns the live king of color
func (b *Board) King(color core.Color) *Piece {
	return b.kings[colorIndex(color)]
}

// OriginalRook returns the rook of color that started on side, if still on board
func (b *Board) OriginalRook(color core.Color, side CastleSide) *Piece {
	return b.rooks[colorIndex(color)][side]
}

// SetOriginalRook registers p as the castling rook of color on side
func (b *Board) SetOriginalRook(color core.Color, side CastleSide, p *Piece) {
	b.rooks[colorIndex(color)][side] = p
}

// Pieces lists the pieces of color in row-major order
func (b *Board) Pieces(color core.Color) []*Piece {
	var out []*Piece
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if p := b.squares[r][c]; p != nil && p.Color == color {
				out = append(out, p)
			}
		}
	}
	return out
}

// Clone deep-copies the board. Every piece is a new instance and the cached
// handles point into the copy.
func (b *Board) Clone() *Board {
	c := &Board{}
	copies := make(map[*Piece]*Piece, 32)
	for r := 0; r < Size; r++ {
		for col := 0; col < Size; col++ {
			if p := b.squares[r][col]; p != nil {
				cp := p.clone()
				copies[p] = cp
				c.squares[r][col] = cp
			}
		}
	}
	for i, k := range b.kings {
		c.kings[i] = copies[k]
	}
	for i := range b.rooks {
		for side, r := range b.rooks[i] {
			c.rooks[i][side] = copies[r]
		}
	}
	return c
}

// Validate checks the structural invariants of the board
func (b *Board) Validate() error {
	kings := map[core.Color]int{}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			p := b.squares[r][c]
			if p == nil {
				continue
			}
			if p.Square != Sq(r, c) {
				return fmt.Errorf("%s stored on %s", p, Sq(r, c))
			}
			if p.Kind == core.KindKing {
				kings[p.Color]++
			}
		}
	}
	for _, color := range []core.Color{core.ColorWhite, core.ColorBlack} {
		if kings[color] != 1 {
			return fmt.Errorf("%s has %d kings", color.Name(), kings[color])
		}
		if k := b.King(color); k == nil || b.At(k.Square) != k {
			return fmt.Errorf("%s king handle is stale", color.Name())
		}
		for _, side := range []CastleSide{QueenSide, KingSide} {
			if r := b.OriginalRook(color, side); r != nil && b.At(r.Square) != r {
				return fmt.Errorf("%s %s rook handle is stale", color.Name(), side)
			}
		}
	}
	return nil
}

// Occupant is the value view of one square
type Occupant struct {
	Kind  core.Kind
	Color core.Color
}

// Empty reports whether no piece is present
func (o Occupant) Empty() bool {
	return o.Kind == 0
}

// Letter returns the FEN letter or 0 for an empty square
func (o Occupant) Letter() byte {
	if o.Empty() {
		return 0
	}
	return (&Piece{Kind: o.Kind, Color: o.Color}).Letter()
}

// Occupancy is a value snapshot of the grid
type Occupancy [Size][Size]Occupant

// Occupancy captures the current grid by value
func (b *Board) Occupancy() Occupancy {
	var o Occupancy
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if p := b.squares[r][c]; p != nil {
				o[r][c] = Occupant{Kind: p.Kind, Color: p.Color}
			}
		}
	}
	return o
}

// Changed lists the squares whose occupant differs in next
func (o Occupancy) Changed(next Occupancy) []Square {
	var out []Square
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if o[r][c] != next[r][c] {
				out = append(out, Sq(r, c))
			}
		}
	}
	return out
}

// ToASCII creates an ASCII representation of the board
func (b *Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < Size; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for f := 0; f < Size; f++ {
			if p := b.squares[r][f]; p == nil {
				sb.WriteString(". ")
			} else {
				sb.WriteString(fmt.Sprintf("%c ", p.Letter()))
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}
