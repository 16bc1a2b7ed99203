package board

import (
	"chessrules/internal/server/core"
)

// Piece is one man on one board. Pieces are never shared between boards;
// Board.Clone copies each of them.
type Piece struct {
	Kind   core.Kind
	Color  core.Color
	Square Square

	// Moves counts how often a king or rook has moved
	Moves int

	// InCheck is display state for kings, see rules.RecordCheck
	InCheck bool

	// DoubleStep marks a pawn that advanced two squares on the last ply
	DoubleStep bool
}

// NewPiece constructs an unmoved piece
func NewPiece(kind core.Kind, color core.Color, sq Square) *Piece {
	return &Piece{Kind: kind, Color: color, Square: sq}
}

// HasMoved reports whether a king or rook has ever moved
func (p *Piece) HasMoved() bool {
	return p.Moves > 0
}

// Letter returns the FEN letter, uppercase for White
func (p *Piece) Letter() byte {
	l := p.Kind.Letter()
	if p.Color == core.ColorWhite {
		return l - ('a' - 'A')
	}
	return l
}

func (p *Piece) String() string {
	return p.Color.Name() + " " + p.Kind.String() + " " + p.Square.String()
}

func (p *Piece) clone() *Piece {
	c := *p
	return &c
}

// PawnDirection is the row step of a pawn advancing for color
func PawnDirection(color core.Color) int {
	if color == core.ColorWhite {
		return -1
	}
	return 1
}

// PawnStartRow is the row pawns of color start on
func PawnStartRow(color core.Color) int {
	if color == core.ColorWhite {
		return 6
	}
	return 1
}

// PromotionRow is the far rank for pawns of color
func PromotionRow(color core.Color) int {
	if color == core.ColorWhite {
		return 0
	}
	return 7
}

// BackRow is the home rank of color
func BackRow(color core.Color) int {
	if color == core.ColorWhite {
		return 7
	}
	return 0
}
