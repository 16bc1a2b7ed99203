package board

import "fmt"

const Size = 8

// Square is a board coordinate. Row 0 is rank 8 (Black's back rank), row 7 is
// rank 1 (White's back rank); Col 0 is file a.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Sq is shorthand for Square{row, col}
func Sq(row, col int) Square {
	return Square{Row: row, Col: col}
}

// Valid reports whether the square lies on the board
func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

// Offset returns the square dr rows and dc columns away; it may be off-board
func (s Square) Offset(dr, dc int) Square {
	return Square{Row: s.Row + dr, Col: s.Col + dc}
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+s.Col, '8'-s.Row)
}

// ParseSquare reads algebraic coordinates such as "e2"
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	file, rank := s[0]|0x20, s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return Square{Row: int('8' - rank), Col: int(file - 'a')}, nil
}

// SquareStrings renders a move set for transport
func SquareStrings(squares []Square) []string {
	out := make([]string, 0, len(squares))
	for _, sq := range squares {
		out = append(out, sq.String())
	}
	return out
}
