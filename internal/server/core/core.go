package core

import "strings"

type Color byte

const (
	ColorWhite Color = iota + 1
	ColorBlack
)

func (c Color) String() string {
	if c == ColorWhite {
		return "w"
	} else if c == ColorBlack {
		return "b"
	} else {
		return "-"
	}
}

// Name returns the long form used in messages
func (c Color) Name() string {
	switch c {
	case ColorWhite:
		return "White"
	case ColorBlack:
		return "Black"
	default:
		return "None"
	}
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// Kind is one of the six piece types
type Kind byte

const (
	KindPawn Kind = iota + 1
	KindKnight
	KindBishop
	KindRook
	KindQueen
	KindKing
)

var kindLetters = map[Kind]byte{
	KindPawn:   'p',
	KindKnight: 'n',
	KindBishop: 'b',
	KindRook:   'r',
	KindQueen:  'q',
	KindKing:   'k',
}

func (k Kind) String() string {
	switch k {
	case KindPawn:
		return "pawn"
	case KindKnight:
		return "knight"
	case KindBishop:
		return "bishop"
	case KindRook:
		return "rook"
	case KindQueen:
		return "queen"
	case KindKing:
		return "king"
	default:
		return "none"
	}
}

// Letter returns the lowercase FEN letter of the kind
func (k Kind) Letter() byte {
	return kindLetters[k]
}

// KindFromLetter maps a FEN letter of either case to a kind
func KindFromLetter(ch byte) (Kind, bool) {
	lower := ch | 0x20
	for k, l := range kindLetters {
		if l == lower {
			return k, true
		}
	}
	return 0, false
}

// ParseKind accepts full names ("queen") or single letters ("q")
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 {
		return KindFromLetter(s[0])
	}
	for k := KindPawn; k <= KindKing; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// IsPromotionTarget reports whether a pawn may be promoted to k
func (k Kind) IsPromotionTarget() bool {
	return k == KindKnight || k == KindBishop || k == KindRook || k == KindQueen
}
