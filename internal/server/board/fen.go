package board

import (
	"fmt"
	"strconv"
	"strings"

	"chessrules/internal/server/core"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Position is a board plus the side to move and the FEN counters
type Position struct {
	Board    *Board
	Turn     core.Color
	Halfmove int
	Fullmove int
}

// ParseFEN builds a position. Castling rights become move counters on the
// king and original rooks; the en-passant field marks the pawn that just
// double-advanced. The two counter fields are optional.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) != 4 && len(parts) != 6 {
		return nil, fmt.Errorf("invalid FEN: expected 4 or 6 parts, got %d", len(parts))
	}

	b := New()

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != Size {
		return nil, fmt.Errorf("invalid FEN: expected 8 ranks")
	}

	for r := 0; r < Size; r++ {
		file := 0
		for i := 0; i < len(ranks[r]); i++ {
			ch := ranks[r][i]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			kind, ok := core.KindFromLetter(ch)
			if !ok {
				return nil, fmt.Errorf("invalid FEN: unknown piece %q", ch)
			}
			if file >= Size {
				return nil, fmt.Errorf("invalid FEN: too many pieces in rank %d", 8-r)
			}
			color := core.ColorBlack
			if ch >= 'A' && ch <= 'Z' {
				color = core.ColorWhite
			}
			if kind == core.KindPawn && (r == 0 || r == Size-1) {
				return nil, fmt.Errorf("invalid FEN: pawn on back rank %d", 8-r)
			}
			b.Place(NewPiece(kind, color, Sq(r, file)))
			file++
		}
		if file != Size {
			return nil, fmt.Errorf("invalid FEN: rank %d has %d files", 8-r, file)
		}
	}

	pos := &Position{Board: b, Halfmove: 0, Fullmove: 1}

	switch parts[1] {
	case "w":
		pos.Turn = core.ColorWhite
	case "b":
		pos.Turn = core.ColorBlack
	default:
		return nil, fmt.Errorf("invalid FEN: turn must be 'w' or 'b'")
	}

	if err := applyCastlingRights(b, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		if err := markDoubleStep(b, parts[3], core.OppositeColor(pos.Turn)); err != nil {
			return nil, err
		}
	}

	if len(parts) == 6 {
		var err error
		if pos.Halfmove, err = strconv.Atoi(parts[4]); err != nil || pos.Halfmove < 0 {
			return nil, fmt.Errorf("invalid FEN: halfmove counter")
		}
		if pos.Fullmove, err = strconv.Atoi(parts[5]); err != nil || pos.Fullmove < 1 {
			return nil, fmt.Errorf("invalid FEN: fullmove counter")
		}
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	return pos, nil
}

var castleLetters = map[byte]struct {
	color core.Color
	side  CastleSide
}{
	'K': {core.ColorWhite, KingSide},
	'Q': {core.ColorWhite, QueenSide},
	'k': {core.ColorBlack, KingSide},
	'q': {core.ColorBlack, QueenSide},
}

// applyCastlingRights registers corner rooks as original rooks and marks the
// king or rook as moved wherever a right is absent
func applyCastlingRights(b *Board, field string) error {
	rights := map[core.Color][2]bool{}
	if field != "-" {
		for i := 0; i < len(field); i++ {
			cl, ok := castleLetters[field[i]]
			if !ok {
				return fmt.Errorf("invalid FEN: castling field %q", field)
			}
			r := rights[cl.color]
			r[cl.side] = true
			rights[cl.color] = r
		}
	}

	for _, color := range []core.Color{core.ColorWhite, core.ColorBlack} {
		home := BackRow(color)
		king := b.At(Sq(home, 4))
		kingHome := king != nil && king.Kind == core.KindKing && king.Color == color

		anyRight := false
		for _, side := range []CastleSide{QueenSide, KingSide} {
			col := 0
			if side == KingSide {
				col = Size - 1
			}
			rook := b.At(Sq(home, col))
			if rook == nil || rook.Kind != core.KindRook || rook.Color != color {
				continue
			}
			b.SetOriginalRook(color, side, rook)
			if rights[color][side] && kingHome {
				anyRight = true
			} else {
				rook.Moves = 1
			}
		}

		if k := b.King(color); k != nil && (!kingHome || !anyRight) {
			k.Moves = 1
		}
	}
	return nil
}

func markDoubleStep(b *Board, field string, mover core.Color) error {
	behind, err := ParseSquare(field)
	if err != nil {
		return fmt.Errorf("invalid FEN: en passant square: %w", err)
	}
	pawnSq := behind.Offset(PawnDirection(mover), 0)
	p := b.At(pawnSq)
	if p == nil || p.Kind != core.KindPawn || p.Color != mover || pawnSq.Row != PawnStartRow(mover)+2*PawnDirection(mover) {
		return fmt.Errorf("invalid FEN: no pawn to capture en passant behind %s", field)
	}
	p.DoubleStep = true
	return nil
}

// FEN renders the position; the en-passant field names the square behind a
// pawn of the side that just moved if it carries the double-step marker
func (pos *Position) FEN() string {
	b := pos.Board
	var sb strings.Builder

	for r := 0; r < Size; r++ {
		empty := 0
		for c := 0; c < Size; c++ {
			p := b.At(Sq(r, c))
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < Size-1 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(pos.Turn.String())
	sb.WriteByte(' ')
	sb.WriteString(castlingField(b))
	sb.WriteByte(' ')
	sb.WriteString(enPassantField(b, core.OppositeColor(pos.Turn)))
	sb.WriteString(fmt.Sprintf(" %d %d", pos.Halfmove, pos.Fullmove))

	return sb.String()
}

func castlingField(b *Board) string {
	var sb strings.Builder
	for _, l := range []byte{'K', 'Q', 'k', 'q'} {
		cl := castleLetters[l]
		king := b.King(cl.color)
		rook := b.OriginalRook(cl.color, cl.side)
		if king != nil && !king.HasMoved() && rook != nil && !rook.HasMoved() {
			sb.WriteByte(l)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func enPassantField(b *Board, mover core.Color) string {
	for _, p := range b.Pieces(mover) {
		if p.Kind == core.KindPawn && p.DoubleStep {
			return p.Square.Offset(-PawnDirection(mover), 0).String()
		}
	}
	return "-"
}
