package display

import (
	"fmt"
	"io"
	"strings"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
)

// Marks highlights squares while rendering
type Marks struct {
	Selected  *board.Square
	Targets   []board.Square
	Promotion *board.Square
}

func (m Marks) isTarget(sq board.Square) bool {
	for _, t := range m.Targets {
		if t == sq {
			return true
		}
	}
	return false
}

// RenderBoard draws b with White at the bottom. White pieces are blue, Black
// pieces red; legal targets of the selected piece show as green.
func RenderBoard(w io.Writer, b *board.Board, marks Marks) {
	files := "  a b c d e f g h"
	fmt.Fprintln(w, Paint(Cyan, files))

	for r := 0; r < board.Size; r++ {
		var sb strings.Builder
		rank := fmt.Sprintf("%d", board.Size-r)
		sb.WriteString(Paint(Cyan, rank) + " ")

		for c := 0; c < board.Size; c++ {
			sq := board.Sq(r, c)
			sb.WriteString(cell(b.At(sq), sq, marks))
			sb.WriteString(" ")
		}
		sb.WriteString(" " + Paint(Cyan, rank))
		fmt.Fprintln(w, sb.String())
	}
	fmt.Fprintln(w, Paint(Cyan, files))
}

func cell(p *board.Piece, sq board.Square, marks Marks) string {
	switch {
	case marks.Selected != nil && *marks.Selected == sq,
		marks.Promotion != nil && *marks.Promotion == sq:
		return Paint(Yellow, string(p.Letter()))
	case marks.isTarget(sq) && p == nil:
		return Paint(Green, "*")
	case marks.isTarget(sq):
		return Paint(Green, string(p.Letter()))
	case p == nil:
		return "."
	case p.Color == core.ColorWhite:
		return Paint(Blue, string(p.Letter()))
	default:
		return Paint(Red, string(p.Letter()))
	}
}

// ColorForTurn returns colored turn indicator
func ColorForTurn(c core.Color) string {
	if c == core.ColorWhite {
		return Paint(Blue, "White")
	}
	return Paint(Red, "Black")
}

// SituationLine describes the position after a ply, empty for a casual one
func SituationLine(s core.Situation, toMove core.Color) string {
	switch s {
	case core.SituationCheck:
		return Paint(Yellow, core.OppositeColor(toMove).Name()+" gives check")
	case core.SituationCheckmate:
		return Paint(Magenta, "Checkmate, "+core.OppositeColor(toMove).Name()+" wins")
	case core.SituationStalemate:
		return Paint(Magenta, "Stalemate, the game is drawn")
	default:
		return ""
	}
}
