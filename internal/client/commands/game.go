package commands

import (
	"fmt"
	"strconv"
	"strings"

	"chessrules/internal/client/display"
	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/rules"
)

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "new",
		ShortName:   "n",
		Description: "Start a new game, optionally from a FEN",
		Usage:       "new [fen]",
		Handler:     newGameHandler,
	})

	r.Register(&Command{
		Name:        "names",
		ShortName:   "a",
		Description: "Set player names",
		Usage:       "names <white> <black>",
		Handler:     namesHandler,
	})

	r.Register(&Command{
		Name:        "select",
		ShortName:   "s",
		Description: "Pick up a piece and show its legal moves",
		Usage:       "select <square>",
		Handler:     selectHandler,
	})

	r.Register(&Command{
		Name:        "move",
		ShortName:   "m",
		Description: "Move the selected piece, or give a full move like e2e4 or e7e8q",
		Usage:       "move <square> | move <from><to>[piece]",
		Handler:     moveHandler,
	})

	r.Register(&Command{
		Name:        "promote",
		ShortName:   "p",
		Description: "Choose the piece for a pawn on the last rank",
		Usage:       "promote <q|r|b|n>",
		Handler:     promoteHandler,
	})

	r.Register(&Command{
		Name:        "deselect",
		ShortName:   "d",
		Description: "Put the selected piece back",
		Usage:       "deselect",
		Handler:     deselectHandler,
	})

	r.Register(&Command{
		Name:        "legal",
		ShortName:   "l",
		Description: "List legal moves of a piece without selecting it",
		Usage:       "legal <square>",
		Handler:     legalHandler,
	})

	r.Register(&Command{
		Name:        "undo",
		ShortName:   "u",
		Description: "Undo moves",
		Usage:       "undo [count]",
		Handler:     undoHandler,
	})

	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Description: "Show board and game state",
		Usage:       "show",
		Handler:     showBoardHandler,
	})

	r.Register(&Command{
		Name:        "fen",
		ShortName:   "f",
		Description: "Print the current position as FEN",
		Usage:       "fen",
		Handler:     fenHandler,
	})

	r.Register(&Command{
		Name:        "state",
		ShortName:   "t",
		Description: "Show game state as JSON",
		Usage:       "state",
		Handler:     gameStateHandler,
	})
}

func current(s Session) (*game.Game, error) {
	g := s.Game()
	if g == nil {
		return nil, fmt.Errorf("no current game, use 'new'")
	}
	return g, nil
}

func parseSquare(arg string) (board.Square, error) {
	return board.ParseSquare(strings.ToLower(arg))
}

func newGameHandler(s Session, args []string) error {
	whiteName, blackName := s.PlayerNames()
	white := core.NewPlayer(core.PlayerConfig{Name: whiteName}, core.ColorWhite)
	black := core.NewPlayer(core.PlayerConfig{Name: blackName}, core.ColorBlack)

	g, err := game.New(strings.Join(args, " "), white, black)
	if err != nil {
		return err
	}
	s.SetGame(g)

	w := s.Writer()
	fmt.Fprintln(w, display.Paint(display.Green, fmt.Sprintf("New game: %s vs %s", white.Name, black.Name)))
	renderGame(s, g)
	return nil
}

func namesHandler(s Session, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: names <white> <black>")
	}
	s.SetPlayerNames(args[0], args[1])

	if g := s.Game(); g != nil {
		g.UpdatePlayers(
			core.NewPlayer(core.PlayerConfig{Name: args[0]}, core.ColorWhite),
			core.NewPlayer(core.PlayerConfig{Name: args[1]}, core.ColorBlack),
		)
	}
	fmt.Fprintf(s.Writer(), "White: %s, Black: %s\n", args[0], args[1])
	return nil
}

func selectHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: select <square>")
	}
	sq, err := parseSquare(args[0])
	if err != nil {
		return err
	}

	sel, err := g.Select(sq)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.Writer(), "%s %s on %s: %s\n",
		display.ColorForTurn(sel.Piece.Color), sel.Piece.Kind, sel.Square,
		strings.Join(board.SquareStrings(sel.Moves), " "))
	renderGame(s, g)
	return nil
}

func moveHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: move <square> | move <from><to>[piece]")
	}
	arg := strings.ToLower(args[0])

	switch len(arg) {
	case 2:
		dst, err := parseSquare(arg)
		if err != nil {
			return err
		}
		res, err := g.Move(dst)
		if err != nil {
			return err
		}
		report(s, g, res)
		return nil

	case 4, 5:
		return fullMove(s, g, arg)

	default:
		return fmt.Errorf("cannot read move %q", args[0])
	}
}

// fullMove plays a coordinate move such as e2e4 or e7e8q in one step
func fullMove(s Session, g *game.Game, arg string) error {
	from, err := parseSquare(arg[:2])
	if err != nil {
		return err
	}
	to, err := parseSquare(arg[2:4])
	if err != nil {
		return err
	}

	var promo core.Kind
	if len(arg) == 5 {
		kind, ok := core.KindFromLetter(arg[4])
		if !ok || !kind.IsPromotionTarget() {
			return fmt.Errorf("invalid promotion piece %q", arg[4:])
		}
		promo = kind
	}

	if g.Engine().Phase() == core.PhaseMovingAPiece {
		if err := g.Deselect(); err != nil {
			return err
		}
	}
	if _, err := g.Select(from); err != nil {
		return err
	}

	res, err := g.Move(to)
	if err != nil {
		g.Deselect()
		return err
	}

	if res.Phase == core.PhasePawnPromotion && promo != 0 {
		if res, err = g.Promote(promo); err != nil {
			return err
		}
	} else if promo != 0 {
		display.Errorf(s.Writer(), "Ignoring promotion piece, %s is not a promotion", arg[:4])
	}

	report(s, g, res)
	return nil
}

func promoteHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: promote <q|r|b|n>")
	}
	kind, ok := core.ParseKind(args[0])
	if !ok {
		return fmt.Errorf("unknown piece %q", args[0])
	}

	res, err := g.Promote(kind)
	if err != nil {
		return err
	}
	report(s, g, res)
	return nil
}

func deselectHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	if err := g.Deselect(); err != nil {
		return err
	}
	renderGame(s, g)
	return nil
}

func legalHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: legal <square>")
	}
	sq, err := parseSquare(args[0])
	if err != nil {
		return err
	}

	moves := g.Engine().LegalMoves(sq)
	w := s.Writer()
	if len(moves) == 0 {
		fmt.Fprintf(w, "No legal moves from %s\n", sq)
		return nil
	}
	fmt.Fprintf(w, "%s: %s\n", sq, strings.Join(board.SquareStrings(moves), " "))
	display.RenderBoard(w, g.Engine().Board(), display.Marks{Selected: &sq, Targets: moves})
	return nil
}

func undoHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}

	count := 1
	if len(args) > 0 {
		count, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}

	if err := g.UndoMoves(count); err != nil {
		return err
	}
	fmt.Fprintln(s.Writer(), display.Paint(display.Green, fmt.Sprintf("Undid %d move(s)", count)))
	renderGame(s, g)
	return nil
}

func showBoardHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	w := s.Writer()
	e := g.Engine()

	fmt.Fprintln(w)
	renderGame(s, g)

	fmt.Fprintf(w, "\nFEN: %s\n", g.CurrentFEN())
	fmt.Fprintf(w, "Turn: %s | Phase: %s | Situation: %s | Moves: %d\n",
		display.ColorForTurn(e.Turn()), e.Phase(), e.Situation(), len(g.Moves()))

	if moves := g.Moves(); len(moves) > 0 {
		fmt.Fprintf(w, "\nHistory: %s\n", history(moves, g.InitialFEN()))
	}

	if last := g.LastResult(); last != nil {
		fmt.Fprintf(w, "Last move: %s by %s\n", last.Move, last.PlayerColor.Name())
	}
	return nil
}

func fenHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.Writer(), g.CurrentFEN())
	return nil
}

func gameStateHandler(s Session, args []string) error {
	g, err := current(s)
	if err != nil {
		return err
	}
	e := g.Engine()

	state := struct {
		FEN       string           `json:"fen"`
		Turn      string           `json:"turn"`
		Phase     string           `json:"phase"`
		Situation string           `json:"situation"`
		Moves     []string         `json:"moves"`
		White     *core.Player     `json:"white"`
		Black     *core.Player     `json:"black"`
		LastMove  *game.MoveResult `json:"lastMove,omitempty"`
	}{
		FEN:       g.CurrentFEN(),
		Turn:      e.Turn().String(),
		Phase:     e.Phase().String(),
		Situation: e.Situation().String(),
		Moves:     g.Moves(),
		White:     g.GetPlayer(core.ColorWhite),
		Black:     g.GetPlayer(core.ColorBlack),
		LastMove:  g.LastResult(),
	}

	fmt.Fprintln(s.Writer(), display.Paint(display.Cyan, "Game State:"))
	display.PrettyPrintJSON(s.Writer(), state)
	return nil
}

// history numbers plies as 1.e2e4 e7e5 2.g1f3, starting with "1..." when
// Black moved first
func history(moves []string, initialFEN string) string {
	var sb strings.Builder
	offset := 0
	if fields := strings.Fields(initialFEN); len(fields) > 1 && fields[1] == "b" {
		offset = 1
		sb.WriteString("1...")
	}
	for i, move := range moves {
		ply := i + offset
		if ply%2 == 0 {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(fmt.Sprintf("%d.", ply/2+1))
		} else if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(move)
	}
	return sb.String()
}

// report prints the outcome of an accepted move or promotion
func report(s Session, g *game.Game, res rules.Result) {
	w := s.Writer()

	if res.Phase == core.PhasePawnPromotion {
		fmt.Fprintf(w, "Pawn reached %s, choose with: promote q|r|b|n\n", res.To)
		renderGame(s, g)
		return
	}

	var notes []string
	if res.Captured != 0 {
		notes = append(notes, "captures "+res.Captured.String())
	}
	if res.EnPassant {
		notes = append(notes, "en passant")
	}
	if res.Castled {
		notes = append(notes, "castles "+res.CastleSide.String())
	}
	if res.Promotion != 0 {
		notes = append(notes, "promotes to "+res.Promotion.String())
	}

	line := fmt.Sprintf("%s plays %s", display.ColorForTurn(res.Mover), g.Moves()[len(g.Moves())-1])
	if len(notes) > 0 {
		line += " (" + strings.Join(notes, ", ") + ")"
	}
	fmt.Fprintln(w, line)

	if s.IsVerbose() {
		for _, c := range res.Delta {
			letter := "."
			if !c.Occupant.Empty() {
				letter = string(c.Occupant.Letter())
			}
			fmt.Fprintf(w, "  %s -> %s\n", c.Square, letter)
		}
	}

	renderGame(s, g)
	if msg := display.SituationLine(res.Situation, res.Turn); msg != "" {
		fmt.Fprintln(w, msg)
	}
}

// renderGame draws the board with the selection or pending promotion marked
func renderGame(s Session, g *game.Game) {
	e := g.Engine()
	var marks display.Marks
	if sq, moves, ok := e.Selected(); ok {
		marks.Selected = &sq
		marks.Targets = moves
	}
	if sq, ok := e.PromotionSquare(); ok {
		marks.Promotion = &sq
	}
	display.RenderBoard(s.Writer(), e.Board(), marks)
}
