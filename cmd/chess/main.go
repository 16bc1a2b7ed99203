// Package main is a local two-player chess REPL driving the rules engine
// in-process.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"chessrules/internal/client/commands"
	"chessrules/internal/client/display"
	"chessrules/internal/client/session"
	"chessrules/internal/server/core"
)

func main() {
	var (
		fen     = flag.String("fen", "", "Starting position (standard position if empty)")
		history = flag.String("history", ".chess_history", "Readline history file (empty disables)")
		color   = flag.String("color", "auto", "Colored output: auto, always or never")
		white   = flag.String("white", "", "White player name")
		black   = flag.String("black", "", "Black player name")
	)
	flag.Parse()

	switch *color {
	case "always":
		display.Plain = false
	case "never":
		display.Plain = true
	default:
		display.Plain = !term.IsTerminal(int(os.Stdout.Fd()))
	}

	s := &session.Session{
		Out:       os.Stdout,
		WhiteName: *white,
		BlackName: *black,
	}
	registry := commands.NewRegistry(s)

	var completions []readline.PrefixCompleterInterface
	for _, name := range registry.Names() {
		completions = append(completions, readline.PcItem(name))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chess"),
		HistoryFile:     *history,
		AutoComplete:    readline.NewPrefixCompleter(completions...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		display.Errorf(os.Stderr, "%s", err.Error())
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println(display.Paint(display.Cyan, "Chess"))
	fmt.Println("Type 'help' for commands")

	registry.Execute("new " + *fen)
	if s.Game() == nil {
		rl.Close()
		os.Exit(1)
	}

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "quit" {
			break
		}

		// A trailing -v prints the square delta of the ply
		s.Verbose = strings.HasSuffix(line, " -v")
		line = strings.TrimSuffix(line, " -v")

		if err := registry.Execute(line); errors.Is(err, commands.ErrExit) {
			break
		}
	}
}

func buildPrompt(s *session.Session) string {
	g := s.Game()
	if g == nil {
		return display.Prompt("chess")
	}
	e := g.Engine()

	promptStr := "chess [" + display.ColorForTurn(e.Turn())
	switch e.Phase() {
	case core.PhaseMovingAPiece:
		if sq, _, ok := e.Selected(); ok {
			promptStr += " " + sq.String()
		}
	case core.PhasePawnPromotion:
		promptStr += " promote"
	}
	if e.Situation() != core.SituationCasual {
		promptStr += " " + e.Situation().String()
	}
	return display.Prompt(promptStr + "]")
}
