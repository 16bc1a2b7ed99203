// Package session holds the state of one local REPL: the game in play and
// where output goes.
package session

import (
	"io"

	"chessrules/internal/server/game"
)

type Session struct {
	Out     io.Writer
	Current *game.Game
	Verbose bool

	// Names applied to the next "new" game
	WhiteName string
	BlackName string
}

func (s *Session) Game() *game.Game { return s.Current }

func (s *Session) SetGame(g *game.Game) { s.Current = g }

func (s *Session) Writer() io.Writer { return s.Out }

func (s *Session) IsVerbose() bool { return s.Verbose }

func (s *Session) PlayerNames() (white, black string) {
	return s.WhiteName, s.BlackName
}

func (s *Session) SetPlayerNames(white, black string) {
	s.WhiteName, s.BlackName = white, black
}
