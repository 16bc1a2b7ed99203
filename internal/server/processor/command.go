package processor

import (
	"chessrules/internal/server/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdConfigurePlayers
	CmdGetGame
	CmdDeleteGame
	CmdSelect
	CmdMove
	CmdPromote
	CmdDeselect
	CmdUndoMove
	CmdGetBoard
	CmdLegalMoves
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{
		Type: CmdCreateGame,
		Args: req,
	}
}

func NewConfigurePlayersCommand(gameID string, req core.ConfigurePlayersRequest) Command {
	return Command{
		Type:   CmdConfigurePlayers,
		GameID: gameID,
		Args:   req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		GameID: gameID,
	}
}

func NewSelectCommand(gameID string, req core.SelectRequest) Command {
	return Command{
		Type:   CmdSelect,
		GameID: gameID,
		Args:   req,
	}
}

func NewMoveCommand(gameID string, req core.MoveRequest) Command {
	return Command{
		Type:   CmdMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewPromoteCommand(gameID string, req core.PromoteRequest) Command {
	return Command{
		Type:   CmdPromote,
		GameID: gameID,
		Args:   req,
	}
}

func NewDeselectCommand(gameID string) Command {
	return Command{
		Type:   CmdDeselect,
		GameID: gameID,
	}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{
		Type:   CmdUndoMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}

// NewLegalMovesCommand asks for the legal targets of the piece on square
func NewLegalMovesCommand(gameID, square string) Command {
	return Command{
		Type:   CmdLegalMoves,
		GameID: gameID,
		Args:   square,
	}
}
