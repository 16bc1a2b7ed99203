package processor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"chessrules/internal/server/board"
	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/rules"
	"chessrules/internal/server/service"
)

// FEN shape check; the counters are optional
var fenPattern = regexp.MustCompile(`^[rnbqkpRNBQKP1-8/]+ [wb] [KQkq-]+ [a-h1-8-]+( \d+ \d+)?$`)

// Processor handles command execution between transports and the service
type Processor struct {
	svc *service.Service
	log zerolog.Logger
}

// New creates a processor bound to svc
func New(svc *service.Service, log zerolog.Logger) *Processor {
	return &Processor{
		svc: svc,
		log: log.With().Str("component", "processor").Logger(),
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdConfigurePlayers:
		return p.handleConfigurePlayers(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdSelect:
		return p.handleSelect(cmd)
	case CmdMove:
		return p.handleMove(cmd)
	case CmdPromote:
		return p.handlePromote(cmd)
	case CmdDeselect:
		return p.handleDeselect(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdLegalMoves:
		return p.handleLegalMoves(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// isFENSafe rejects control characters and anything not shaped like a FEN
func (p *Processor) isFENSafe(fen string) bool {
	for _, r := range fen {
		if unicode.IsControl(r) {
			return false
		}
	}
	return fenPattern.MatchString(fen)
}

func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	fen := strings.TrimSpace(args.FEN)
	if fen != "" && !p.isFENSafe(fen) {
		return p.errorResponse("invalid FEN format or characters", core.ErrInvalidFEN)
	}

	gameID := p.svc.GenerateGameID()
	whitePlayer := core.NewPlayer(args.White, core.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, core.ColorBlack)

	if _, err := p.svc.CreateGame(gameID, whitePlayer, blackPlayer, fen); err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidFEN)
	}

	return p.gameResponse(gameID)
}

func (p *Processor) handleConfigurePlayers(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigurePlayersRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	whitePlayer := core.NewPlayer(args.White, core.ColorWhite)
	blackPlayer := core.NewPlayer(args.Black, core.ColorBlack)

	if err := p.svc.UpdatePlayers(cmd.GameID, whitePlayer, blackPlayer); err != nil {
		return p.failure(err)
	}
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.failure(err)
	}
	return ProcessorResponse{Success: true}
}

func (p *Processor) handleSelect(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.SelectRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	sq, err := board.ParseSquare(args.Square)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	sel, err := p.svc.Select(cmd.GameID, sq)
	if err != nil {
		return p.failure(err)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.SelectionResponse{
			GameID:     cmd.GameID,
			Square:     sel.Square.String(),
			Piece:      string(sel.Piece.Letter()),
			LegalMoves: board.SquareStrings(sel.Moves),
		},
	}
}

func (p *Processor) handleMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	sq, err := board.ParseSquare(args.To)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	var resp core.MoveResponse
	if _, err := p.svc.Move(cmd.GameID, sq, p.moveResponse(cmd.GameID, &resp)); err != nil {
		return p.failure(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handlePromote(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.PromoteRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	kind, ok := core.ParseKind(args.Piece)
	if !ok {
		return p.errorResponse(fmt.Sprintf("unknown piece %q", args.Piece), core.ErrInvalidPromotion)
	}

	var resp core.MoveResponse
	if _, err := p.svc.Promote(cmd.GameID, kind, p.moveResponse(cmd.GameID, &resp)); err != nil {
		return p.failure(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleDeselect(cmd Command) ProcessorResponse {
	if err := p.svc.Deselect(cmd.GameID); err != nil {
		return p.failure(err)
	}
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok && req.Count > 0 {
		args = req
	}

	if err := p.svc.UndoMoves(cmd.GameID, args.Count); err != nil {
		return p.failure(err)
	}
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	var resp core.BoardResponse
	err := p.svc.ViewGame(cmd.GameID, func(g *game.Game) error {
		resp.FEN = g.CurrentFEN()
		resp.Board = g.Engine().Board().ToASCII()
		return nil
	})
	if err != nil {
		return p.failure(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

func (p *Processor) handleLegalMoves(cmd Command) ProcessorResponse {
	square, _ := cmd.Args.(string)
	sq, err := board.ParseSquare(square)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	var moves []board.Square
	err = p.svc.ViewGame(cmd.GameID, func(g *game.Game) error {
		moves = g.Engine().LegalMoves(sq)
		return nil
	})
	if err != nil {
		return p.failure(err)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.LegalMovesResponse{
			Square:     sq.String(),
			LegalMoves: board.SquareStrings(moves),
		},
	}
}

// gameResponse snapshots the game under the service read lock
func (p *Processor) gameResponse(gameID string) ProcessorResponse {
	var resp core.GameResponse
	err := p.svc.ViewGame(gameID, func(g *game.Game) error {
		resp = p.buildGameResponse(gameID, g)
		return nil
	})
	if err != nil {
		return p.failure(err)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

// moveResponse fills out from inside the service write lock, keeping the
// game state and the delta of one ply together
func (p *Processor) moveResponse(gameID string, out *core.MoveResponse) func(*game.Game, rules.Result) {
	return func(g *game.Game, res rules.Result) {
		delta := make([]core.SquareDelta, 0, len(res.Delta))
		for _, c := range res.Delta {
			d := core.SquareDelta{Square: c.Square.String()}
			if !c.Occupant.Empty() {
				d.Piece = string(c.Occupant.Letter())
			}
			delta = append(delta, d)
		}
		*out = core.MoveResponse{
			Game:  p.buildGameResponse(gameID, g),
			Delta: delta,
		}
	}
}

// buildGameResponse constructs standard game response
func (p *Processor) buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	e := g.Engine()
	resp := core.GameResponse{
		GameID:    gameID,
		FEN:       g.CurrentFEN(),
		Turn:      e.Turn().String(),
		Phase:     e.Phase().String(),
		Situation: e.Situation().String(),
		Moves:     g.Moves(),
		Players: core.PlayersResponse{
			White: g.GetPlayer(core.ColorWhite),
			Black: g.GetPlayer(core.ColorBlack),
		},
	}

	if sq, moves, ok := e.Selected(); ok {
		resp.Selected = sq.String()
		resp.LegalMoves = board.SquareStrings(moves)
	}
	if sq, ok := e.PromotionSquare(); ok {
		resp.Promotion = sq.String()
	}

	if result := g.LastResult(); result != nil {
		info := &core.MoveInfo{
			Move:        result.Move,
			PlayerColor: result.PlayerColor.String(),
			Castled:     result.Castled,
			EnPassant:   result.EnPassant,
		}
		if result.Captured != 0 {
			info.Captured = result.Captured.String()
		}
		if result.Promotion != 0 {
			info.Promotion = result.Promotion.String()
		}
		resp.LastMove = info
	}

	return resp
}

// failure maps service and engine errors onto response codes
func (p *Processor) failure(err error) ProcessorResponse {
	code := core.ErrInvalidRequest
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		code = core.ErrGameNotFound
	case errors.Is(err, rules.ErrGameOver):
		code = core.ErrGameOver
	case errors.Is(err, rules.ErrPhaseViolation):
		code = core.ErrPhaseViolation
	case errors.Is(err, rules.ErrInvalidSelection):
		code = core.ErrInvalidSelection
	case errors.Is(err, rules.ErrIllegalDestination):
		code = core.ErrIllegalMove
	case errors.Is(err, rules.ErrInvalidPromotion):
		code = core.ErrInvalidPromotion
	}
	p.log.Debug().Err(err).Str("code", code).Msg("command rejected")
	return p.errorResponse(err.Error(), code)
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}
