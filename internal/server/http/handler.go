package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"chessrules/internal/server/core"
	"chessrules/internal/server/game"
	"chessrules/internal/server/processor"
	"chessrules/internal/server/service"
)

const rateLimitRate = 10 // req/sec

// HTTPHandler handles HTTP requests and routes them to the processor
type HTTPHandler struct {
	proc *processor.Processor
	svc  *service.Service
}

func NewHTTPHandler(proc *processor.Processor, svc *service.Service) *HTTPHandler {
	return &HTTPHandler{proc: proc, svc: svc}
}

func NewFiberApp(proc *processor.Processor, svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc, svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: service.WaitTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", h.CreateGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Put("/games/:gameId/players", h.ConfigurePlayers)
	api.Post("/games/:gameId/select", h.Select)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Post("/games/:gameId/promote", h.Promote)
	api.Post("/games/:gameId/deselect", h.Deselect)
	api.Post("/games/:gameId/undo", h.UndoMove)
	api.Get("/games/:gameId/board", h.GetBoard)
	api.Get("/games/:gameId/legal", h.LegalMoves)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps processor error codes onto HTTP status codes
func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound:
		return fiber.StatusNotFound
	case core.ErrGameOver, core.ErrPhaseViolation:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

// reply writes the processor outcome, using status on success
func reply(c *fiber.Ctx, resp processor.ProcessorResponse, status int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(status).JSON(resp.Data)
}

// gameIDParam extracts the :gameId path parameter, writing a 400 when it is
// not a UUID
func gameIDParam(c *fiber.Ctx) (string, bool, error) {
	gameID := c.Params("gameId")
	if !isValidUUID(gameID) {
		return "", false, c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID format",
			Code:    core.ErrInvalidRequest,
			Details: "game ID must be a valid UUID",
		})
	}
	return gameID, true, nil
}

// validatedBody fetches the request parsed by validationMiddleware
func validatedBody[T any](c *fiber.Ctx) (T, bool, error) {
	var zero T

	validated, ok := c.Locals("validated").(bool)
	if !ok || !validated {
		return zero, false, c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation bypass detected",
			Code:  core.ErrInternalError,
		})
	}

	body, ok := c.Locals("validatedBody").(*T)
	if !ok || body == nil {
		return zero, false, c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrInternalError,
		})
	}
	return *body, true, nil
}

// Health check endpoint with storage status
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now().Unix(),
		"storage": h.svc.GetStorageHealth(),
		"games":   h.svc.GameCount(),
	})
}

// CreateGame starts a game from the standard position or a supplied FEN
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, ok, err := validatedBody[core.CreateGameRequest](c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewCreateGameCommand(req)), fiber.StatusCreated)
}

// ConfigurePlayers updates player names mid-game
func (h *HTTPHandler) ConfigurePlayers(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	req, ok, err := validatedBody[core.ConfigurePlayersRequest](c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewConfigurePlayersCommand(gameID, req)), fiber.StatusOK)
}

// GetGame retrieves current game state. With wait=true it long-polls until
// the number of completed plies differs from moveCount.
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}

	if c.Query("wait", "false") != "true" {
		return reply(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}

	var current int
	err = h.svc.ViewGame(gameID, func(g *game.Game) error {
		current = len(g.Moves())
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrGameNotFound,
		})
	}

	// Already stale, answer immediately
	if moveCount != current {
		return reply(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	ctx := c.Context()
	notify := h.svc.RegisterWait(ctx, gameID, moveCount)

	select {
	case <-notify:
		// Changed, timed out or deleted
		return reply(c, h.proc.Execute(processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	case <-ctx.Done():
		return nil
	}
}

// DeleteGame removes a game and its stored history
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewDeleteGameCommand(gameID)), fiber.StatusNoContent)
}

// Select picks up a piece and returns its legal destinations
func (h *HTTPHandler) Select(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	req, ok, err := validatedBody[core.SelectRequest](c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewSelectCommand(gameID, req)), fiber.StatusOK)
}

// MakeMove sends the selected piece to a destination
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	req, ok, err := validatedBody[core.MoveRequest](c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewMoveCommand(gameID, req)), fiber.StatusOK)
}

// Promote replaces a pawn waiting on the last rank
func (h *HTTPHandler) Promote(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	req, ok, err := validatedBody[core.PromoteRequest](c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewPromoteCommand(gameID, req)), fiber.StatusOK)
}

func (h *HTTPHandler) Deselect(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewDeselectCommand(gameID)), fiber.StatusOK)
}

// UndoMove undoes one or more plies
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	req, ok, err := validatedBody[core.UndoRequest](c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewUndoMoveCommand(gameID, req)), fiber.StatusOK)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	return reply(c, h.proc.Execute(processor.NewGetBoardCommand(gameID)), fiber.StatusOK)
}

// LegalMoves lists the destinations of the piece on ?square=
func (h *HTTPHandler) LegalMoves(c *fiber.Ctx) error {
	gameID, ok, err := gameIDParam(c)
	if !ok {
		return err
	}
	square := c.Query("square")
	if len(square) != 2 {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid square",
			Code:    core.ErrInvalidRequest,
			Details: "square query parameter must be a coordinate like e2",
		})
	}
	return reply(c, h.proc.Execute(processor.NewLegalMovesCommand(gameID, square)), fiber.StatusOK)
}
