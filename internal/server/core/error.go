package core

// Error codes
const (
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrInvalidSelection  = "INVALID_SELECTION"
	ErrIllegalMove       = "ILLEGAL_MOVE"
	ErrPhaseViolation    = "PHASE_VIOLATION"
	ErrInvalidPromotion  = "INVALID_PROMOTION"
	ErrGameOver          = "GAME_OVER"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidFEN        = "INVALID_FEN"
	ErrInternalError     = "INTERNAL_ERROR"
)
