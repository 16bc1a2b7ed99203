package rules

import "errors"

var (
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrIllegalDestination = errors.New("illegal destination")
	ErrPhaseViolation     = errors.New("operation not valid in current phase")
	ErrGameOver           = errors.New("game is over")
	ErrInvalidPromotion   = errors.New("invalid promotion piece")
)
