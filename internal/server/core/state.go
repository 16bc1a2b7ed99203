package core

// Phase is the step of the turn state machine the game is in
type Phase int

const (
	PhaseChoosingPiece Phase = iota
	PhaseMovingAPiece
	PhasePawnPromotion
)

func (p Phase) String() string {
	switch p {
	case PhaseChoosingPiece:
		return "choosing_piece"
	case PhaseMovingAPiece:
		return "moving_a_piece"
	case PhasePawnPromotion:
		return "pawn_promotion"
	default:
		return "unknown"
	}
}

// Situation is the adjudicated status for the side to move
type Situation int

const (
	SituationCasual Situation = iota
	SituationCheck
	SituationCheckmate
	SituationStalemate
)

func (s Situation) String() string {
	switch s {
	case SituationCasual:
		return "casual"
	case SituationCheck:
		return "check"
	case SituationCheckmate:
		return "checkmate"
	case SituationStalemate:
		return "stalemate"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether play has ended
func (s Situation) IsTerminal() bool {
	return s == SituationCheckmate || s == SituationStalemate
}
