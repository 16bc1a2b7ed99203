package core

// Request types

type CreateGameRequest struct {
	White PlayerConfig `json:"white"`
	Black PlayerConfig `json:"black"`
	FEN   string       `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white"`
	Black PlayerConfig `json:"black"`
}

type SelectRequest struct {
	Square string `json:"square" validate:"required,len=2"` // "e2"
}

type MoveRequest struct {
	To string `json:"to" validate:"required,len=2"`
}

type PromoteRequest struct {
	Piece string `json:"piece" validate:"required,oneof=q r b n queen rook bishop knight"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID     string          `json:"gameId"`
	FEN        string          `json:"fen"`
	Turn       string          `json:"turn"`      // "w" or "b"
	Phase      string          `json:"phase"`     // "choosing_piece", "moving_a_piece", "pawn_promotion"
	Situation  string          `json:"situation"` // "casual", "check", "checkmate", "stalemate"
	Selected   string          `json:"selected,omitempty"`
	LegalMoves []string        `json:"legalMoves,omitempty"`
	Promotion  string          `json:"promotionSquare,omitempty"` // pawn waiting in pawn_promotion
	Moves      []string        `json:"moves"`
	Players    PlayersResponse `json:"players"`
	LastMove   *MoveInfo       `json:"lastMove,omitempty"`
}

type MoveInfo struct {
	Move        string `json:"move"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
	Captured    string `json:"captured,omitempty"`
	Castled     bool   `json:"castled,omitempty"`
	EnPassant   bool   `json:"enPassant,omitempty"`
	Promotion   string `json:"promotion,omitempty"`
}

// SquareDelta is one changed square; Piece is a FEN letter or empty when cleared
type SquareDelta struct {
	Square string `json:"square"`
	Piece  string `json:"piece,omitempty"`
}

type SelectionResponse struct {
	GameID     string   `json:"gameId"`
	Square     string   `json:"square"`
	Piece      string   `json:"piece"`
	LegalMoves []string `json:"legalMoves"`
}

type MoveResponse struct {
	Game  GameResponse  `json:"game"`
	Delta []SquareDelta `json:"delta"`
}

type LegalMovesResponse struct {
	Square     string   `json:"square"`
	LegalMoves []string `json:"legalMoves"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
