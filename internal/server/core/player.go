package core

import (
	"github.com/google/uuid"
)

// Player is one side of a game
type Player struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Name  string `json:"name,omitempty"`
}

// PlayerConfig for API requests and configuration
type PlayerConfig struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=40"`
}

// PlayersResponse for API responses
type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}

// NewPlayer creates a Player from PlayerConfig
func NewPlayer(config PlayerConfig, color Color) *Player {
	player := &Player{
		ID:    uuid.New().String(),
		Color: color,
		Name:  config.Name,
	}
	if player.Name == "" {
		player.Name = color.Name()
	}
	return player
}
