// Package domain contains the trivia entities and their invariants, no transport or timing.
package domain

import "unicode/utf8"

const (
	MaxNameLen = 64
)

type PlayerID string

type PlayerStatus string

const (
	PlayerHost     PlayerStatus = "HOST"
	PlayerNotReady PlayerStatus = "NOT_READY"
	PlayerReady    PlayerStatus = "READY"
)

// Identity is what the identity resolver vouches for.
type Identity struct {
	ID       PlayerID `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	ImageURL string   `json:"imageURL"`
}

type Player struct {
	ID       PlayerID     `json:"id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	ImageURL string       `json:"imageURL"`
	Status   PlayerStatus `json:"status"`
	Score    int          `json:"score"`

	joinSeq int
}

// NewPlayer avoids ad-hoc struct literals in the orchestrator.
func NewPlayer(id Identity, status PlayerStatus) *Player {
	name := id.Name
	if utf8.RuneCountInString(name) > MaxNameLen {
		name = string([]rune(name)[:MaxNameLen])
	}
	return &Player{
		ID:       id.ID,
		Name:     name,
		Email:    id.Email,
		ImageURL: id.ImageURL,
		Status:   status,
	}
}

func (p *Player) IsHost() bool { return p.Status == PlayerHost }

// ParsePlayerStatus accepts only the statuses a non-host may set on itself.
func ParsePlayerStatus(s string) (PlayerStatus, error) {
	switch PlayerStatus(s) {
	case PlayerReady, PlayerNotReady:
		return PlayerStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}
