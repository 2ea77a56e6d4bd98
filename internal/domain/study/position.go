package study

import "strings"

const (
	StartKeyword = "start"
	StartFEN     = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Move is a half-move in coordinate form. Promotion is one of q, r, b, n or empty.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// ParseMove splits compact coordinate notation ("e2e4", "e7e8q").
// The result is not validated; ApplyMove does that.
func ParseMove(s string) Move {
	s = strings.TrimSpace(s)
	m := Move{}
	if len(s) >= 2 {
		m.From = s[:2]
	}
	if len(s) >= 4 {
		m.To = s[2:4]
	}
	if len(s) > 4 {
		m.Promotion = s[4:]
	}
	return m
}

func (m Move) UCI() string {
	return strings.ToLower(m.From + m.To + m.Promotion)
}

type GameStatus string

const (
	StatusOngoing              GameStatus = "ongoing"
	StatusCheckmate            GameStatus = "checkmate"
	StatusStalemate            GameStatus = "stalemate"
	StatusInsufficientMaterial GameStatus = "insufficient_material"
	StatusSeventyFiveMoveRule  GameStatus = "seventy_five_move_rule"
	StatusFivefoldRepetition   GameStatus = "fivefold_repetition"
)

// Over reports whether the status ends the game.
func (s GameStatus) Over() bool {
	return s != "" && s != StatusOngoing
}

type MoveResult struct {
	FEN            string     `json:"fen"`
	SAN            string     `json:"san"`
	Status         GameStatus `json:"status"`
	Winner         string     `json:"winner,omitempty"`
	ClaimableDraws []string   `json:"claimable_draws,omitempty"`
}
