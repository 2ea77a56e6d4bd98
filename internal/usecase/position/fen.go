package position

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// parseSquare reads "e4" style coordinates.
func parseSquare(s string) (chess.Square, bool) {
	s = strings.ToLower(s)
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, false
	}
	return chess.Square(int(s[1]-'1')*8 + int(s[0]-'a')), true
}

// checkFields validates the text of the six FEN fields. notnil/chess reads
// counters, castling and en passant leniently, so they are checked here.
func checkFields(fen string) ([]string, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return nil, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}

	if err := checkPlacement(fields[0]); err != nil {
		return nil, err
	}

	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("side to move %q", fields[1])
	}

	if err := checkCastling(fields[2]); err != nil {
		return nil, err
	}

	if fields[3] != "-" {
		sq, ok := parseSquare(fields[3])
		if !ok || fields[3] != sq.String() {
			return nil, fmt.Errorf("en passant square %q", fields[3])
		}
		want := chess.Rank6
		if fields[1] == "b" {
			want = chess.Rank3
		}
		if sq.Rank() != want {
			return nil, fmt.Errorf("en passant square %s does not match side to move", fields[3])
		}
	}

	half, err := strconv.Atoi(fields[4])
	if err != nil || half < 0 {
		return nil, fmt.Errorf("half-move clock %q", fields[4])
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return nil, fmt.Errorf("full-move number %q", fields[5])
	}

	return fields, nil
}

func checkPlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("expected 8 ranks, got %d", len(ranks))
	}

	for i, row := range ranks {
		file := 0
		prevDigit := false
		for j := 0; j < len(row); j++ {
			c := row[j]
			switch {
			case c >= '1' && c <= '8':
				if prevDigit {
					return fmt.Errorf("rank %d has consecutive empty counts", 8-i)
				}
				file += int(c - '0')
				prevDigit = true
				continue
			case strings.IndexByte("pnbrqkPNBRQK", c) >= 0:
				file++
			default:
				return fmt.Errorf("illegal character %q", c)
			}
			prevDigit = false
		}
		if file != 8 {
			return fmt.Errorf("rank %d covers %d squares", 8-i, file)
		}
	}
	return nil
}

func checkCastling(field string) error {
	if field == "-" {
		return nil
	}
	seen := map[rune]bool{}
	for _, c := range field {
		if !strings.ContainsRune("KQkq", c) || seen[c] {
			return fmt.Errorf("castling rights %q", field)
		}
		seen[c] = true
	}
	return nil
}

// checkPosition rejects boards notnil/chess loads but cannot play on: a king
// count other than one per side, pawns on the back ranks and a position where
// the side to move could capture the opposing king.
func checkPosition(pos *chess.Position) error {
	kings := map[chess.Color]int{}
	for sq, p := range pos.Board().SquareMap() {
		switch p.Type() {
		case chess.King:
			kings[p.Color()]++
		case chess.Pawn:
			if r := sq.Rank(); r == chess.Rank1 || r == chess.Rank8 {
				return fmt.Errorf("pawn on %s", sq)
			}
		}
	}
	if kings[chess.White] != 1 || kings[chess.Black] != 1 {
		return errors.New("each side needs exactly one king")
	}

	board := pos.Board()
	for _, m := range pos.ValidMoves() {
		if board.Piece(m.S2()).Type() == chess.King {
			return errors.New("side not to move is in check")
		}
	}
	return nil
}

// newGame parses and validates fen into a game positioned on it.
func newGame(fen string) (*chess.Game, error) {
	if _, err := checkFields(fen); err != nil {
		return nil, err
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	game := chess.NewGame(opt)
	if err := checkPosition(game.Position()); err != nil {
		return nil, err
	}
	return game, nil
}
