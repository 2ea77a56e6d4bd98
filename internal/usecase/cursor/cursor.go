// Package cursor walks the candidate lines of an analysis session: one line
// is selected and a move offset inside it decides what the board shows.
package cursor

import (
	"fmt"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
	"chess_study/internal/usecase/analysis"
	"chess_study/internal/usecase/position"
)

// Cursor points at move Offset of line Rank. Offset -1 is the base position.
type Cursor struct {
	Rank   int
	Offset int
}

func New() Cursor {
	return Cursor{Rank: 0, Offset: -1}
}

// SelectLine moves the cursor to rank and rewinds it to the base position.
func SelectLine(s *analysis.Session, rank int) (Cursor, string) {
	c := Cursor{Rank: rank, Offset: -1}
	if s == nil {
		return c, ""
	}
	return c, s.Base
}

// Step moves one half-move along the selected line, saturating at both ends,
// and returns the position reached. A line that cannot be replayed from the
// base is reported as ErrCorruptAnalysisLine and the cursor does not move.
func Step(s *analysis.Session, c Cursor, d study.Direction) (Cursor, string, error) {
	if s == nil {
		return c, "", nil
	}
	line, ok := s.Line(c.Rank)
	if !ok {
		return c, s.Base, nil
	}
	if c.Offset > len(line.Moves)-1 {
		c.Offset = len(line.Moves) - 1
	}

	next := c
	switch d {
	case study.Right:
		if next.Offset < len(line.Moves)-1 {
			next.Offset++
		}
	case study.Left:
		if next.Offset > -1 {
			next.Offset--
		}
	default:
		return c, "", fmt.Errorf("step direction %q", d)
	}

	fen, err := position.Replay(s.Base, line.Moves, next.Offset)
	if err != nil {
		return c, "", fmt.Errorf("%w: rank %d: %v", apperrors.ErrCorruptAnalysisLine, c.Rank+1, err)
	}
	return next, fen, nil
}

// CycleLine selects the previous (up) or next (down) populated rank, wrapping
// around. Ranks keep their engine order. Without lines it is a no-op.
func CycleLine(s *analysis.Session, c Cursor, d study.Direction) (Cursor, string, bool) {
	if s == nil {
		return c, "", false
	}
	ranks := s.Ranks()
	if len(ranks) == 0 {
		return c, "", false
	}

	var rank int
	switch d {
	case study.Up:
		rank = ranks[len(ranks)-1]
		for i := len(ranks) - 1; i >= 0; i-- {
			if ranks[i] < c.Rank {
				rank = ranks[i]
				break
			}
		}
	case study.Down:
		rank = ranks[0]
		for _, r := range ranks {
			if r > c.Rank {
				rank = r
				break
			}
		}
	default:
		return c, "", false
	}

	next, fen := SelectLine(s, rank)
	return next, fen, true
}
