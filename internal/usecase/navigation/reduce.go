package navigation

import (
	"errors"
	"fmt"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
	"chess_study/internal/usecase/analysis"
	"chess_study/internal/usecase/cursor"
	"chess_study/internal/usecase/keyposition"
	"chess_study/internal/usecase/position"
)

// Reduce applies ev to s. It never mutates s. When it returns an error the
// returned state is s and no effect is requested.
func Reduce(s State, ev Event) (State, []Effect, error) {
	next := s.clone()

	var (
		effects []Effect
		changed = true
		err     error
	)

	switch ev := ev.(type) {
	case EngineOutput:
		changed, effects = onEngineOutput(&next, ev)
	case EngineFailed:
		changed = onEngineFailed(&next, ev)
	default:
		next.Advisory = ""
		next.Error = ""
		effects, err = onUserEvent(&next, ev)
	}

	if err != nil {
		return s, nil, err
	}
	if !changed {
		return s, nil, nil
	}
	next.Revision++
	return next, effects, nil
}

func onUserEvent(s *State, ev Event) ([]Effect, error) {
	switch ev := ev.(type) {
	case Pad:
		return onPad(s, ev)

	case SetKeyPositions:
		s.KeyPositions = ev.List
		s.KeyIndex = keyposition.None
		return nil, nil

	case SelectKeyPosition:
		if ev.Index < -1 || ev.Index >= len(s.KeyPositions) {
			return nil, fmt.Errorf("key position %d out of range [0, %d)", ev.Index, len(s.KeyPositions))
		}
		s.KeyIndex = ev.Index
		return nil, nil

	case LoadPosition:
		fen, err := position.Load(ev.FEN)
		if err != nil {
			return nil, err
		}
		return load(s, fen), nil

	case MakeMove:
		res, err := position.ApplyMove(s.Display, ev.Move)
		if err != nil {
			return nil, err
		}
		effects := load(s, res.FEN)
		s.LastMove = &res
		return effects, nil

	case RequestAnalysis:
		return requestAnalysis(s, ev), nil

	case SelectLine:
		if s.Session == nil {
			return nil, nil
		}
		if _, ok := s.Session.Line(ev.Rank); !ok {
			return nil, fmt.Errorf("no analysis line with rank %d", ev.Rank+1)
		}
		s.Cursor, s.Display = cursor.SelectLine(s.Session, ev.Rank)
		return nil, nil

	case FlipBoard:
		if s.Orientation == study.Black {
			s.Orientation = study.White
		} else {
			s.Orientation = study.Black
		}
		return nil, nil
	}

	return nil, fmt.Errorf("%w: %T", apperrors.ErrUnknownCommand, ev)
}

func onPad(s *State, ev Pad) ([]Effect, error) {
	if !ev.Direction.Valid() {
		return nil, fmt.Errorf("%w: direction %q", apperrors.ErrUnknownCommand, ev.Direction)
	}

	switch ev.Pad {
	case study.PadKeyPositions:
		switch ev.Direction {
		case study.Up, study.Down:
			s.KeyIndex = keyposition.Cycle(s.KeyPositions, s.KeyIndex, ev.Direction)
			return nil, nil
		case study.Left:
			return load(s, study.StartFEN), nil
		default:
			if s.KeyIndex == keyposition.None {
				s.Advisory = study.AdvisoryPickPosition
				return nil, nil
			}
			fen, err := position.Load(keyposition.Commit(s.KeyPositions, s.KeyIndex))
			if err != nil {
				return nil, err
			}
			return load(s, fen), nil
		}

	case study.PadAnalysis:
		switch ev.Direction {
		case study.Up, study.Down:
			if c, fen, ok := cursor.CycleLine(s.Session, s.Cursor, ev.Direction); ok {
				s.Cursor, s.Display = c, fen
			}
			return nil, nil
		default:
			c, fen, err := cursor.Step(s.Session, s.Cursor, ev.Direction)
			if errors.Is(err, apperrors.ErrCorruptAnalysisLine) {
				return []Effect{discard(s, err)}, nil
			}
			if err != nil {
				return nil, err
			}
			if s.Session != nil {
				s.Cursor, s.Display = c, fen
			}
			return nil, nil
		}
	}

	return nil, fmt.Errorf("%w: pad %q", apperrors.ErrUnknownCommand, ev.Pad)
}

// load replaces the board position. Any running analysis is cancelled and
// its lines are dropped.
func load(s *State, fen string) []Effect {
	var effects []Effect
	if s.Session != nil && s.Phase == study.PhaseAnalyzing {
		effects = append(effects, CancelAnalysis{Handle: s.Session.Handle})
	}
	s.Session = nil
	s.Phase = study.PhaseIdle
	s.Cursor = cursor.New()
	s.Position = fen
	s.Display = fen
	s.LastMove = nil
	return effects
}

func requestAnalysis(s *State, ev RequestAnalysis) []Effect {
	opts := normalizeOptions(ev.Options)

	var effects []Effect
	if s.Session != nil && s.Phase == study.PhaseAnalyzing {
		effects = append(effects, CancelAnalysis{Handle: s.Session.Handle})
	}

	// Analysis always starts from the committed position; a board stepped
	// into an older line goes back to it.
	s.Session = analysis.NewSession(ev.Handle, s.Position, opts)
	s.Phase = study.PhaseAnalyzing
	s.Cursor = cursor.New()
	s.Display = s.Position

	return append(effects, StartAnalysis{Handle: ev.Handle, FEN: s.Position, Options: opts})
}

func normalizeOptions(o study.AnalysisOptions) study.AnalysisOptions {
	if o.Lines <= 0 {
		o.Lines = DefaultLines
	}
	if o.Lines > MaxLines {
		o.Lines = MaxLines
	}
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	return o
}

func onEngineOutput(s *State, ev EngineOutput) (bool, []Effect) {
	if s.Session == nil || s.Session.Handle != ev.Handle {
		return false, nil
	}
	if !s.Session.Apply(ev.Line) {
		return false, nil
	}
	if !s.Session.InProgress() {
		s.Phase = study.PhaseIdle
	}

	// The line under the cursor may have been replaced by a shorter or
	// different one; keep the board in sync with it.
	msg := analysis.ParseMessage(ev.Line)
	if msg.Kind != analysis.KindInfo || msg.Rank != s.Cursor.Rank || s.Cursor.Offset < 0 {
		return true, nil
	}
	line, _ := s.Session.Line(msg.Rank)
	if s.Cursor.Offset > len(line.Moves)-1 {
		s.Cursor.Offset = len(line.Moves) - 1
	}
	fen, err := position.Replay(s.Session.Base, line.Moves, s.Cursor.Offset)
	if err != nil {
		err = fmt.Errorf("%w: rank %d: %v", apperrors.ErrCorruptAnalysisLine, msg.Rank+1, err)
		return true, []Effect{discard(s, err)}
	}
	s.Display = fen
	return true, nil
}

func onEngineFailed(s *State, ev EngineFailed) bool {
	if s.Session == nil || s.Session.Handle != ev.Handle {
		return false
	}
	base := s.Session.Base
	s.Session = nil
	s.Phase = study.PhaseIdle
	s.Cursor = cursor.New()
	s.Display = base
	if ev.Err != nil {
		s.Error = ev.Err.Error()
	} else {
		s.Error = apperrors.ErrEngineUnavailable.Error()
	}
	return true
}

// discard drops the line under the cursor and rewinds the board to the
// analysis base.
func discard(s *State, err error) Effect {
	rank := s.Cursor.Rank
	s.Session.Discard(rank)
	s.Cursor, s.Display = cursor.SelectLine(s.Session, rank)
	s.Error = err.Error()
	return LineDiscarded{Handle: s.Session.Handle, Rank: rank, Err: err}
}
