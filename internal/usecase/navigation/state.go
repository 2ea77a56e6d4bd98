// Package navigation keeps the board, the analysis session and both cursors of
// a study consistent. Reduce is pure; Controller runs it under a lock and
// executes the effects it asks for.
package navigation

import (
	"chess_study/internal/domain/study"
	"chess_study/internal/usecase/analysis"
	"chess_study/internal/usecase/cursor"
	"chess_study/internal/usecase/keyposition"
	"chess_study/internal/usecase/position"
)

const (
	DefaultLines = 4
	DefaultDepth = 15
	// MaxLines is the largest MultiPV value UCI engines accept.
	MaxLines = 500
)

type State struct {
	StudyID  string
	CourseID string

	// Position is the committed board position, Display what the board shows
	// right now. They differ while the analysis cursor is inside a line.
	Position    string
	Display     string
	Orientation study.Orientation

	KeyPositions []study.KeyPosition
	KeyIndex     int

	Phase   study.Phase
	Session *analysis.Session
	Cursor  cursor.Cursor

	Advisory string
	LastMove *study.MoveResult
	Error    string

	// Revision grows with every change that should reach the client.
	Revision uint64
}

func NewState(studyID, courseID string, keys []study.KeyPosition) State {
	return State{
		StudyID:      studyID,
		CourseID:     courseID,
		Position:     study.StartFEN,
		Display:      study.StartFEN,
		Orientation:  study.White,
		KeyPositions: keys,
		KeyIndex:     keyposition.None,
		Phase:        study.PhaseIdle,
		Cursor:       cursor.New(),
	}
}

func (s State) clone() State {
	c := s
	c.Session = s.Session.Clone()
	if s.LastMove != nil {
		m := *s.LastMove
		c.LastMove = &m
	}
	return c
}

func (s State) Snapshot() study.Snapshot {
	snap := study.Snapshot{
		StudyID:      s.StudyID,
		CourseID:     s.CourseID,
		Revision:     s.Revision,
		Position:     s.Position,
		Display:      s.Display,
		Orientation:  s.Orientation,
		KeyIndex:     keyposition.Ptr(s.KeyIndex),
		Phase:        s.Phase,
		Lines:        []study.AnalysisLine{},
		SelectedRank: s.Cursor.Rank,
		MoveOffset:   s.Cursor.Offset,
		Advisory:     s.Advisory,
		LastMove:     s.LastMove,
		Error:        s.Error,
	}
	if s.Session != nil {
		snap.AnalysisBase = s.Session.Base
		snap.Lines = s.Session.Lines()
	}
	return snap
}

// Saved returns the part of the state that is kept between connections.
func (s State) Saved() study.SavedStudy {
	return study.SavedStudy{
		StudyID:     s.StudyID,
		CourseID:    s.CourseID,
		Position:    s.Position,
		KeyIndex:    keyposition.Ptr(s.KeyIndex),
		Orientation: s.Orientation,
	}
}

// Restore applies a saved study on top of a fresh state. Analysis is never
// restored and an unreadable saved position is skipped.
func Restore(s State, saved study.SavedStudy) State {
	if fen, err := position.Load(saved.Position); err == nil {
		s.Position = fen
		s.Display = fen
	}
	if idx := keyposition.FromPtr(saved.KeyIndex); idx < len(s.KeyPositions) {
		s.KeyIndex = idx
	}
	if saved.Orientation == study.White || saved.Orientation == study.Black {
		s.Orientation = saved.Orientation
	}
	return s
}
