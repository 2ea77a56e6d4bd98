package analysis

import (
	"sort"

	"chess_study/internal/domain/study"
)

// Session is the set of candidate lines produced for one base position.
// A session is replaced, never reset: a new request gets a new handle.
type Session struct {
	Handle  string
	Base    string
	Options study.AnalysisOptions

	lines      map[int]study.AnalysisLine
	discarded  map[int]bool
	inProgress bool
}

func NewSession(handle, base string, opts study.AnalysisOptions) *Session {
	return &Session{
		Handle:     handle,
		Base:       base,
		Options:    opts,
		lines:      make(map[int]study.AnalysisLine),
		discarded:  make(map[int]bool),
		inProgress: true,
	}
}

// Apply folds one engine message into the session and reports whether the
// line set or the progress flag changed. Once bestmove has been seen the
// session is frozen and every later message is ignored.
func (s *Session) Apply(raw string) bool {
	if !s.inProgress {
		return false
	}

	msg := ParseMessage(raw)
	switch msg.Kind {
	case KindBestMove:
		s.inProgress = false
		return true
	case KindInfo:
		if msg.Rank >= s.Options.Lines || s.discarded[msg.Rank] {
			return false
		}
		if prev, ok := s.lines[msg.Rank]; ok && msg.Depth < prev.Depth {
			return false
		}
		s.lines[msg.Rank] = study.AnalysisLine{
			Rank:  msg.Rank,
			Depth: msg.Depth,
			Score: msg.Score,
			Moves: msg.Moves,
		}
		return true
	}
	return false
}

func (s *Session) InProgress() bool {
	return s.inProgress
}

// Finish freezes the session without a bestmove, e.g. after a worker failure.
func (s *Session) Finish() {
	s.inProgress = false
}

// Discard drops rank and ignores any later update for it.
func (s *Session) Discard(rank int) {
	delete(s.lines, rank)
	s.discarded[rank] = true
}

func (s *Session) Line(rank int) (study.AnalysisLine, bool) {
	l, ok := s.lines[rank]
	return l, ok
}

// Ranks returns the populated ranks in ascending order.
func (s *Session) Ranks() []int {
	ranks := make([]int, 0, len(s.lines))
	for r := range s.lines {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks
}

// Lines returns the populated lines ordered by rank.
func (s *Session) Lines() []study.AnalysisLine {
	out := make([]study.AnalysisLine, 0, len(s.lines))
	for _, r := range s.Ranks() {
		out = append(out, s.lines[r])
	}
	return out
}

// Clone returns a deep copy that shares nothing mutable with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := &Session{
		Handle:     s.Handle,
		Base:       s.Base,
		Options:    s.Options,
		lines:      make(map[int]study.AnalysisLine, len(s.lines)),
		discarded:  make(map[int]bool, len(s.discarded)),
		inProgress: s.inProgress,
	}
	for r, l := range s.lines {
		l.Moves = append([]string(nil), l.Moves...)
		if l.Score != nil {
			score := *l.Score
			l.Score = &score
		}
		c.lines[r] = l
	}
	for r := range s.discarded {
		c.discarded[r] = true
	}
	return c
}
