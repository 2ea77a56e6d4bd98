package navigation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
	"chess_study/internal/usecase/keyposition"
)

var keys = []study.KeyPosition{
	{ID: "open-sicilian", FEN: "rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", Description: "1.e4 c5"},
	{ID: "nc6", FEN: "r1bqkbnr/pp1ppppp/2n5/2p5/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3", Description: "2.Nf3 Nc6"},
	{ID: "accelerated-dragon", FEN: "r1bqkbnr/pp1ppp1p/2n3p1/8/3NP3/8/PPP2PPP/RNBQKB1R w KQkq - 0 5", Description: "4...g6"},
}

var opts = study.AnalysisOptions{Lines: 4, Depth: 15}

func mustReduce(t *testing.T, s State, ev Event) (State, []Effect) {
	t.Helper()
	next, effects, err := Reduce(s, ev)
	require.NoError(t, err)
	return next, effects
}

func placement(fen string) string {
	return strings.Fields(fen)[0]
}

func TestKeyPadCycle(t *testing.T) {
	s := NewState("s1", "c1", keys)

	up, _ := mustReduce(t, s, Pad{Pad: study.PadKeyPositions, Direction: study.Up})
	assert.Equal(t, 2, up.KeyIndex)

	down, _ := mustReduce(t, s, Pad{Pad: study.PadKeyPositions, Direction: study.Down})
	assert.Equal(t, 0, down.KeyIndex)
}

func TestKeyPadCommitWithoutSelection(t *testing.T) {
	s := NewState("s1", "c1", keys)

	next, effects := mustReduce(t, s, Pad{Pad: study.PadKeyPositions, Direction: study.Right})
	assert.Empty(t, effects)
	assert.Equal(t, study.AdvisoryPickPosition, next.Advisory)
	assert.Equal(t, study.StartFEN, next.Position)

	next, _ = mustReduce(t, next, Pad{Pad: study.PadKeyPositions, Direction: study.Down})
	assert.Empty(t, next.Advisory)
}

func TestKeyPadCommitAndReset(t *testing.T) {
	s := NewState("s1", "c1", keys)
	s, _ = mustReduce(t, s, SelectKeyPosition{Index: 1})
	s, _ = mustReduce(t, s, Pad{Pad: study.PadKeyPositions, Direction: study.Right})

	assert.Equal(t, keys[1].FEN, s.Position)
	assert.Equal(t, keys[1].FEN, s.Display)
	assert.Equal(t, 1, s.KeyIndex)

	s, _ = mustReduce(t, s, Pad{Pad: study.PadKeyPositions, Direction: study.Left})
	assert.Equal(t, study.StartFEN, s.Position)
	assert.Equal(t, 1, s.KeyIndex)
}

func TestSelectKeyPositionOutOfRange(t *testing.T) {
	s := NewState("s1", "c1", keys)
	_, _, err := Reduce(s, SelectKeyPosition{Index: 3})
	assert.Error(t, err)

	next, _ := mustReduce(t, s, SelectKeyPosition{Index: keyposition.None})
	assert.Equal(t, keyposition.None, next.KeyIndex)
}

func TestAnalysisScenario(t *testing.T) {
	s := NewState("s1", "c1", nil)

	s, effects := mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	require.Equal(t, []Effect{StartAnalysis{Handle: "h1", FEN: study.StartFEN, Options: opts}}, effects)
	assert.Equal(t, study.PhaseAnalyzing, s.Phase)

	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 10 multipv 1 score cp 30 pv e2e4 e7e5 g1f3"})
	s, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Right})

	assert.Equal(t, 0, s.Cursor.Offset)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR", placement(s.Display))
	assert.Equal(t, study.StartFEN, s.Position)

	s, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Left})
	assert.Equal(t, study.StartFEN, s.Display)
	assert.Equal(t, -1, s.Cursor.Offset)
}

func TestAnalysisStartsFromCommittedPosition(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 10 multipv 1 pv e2e4 e7e5"})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "bestmove e2e4"})
	s, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Right})
	require.NotEqual(t, s.Position, s.Display)

	s, effects := mustReduce(t, s, RequestAnalysis{Handle: "h2", Options: opts})
	require.Equal(t, []Effect{StartAnalysis{Handle: "h2", FEN: study.StartFEN, Options: opts}}, effects)
	assert.Equal(t, study.StartFEN, s.Display)
	assert.Equal(t, study.StartFEN, s.Session.Base)
	assert.Equal(t, s.Position, s.Saved().Position)
}

func TestStaleHandleCannotAlterNewSession(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})

	s, effects := mustReduce(t, s, RequestAnalysis{Handle: "h2", Options: opts})
	require.Equal(t, []Effect{
		CancelAnalysis{Handle: "h1"},
		StartAnalysis{Handle: "h2", FEN: study.StartFEN, Options: opts},
	}, effects)

	before := s.Snapshot()
	for _, line := range []string{
		"info depth 20 multipv 1 pv a2a3",
		"bestmove a2a3",
	} {
		next, effects, err := Reduce(s, EngineOutput{Handle: "h1", Line: line})
		require.NoError(t, err)
		assert.Empty(t, effects)
		assert.Empty(t, cmp.Diff(before, next.Snapshot()))
	}

	next, _, err := Reduce(s, EngineFailed{Handle: "h1", Err: apperrors.ErrEngineUnavailable})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(before, next.Snapshot()))
}

func TestBestMoveWithoutLinesEndsAnalysis(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "bestmove (none)"})

	snap := s.Snapshot()
	assert.Equal(t, study.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Lines)
	assert.NotNil(t, snap.Lines)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewState("s1", "c1", keys)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 5 multipv 1 pv d2d4"})

	before := s.Snapshot()
	_, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 6 multipv 1 pv e2e4 e7e5"})
	_, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Right})
	_, _ = mustReduce(t, s, MakeMove{Move: study.ParseMove("g1f3")})

	assert.Empty(t, cmp.Diff(before, s.Snapshot()))
}

func TestMakeMoveRejected(t *testing.T) {
	s := NewState("s1", "c1", nil)

	next, effects, err := Reduce(s, MakeMove{Move: study.ParseMove("e3e4")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIllegalMove)
	assert.Nil(t, effects)
	assert.Equal(t, study.StartFEN, next.Position)
	assert.Equal(t, s.Revision, next.Revision)
}

func TestMakeMoveCancelsAnalysis(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 5 multipv 1 pv e2e4"})

	s, effects := mustReduce(t, s, MakeMove{Move: study.ParseMove("d2d4")})
	assert.Equal(t, []Effect{CancelAnalysis{Handle: "h1"}}, effects)
	assert.Equal(t, study.PhaseIdle, s.Phase)
	assert.Nil(t, s.Session)
	require.NotNil(t, s.LastMove)
	assert.Equal(t, "d4", s.LastMove.SAN)
	assert.Equal(t, s.Position, s.Display)
}

func TestMoveFromAnalysisDisplay(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 5 multipv 1 pv e2e4"})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "bestmove e2e4"})
	s, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Right})

	s, effects := mustReduce(t, s, MakeMove{Move: study.ParseMove("e7e5")})
	assert.Empty(t, effects)
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR", placement(s.Position))
}

func TestLoadPosition(t *testing.T) {
	s := NewState("s1", "c1", nil)

	_, _, err := Reduce(s, LoadPosition{FEN: "not a fen"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFen)

	s, _ = mustReduce(t, s, LoadPosition{FEN: keys[2].FEN})
	assert.Equal(t, keys[2].FEN, s.Position)
}

func TestEngineFailure(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 5 multipv 1 pv e2e4"})

	s, _ = mustReduce(t, s, EngineFailed{Handle: "h1", Err: errors.New("engine unavailable: exited")})
	snap := s.Snapshot()
	assert.Equal(t, study.PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, "engine unavailable: exited", snap.Error)

	s, _ = mustReduce(t, s, FlipBoard{})
	assert.Empty(t, s.Error)
}

func TestCorruptLineIsDiscarded(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 5 multipv 1 pv e2e4 e2e4"})
	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 5 multipv 2 pv d2d4"})
	s, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Right})

	s, effects := mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Right})
	require.Len(t, effects, 1)
	discarded, ok := effects[0].(LineDiscarded)
	require.True(t, ok)
	assert.Equal(t, 0, discarded.Rank)
	assert.ErrorIs(t, discarded.Err, apperrors.ErrCorruptAnalysisLine)

	assert.Len(t, s.Snapshot().Lines, 1)
	assert.Equal(t, study.StartFEN, s.Display)

	s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: "info depth 9 multipv 1 pv c2c4"})
	assert.Len(t, s.Snapshot().Lines, 1)
}

func TestAnalysisPadCyclesLines(t *testing.T) {
	s := NewState("s1", "c1", nil)
	s, _ = mustReduce(t, s, RequestAnalysis{Handle: "h1", Options: opts})
	for _, l := range []string{
		"info depth 5 multipv 1 pv e2e4",
		"info depth 5 multipv 2 pv d2d4",
	} {
		s, _ = mustReduce(t, s, EngineOutput{Handle: "h1", Line: l})
	}

	s, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Up})
	assert.Equal(t, 1, s.Cursor.Rank)
	s, _ = mustReduce(t, s, Pad{Pad: study.PadAnalysis, Direction: study.Down})
	assert.Equal(t, 0, s.Cursor.Rank)
}

func TestUnknownPad(t *testing.T) {
	s := NewState("s1", "c1", nil)

	_, _, err := Reduce(s, Pad{Pad: "joystick", Direction: study.Up})
	assert.ErrorIs(t, err, apperrors.ErrUnknownCommand)

	_, _, err = Reduce(s, Pad{Pad: study.PadAnalysis, Direction: "sideways"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownCommand)
}

func TestFlipAndRestore(t *testing.T) {
	s := NewState("s1", "c1", keys)
	s, _ = mustReduce(t, s, FlipBoard{})
	s, _ = mustReduce(t, s, SelectKeyPosition{Index: 2})
	s, _ = mustReduce(t, s, LoadPosition{FEN: keys[2].FEN})

	restored := Restore(NewState("s1", "c1", keys), s.Saved())
	assert.Equal(t, study.Black, restored.Orientation)
	assert.Equal(t, 2, restored.KeyIndex)
	assert.Equal(t, keys[2].FEN, restored.Display)
	assert.Nil(t, restored.Session)
}
