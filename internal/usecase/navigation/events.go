package navigation

import "chess_study/internal/domain/study"

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Pad is a press on one of the two directional pads.
type Pad struct {
	Pad       study.Pad
	Direction study.Direction
}

type SetKeyPositions struct {
	List []study.KeyPosition
}

// SelectKeyPosition picks an entry of the list without loading it. Index -1
// clears the selection.
type SelectKeyPosition struct {
	Index int
}

type LoadPosition struct {
	FEN string
}

type MakeMove struct {
	Move study.Move
}

type RequestAnalysis struct {
	Handle  string
	Options study.AnalysisOptions
}

type EngineOutput struct {
	Handle string
	Line   string
}

type EngineFailed struct {
	Handle string
	Err    error
}

type SelectLine struct {
	Rank int
}

type FlipBoard struct{}

func (Pad) isEvent()               {}
func (SetKeyPositions) isEvent()   {}
func (SelectKeyPosition) isEvent() {}
func (LoadPosition) isEvent()      {}
func (MakeMove) isEvent()          {}
func (RequestAnalysis) isEvent()   {}
func (EngineOutput) isEvent()      {}
func (EngineFailed) isEvent()      {}
func (SelectLine) isEvent()        {}
func (FlipBoard) isEvent()         {}

// Effect is work Reduce asks its runner to do.
type Effect interface {
	isEffect()
}

type StartAnalysis struct {
	Handle  string
	FEN     string
	Options study.AnalysisOptions
}

type CancelAnalysis struct {
	Handle string
}

// LineDiscarded reports a candidate line that could not be replayed and was
// dropped from the session.
type LineDiscarded struct {
	Handle string
	Rank   int
	Err    error
}

func (StartAnalysis) isEffect()  {}
func (CancelAnalysis) isEffect() {}
func (LineDiscarded) isEffect()  {}
