package study

type AnalysisOptions struct {
	Lines int `json:"lines"`
	Depth int `json:"depth"`
}

type ScoreKind string

const (
	ScoreCentipawns ScoreKind = "cp"
	ScoreMate       ScoreKind = "mate"
)

type Score struct {
	Kind  ScoreKind `json:"kind"`
	Value int       `json:"value"`
}

// AnalysisLine is one ranked engine continuation. Rank is 0-based (multipv 1 -> 0).
type AnalysisLine struct {
	Rank  int      `json:"rank"`
	Depth int      `json:"depth"`
	Score *Score   `json:"score,omitempty"`
	Moves []string `json:"moves"`
}

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnalyzing Phase = "analyzing"
)
