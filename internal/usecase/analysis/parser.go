package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"chess_study/internal/domain/study"
)

type MessageKind int

const (
	KindOther MessageKind = iota
	KindInfo
	KindBestMove
)

// Message is one parsed line of engine output. Rank is 0-based.
type Message struct {
	Kind  MessageKind
	Rank  int
	Depth int
	Score *study.Score
	Moves []string
}

// Commands returns the UCI conversation that starts an analysis of fen.
func Commands(fen string, opts study.AnalysisOptions) []string {
	return []string{
		"uci",
		"position fen " + fen,
		fmt.Sprintf("setoption name multipv value %d", opts.Lines),
		fmt.Sprintf("go depth %d multipv %d", opts.Depth, opts.Lines),
	}
}

// ParseMessage classifies raw engine output. An info line is a progress update
// only when it carries both a multipv rank and a non-empty pv; everything after
// the pv token is taken as the move list.
func ParseMessage(raw string) Message {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return Message{Kind: KindOther}
	}

	switch tokens[0] {
	case "bestmove":
		return Message{Kind: KindBestMove}
	case "info":
	default:
		return Message{Kind: KindOther}
	}

	pv := indexOf(tokens, "pv")
	mpv := indexOf(tokens, "multipv")
	if pv < 0 || mpv < 0 || pv == len(tokens)-1 || mpv == len(tokens)-1 {
		return Message{Kind: KindOther}
	}

	rank, err := strconv.Atoi(tokens[mpv+1])
	if err != nil || rank < 1 {
		return Message{Kind: KindOther}
	}

	msg := Message{
		Kind:  KindInfo,
		Rank:  rank - 1,
		Moves: append([]string(nil), tokens[pv+1:]...),
	}

	if i := indexOf(tokens[:pv], "depth"); i >= 0 && i+1 < pv {
		if d, err := strconv.Atoi(tokens[i+1]); err == nil && d >= 0 {
			msg.Depth = d
		}
	}

	if i := indexOf(tokens[:pv], "score"); i >= 0 && i+2 < pv {
		if v, err := strconv.Atoi(tokens[i+2]); err == nil {
			switch tokens[i+1] {
			case "cp":
				msg.Score = &study.Score{Kind: study.ScoreCentipawns, Value: v}
			case "mate":
				msg.Score = &study.Score{Kind: study.ScoreMate, Value: v}
			}
		}
	}

	return msg
}

func indexOf(tokens []string, want string) int {
	for i, t := range tokens {
		if t == want {
			return i
		}
	}
	return -1
}
