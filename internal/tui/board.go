// Package tui is a terminal study board: arrow keys drive the key-position
// pad and h/j/k/l the analysis pad.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chess_study/internal/domain/study"
	"chess_study/internal/usecase/navigation"
)

var (
	lightSquare = lipgloss.NewStyle().Background(lipgloss.Color("180")).Foreground(lipgloss.Color("0"))
	darkSquare  = lipgloss.NewStyle().Background(lipgloss.Color("94")).Foreground(lipgloss.Color("0"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle  = lipgloss.NewStyle().PaddingLeft(2)
)

var glyphs = map[rune]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

type changedMsg struct{}

type Model struct {
	ctrl    *navigation.Controller
	course  study.Course
	changed chan struct{}
	snap    study.Snapshot
	keys    []study.KeyPosition
	status  string
}

// New subscribes to ctrl; the caller still owns ctrl and closes it after the
// program exits.
func New(ctrl *navigation.Controller, course study.Course) Model {
	changed := make(chan struct{}, 1)
	ctrl.Subscribe(func(study.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	return Model{
		ctrl:    ctrl,
		course:  course,
		changed: changed,
		snap:    ctrl.Snapshot(),
		keys:    ctrl.KeyPositions(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForChange
}

func (m Model) waitForChange() tea.Msg {
	<-m.changed
	return changedMsg{}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.snap = m.ctrl.Snapshot()
		m.keys = m.ctrl.KeyPositions()
		return m, m.waitForChange

	case tea.KeyMsg:
		var (
			ev      navigation.Event
			analyze bool
		)
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "down", "left", "right":
			ev = navigation.Pad{Pad: study.PadKeyPositions, Direction: study.Direction(msg.String())}
		case "k":
			ev = navigation.Pad{Pad: study.PadAnalysis, Direction: study.Up}
		case "j":
			ev = navigation.Pad{Pad: study.PadAnalysis, Direction: study.Down}
		case "h":
			ev = navigation.Pad{Pad: study.PadAnalysis, Direction: study.Left}
		case "l":
			ev = navigation.Pad{Pad: study.PadAnalysis, Direction: study.Right}
		case "f":
			ev = navigation.FlipBoard{}
		case "a":
			analyze = true
		default:
			return m, nil
		}

		var err error
		if analyze {
			m.snap, err = m.ctrl.Analyze(study.AnalysisOptions{})
		} else {
			m.snap, err = m.ctrl.Dispatch(ev)
		}
		m.status = ""
		if err != nil {
			m.status = err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	left := RenderBoard(m.snap.Display, m.snap.Orientation)
	right := panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.viewKeyPositions(),
		"",
		m.viewLines(),
	))

	var b strings.Builder
	title := m.course.Title
	if title == "" {
		title = "Free study"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n\n")

	if m.snap.Advisory != "" {
		b.WriteString(warnStyle.Render(m.snap.Advisory) + "\n")
	}
	if m.snap.Error != "" {
		b.WriteString(errStyle.Render(m.snap.Error) + "\n")
	}
	if m.status != "" {
		b.WriteString(errStyle.Render(m.status) + "\n")
	}
	if m.snap.LastMove != nil && m.snap.LastMove.Status.Over() {
		b.WriteString(warnStyle.Render("game over: "+string(m.snap.LastMove.Status)) + "\n")
	}
	b.WriteString(dimStyle.Render("arrows: key positions · h/j/k/l: analysis · a: analyze · f: flip · q: quit"))
	return b.String()
}

func (m Model) viewKeyPositions() string {
	if len(m.keys) == 0 {
		return dimStyle.Render("no key positions")
	}
	var b strings.Builder
	b.WriteString("Key positions\n")
	for i, kp := range m.keys {
		line := fmt.Sprintf("  %d. %s", i+1, kp.Description)
		if m.snap.KeyIndex != nil && *m.snap.KeyIndex == i {
			line = selStyle.Render("> " + line[2:])
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewLines() string {
	var b strings.Builder
	header := "Analysis"
	if m.snap.Phase == study.PhaseAnalyzing {
		header += dimStyle.Render(" (running)")
	}
	b.WriteString(header + "\n")
	if len(m.snap.Lines) == 0 {
		b.WriteString(dimStyle.Render("  press a to analyze"))
		return b.String()
	}
	for _, l := range m.snap.Lines {
		line := fmt.Sprintf("  %d. [%s d%d] %s", l.Rank+1, FormatScore(l.Score), l.Depth, strings.Join(l.Moves, " "))
		if l.Rank == m.snap.SelectedRank {
			line = selStyle.Render("> " + line[2:])
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatScore renders an engine score from the side to move's view.
func FormatScore(s *study.Score) string {
	if s == nil {
		return "?"
	}
	if s.Kind == study.ScoreMate {
		return fmt.Sprintf("#%d", s.Value)
	}
	return fmt.Sprintf("%+.2f", float64(s.Value)/100)
}

// RenderBoard draws the placement field of fen, white at the bottom unless
// o is black.
func RenderBoard(fen string, o study.Orientation) string {
	rows := boardRows(fen)

	var b strings.Builder
	for i := 0; i < 8; i++ {
		r := i
		if o == study.Black {
			r = 7 - i
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d ", 8-r)))
		for j := 0; j < 8; j++ {
			f := j
			if o == study.Black {
				f = 7 - j
			}
			style := lightSquare
			if (r+f)%2 == 1 {
				style = darkSquare
			}
			b.WriteString(style.Render(" " + rows[r][f] + " "))
		}
		b.WriteString("\n")
	}

	files := "abcdefgh"
	if o == study.Black {
		files = "hgfedcba"
	}
	b.WriteString("  ")
	for _, c := range files {
		b.WriteString(dimStyle.Render(" " + string(c) + " "))
	}
	return b.String()
}

func boardRows(fen string) [8][8]string {
	var rows [8][8]string
	for r := range rows {
		for f := range rows[r] {
			rows[r][f] = " "
		}
	}

	placement, _, _ := strings.Cut(fen, " ")
	for r, rank := range strings.SplitN(placement, "/", 8) {
		f := 0
		for _, c := range rank {
			if c >= '1' && c <= '8' {
				f += int(c - '0')
				continue
			}
			if f < 8 {
				if g, ok := glyphs[c]; ok {
					rows[r][f] = g
				}
			}
			f++
		}
	}
	return rows
}
