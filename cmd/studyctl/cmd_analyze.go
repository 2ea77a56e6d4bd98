package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"chess_study/internal/domain/study"
	repo "chess_study/internal/repository"
	"chess_study/internal/tui"
	"chess_study/internal/usecase/analysis"
	"chess_study/internal/usecase/navigation"
)

var (
	analyzeFEN   string
	analyzeLines int
	analyzeDepth int
)

// analyzeCmd runs one analysis to completion and prints the ranked lines.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a position with the configured engine",
	Long: `Run the configured UCI engine (ENGINE_MODE) on one position and print
every candidate line once the engine reports its best move.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFEN, "fen", study.StartKeyword, "Position to analyze (FEN or \"start\")")
	analyzeCmd.Flags().IntVar(&analyzeLines, "lines", 0, "Number of candidate lines (default from ANALYSIS_LINES)")
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", 0, "Search depth (default from ANALYSIS_DEPTH)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	engines, release, err := repo.NewWorkerFactory(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	defaults := study.AnalysisOptions{Lines: cfg.AnalysisLines, Depth: cfg.AnalysisDepth}
	ctrl := navigation.NewController(
		navigation.NewState("", "", nil),
		analysis.NewEngine(engines, logger),
		defaults,
		logger,
	)
	defer ctrl.Close()

	done := make(chan study.Snapshot, 1)
	ctrl.Subscribe(func(snap study.Snapshot) {
		if snap.Phase != study.PhaseIdle {
			return
		}
		select {
		case done <- snap:
		default:
		}
	})

	if _, err := ctrl.Dispatch(navigation.LoadPosition{FEN: analyzeFEN}); err != nil {
		return err
	}
	// The load above may already have published an idle snapshot.
	select {
	case <-done:
	default:
	}

	if _, err := ctrl.Analyze(study.AnalysisOptions{Lines: analyzeLines, Depth: analyzeDepth}); err != nil {
		return err
	}

	select {
	case snap := <-done:
		if snap.Error != "" {
			return fmt.Errorf("analysis failed: %s", snap.Error)
		}
		printLines(cmd.OutOrStdout(), snap)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func printLines(w io.Writer, snap study.Snapshot) {
	fmt.Fprintf(w, "Position: %s\n", snap.AnalysisBase)
	if len(snap.Lines) == 0 {
		fmt.Fprintln(w, "No lines reported.")
		return
	}
	for _, l := range snap.Lines {
		fmt.Fprintf(w, "%2d. %-7s depth %-3d %s\n", l.Rank+1, tui.FormatScore(l.Score), l.Depth, strings.Join(l.Moves, " "))
	}
}
