package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"chess_study/internal/domain/study"
	repo "chess_study/internal/repository"
	"chess_study/internal/tui"
	studyuc "chess_study/internal/usecase/study"
)

var (
	boardCourse string
	boardStudy  string
)

// boardCmd opens a study in the terminal.
var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open a study board in the terminal",
	Long: `Open a course's study board in the terminal.

Keys:
  up/down/left/right  key positions (cycle, reset, load)
  k/j/h/l             analysis lines (cycle, step back, step forward)
  a                   analyze the board
  f                   flip the board
  q                   quit`,
	RunE: runBoard,
}

func init() {
	boardCmd.Flags().StringVar(&boardCourse, "course", "", "Course id (empty for a free board)")
	boardCmd.Flags().StringVar(&boardStudy, "study", "", "Study id to resume; needs redis")
}

func runBoard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	courses, closeCourses, err := openCourses(ctx)
	if err != nil {
		return err
	}
	defer closeCourses()

	engines, release, err := repo.NewWorkerFactory(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	var course study.Course
	if boardCourse != "" {
		if course, err = courses.GetCourse(ctx, boardCourse); err != nil {
			return err
		}
	}

	var states studyuc.StateStore
	if boardStudy != "" {
		redisClient, closeRedis, err := openRedis(ctx)
		if err != nil {
			return err
		}
		defer closeRedis()
		states = repo.NewStudyStateRepository(logger, redisClient, cfg.StudyStateTTL)
	}

	defaults := study.AnalysisOptions{Lines: cfg.AnalysisLines, Depth: cfg.AnalysisDepth}
	studyUC := studyuc.NewStudyUseCase(courses, states, engines, defaults, logger)

	ctrl, err := studyUC.OpenStudy(ctx, boardStudy, boardCourse)
	if err != nil {
		return err
	}
	defer func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = studyUC.CloseStudy(saveCtx, ctrl)
	}()

	_, err = tea.NewProgram(tui.New(ctrl, course), tea.WithAltScreen()).Run()
	return err
}
