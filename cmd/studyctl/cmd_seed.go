package main

import (
	"fmt"

	"github.com/spf13/cobra"

	repo "chess_study/internal/repository"
	studyuc "chess_study/internal/usecase/study"
)

var seedFile string

// seedCmd copies the course file into MongoDB.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load courses from a YAML file into MongoDB",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Course file (default from COURSES_FILE)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	path := seedFile
	if path == "" {
		path = cfg.CoursesFile
	}
	src, err := repo.LoadCourseFile(path)
	if err != nil {
		return err
	}

	mongoAdapter, err := openMongo(ctx)
	if err != nil {
		return err
	}
	defer closeMongo(mongoAdapter)()

	n, err := studyuc.SeedCourses(ctx, src, repo.NewCourseRepository(logger, mongoAdapter.Database))
	if err != nil {
		return err
	}
	logger.Infow("courses seeded", "file", path, "count", n)
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d courses from %s\n", n, path)
	return nil
}
