// Command studyctl runs the study board tooling outside the server: one-shot
// engine analysis, a terminal board and course seeding.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chess_study/internal/adapters"
	"chess_study/internal/bootstrap"
	repo "chess_study/internal/repository"
	studyuc "chess_study/internal/usecase/study"
)

var (
	envFile  string
	logLevel string

	cfg    *bootstrap.Config
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:           "studyctl",
	Short:         "Chess study board tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = bootstrap.Setup(envFile)
		if err != nil {
			return fmt.Errorf("failed to setup configuration: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = NewLogger(cfg.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default from LOG_LEVEL)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewLogger writes to stderr so command output stays clean.
func NewLogger(level string) *zap.SugaredLogger {
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{"stderr"}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	l, err := zapCfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return l.Sugar()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openCourses returns the course store named by COURSE_SOURCE and a func
// closing whatever connection backs it.
func openCourses(ctx context.Context) (studyuc.CourseStore, func(), error) {
	switch cfg.CourseSource {
	case bootstrap.CourseSourceFile:
		courses, err := repo.LoadCourseFile(cfg.CoursesFile)
		return courses, func() {}, err
	case bootstrap.CourseSourceMongo:
		mongoAdapter, err := openMongo(ctx)
		if err != nil {
			return nil, nil, err
		}
		return repo.NewCourseRepository(logger, mongoAdapter.Database), closeMongo(mongoAdapter), nil
	}
	return nil, nil, fmt.Errorf("unknown COURSE_SOURCE %q", cfg.CourseSource)
}

func openMongo(ctx context.Context) (*adapters.AdapterMongo, error) {
	a := adapters.NewAdapterMongo(cfg, logger)
	if err := a.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize mongodb: %w", err)
	}
	return a, nil
}

func closeMongo(a *adapters.AdapterMongo) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Close(ctx)
	}
}

func openRedis(ctx context.Context) (*redis.Client, func(), error) {
	a := adapters.NewAdapterRedis(cfg, logger)
	if err := a.Init(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	return a.GetClient(), func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
	}, nil
}
