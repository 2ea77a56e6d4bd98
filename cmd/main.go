package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chess_study/internal/adapters"
	"chess_study/internal/bootstrap"
	positionDelivery "chess_study/internal/delivery/position"
	studyDelivery "chess_study/internal/delivery/study"
	"chess_study/internal/domain/study"
	ownMiddleware "chess_study/internal/middleware"
	repo "chess_study/internal/repository"
	"chess_study/internal/usecase/analysis"
	studyuc "chess_study/internal/usecase/study"
)

const shutdownTimeout = 10 * time.Second

type mainDeliveryHandler struct {
	study    *studyDelivery.StudyHandler
	position *positionDelivery.PositionHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to setup configuration:", err)
		os.Exit(1)
	}
	logger := NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.close()

	engines, closeEngines, err := repo.NewWorkerFactory(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to set up engine", "mode", cfg.EngineMode, "error", err)
	}
	defer closeEngines()

	courses, err := newCourseStore(cfg, logger, databaseAdapters)
	if err != nil {
		logger.Fatalw("failed to set up courses", "source", cfg.CourseSource, "error", err)
	}

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(cfg, logger, engines, courses, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("http shutdown incomplete", "error", err)
		}
		if err := handlers.study.Shutdown(shutdownCtx); err != nil {
			logger.Warnw("open studies not closed in time", "error", err)
		}
	}()

	logger.Infow("server is running", "port", cfg.ServerPort, "engine_mode", cfg.EngineMode, "course_source", cfg.CourseSource)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("failed to start server", "error", err)
	}
	<-shutdownDone
	logger.Info("server stopped")
}

func NewLogger(level string) *zap.SugaredLogger {
	zapCfg := zap.NewProductionConfig()
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/courses", h.study.ListCourses)
	r.Get("/courses/{id}", h.study.GetCourse)
	r.Get("/study", h.study.HandleStudy)
	r.Post("/position/validate", h.position.Validate)
	r.Post("/position/move", h.position.Move)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	a := &dataBaseAdapters{}

	if cfg.CourseSource == bootstrap.CourseSourceMongo {
		a.mongoAdapter = adapters.NewAdapterMongo(cfg, log)
		if err := a.mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("failed to initialize mongodb", "error", err)
		}
	}

	a.redisAdapter = adapters.NewAdapterRedis(cfg, log)
	if err := a.redisAdapter.Init(ctx); err != nil {
		log.Fatalw("failed to initialize redis", "error", err)
	}

	log.Info("database adapters initialized")
	return a
}

func (a *dataBaseAdapters) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.mongoAdapter != nil {
		_ = a.mongoAdapter.Close(ctx)
	}
	if a.redisAdapter != nil {
		_ = a.redisAdapter.Close(ctx)
	}
}

func newCourseStore(cfg *bootstrap.Config, log *zap.SugaredLogger, databaseAdapters *dataBaseAdapters) (studyuc.CourseStore, error) {
	switch cfg.CourseSource {
	case bootstrap.CourseSourceMongo:
		return repo.NewCourseRepository(log, databaseAdapters.mongoAdapter.Database), nil
	case bootstrap.CourseSourceFile:
		return repo.LoadCourseFile(cfg.CoursesFile)
	}
	return nil, fmt.Errorf("unknown COURSE_SOURCE %q", cfg.CourseSource)
}

func initializeDeliveryHandlers(
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	engines analysis.WorkerFactory,
	courses studyuc.CourseStore,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	states := repo.NewStudyStateRepository(log, databaseAdapters.redisAdapter.GetClient(), cfg.StudyStateTTL)
	defaults := study.AnalysisOptions{Lines: cfg.AnalysisLines, Depth: cfg.AnalysisDepth}
	studyUC := studyuc.NewStudyUseCase(courses, states, engines, defaults, log)

	return &mainDeliveryHandler{
		study:    studyDelivery.NewStudyHandler(log, studyUC),
		position: positionDelivery.NewPositionHandler(log),
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("received shutdown signal")
	cancelFunc()
}
