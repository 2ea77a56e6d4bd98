package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"chess_study/internal/bootstrap"
	repo "chess_study/internal/repository"
	uci "chess_study/microservices/proto"
	"chess_study/microservices/usecase"
)

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to setup configuration:", err)
		os.Exit(1)
	}
	logger := NewLogger(cfg.LogLevel)
	defer logger.Sync()

	lis, err := net.Listen("tcp", ":"+cfg.EngineRelayPort)
	if err != nil {
		logger.Fatalw("cant listen port", "port", cfg.EngineRelayPort, "error", err)
	}

	server := grpc.NewServer()
	engines := repo.NewProcessFactory(cfg.EnginePath, cfg.EngineArgList(), logger)
	uci.RegisterEngineRelayServer(server, usecase.NewRelayServer(engines, logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("engine relay listening", "port", cfg.EngineRelayPort, "engine", cfg.EnginePath)
		return server.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping engine relay")
		server.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("engine relay stopped", "error", err)
	}
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
