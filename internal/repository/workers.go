package repo

import (
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chess_study/internal/bootstrap"
	"chess_study/internal/usecase/analysis"
)

// NewWorkerFactory picks the engine backend named by ENGINE_MODE. The returned
// func releases the relay connection, if any.
func NewWorkerFactory(cfg *bootstrap.Config, log *zap.SugaredLogger) (analysis.WorkerFactory, func(), error) {
	switch cfg.EngineMode {
	case bootstrap.EngineModeLocal:
		return NewProcessFactory(cfg.EnginePath, cfg.EngineArgList(), log), func() {}, nil
	case bootstrap.EngineModeRelay:
		conn, err := grpc.NewClient(cfg.EngineRelayAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, err
		}
		return NewRelayFactory(conn, log), func() { _ = conn.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown ENGINE_MODE %q", cfg.EngineMode)
}
