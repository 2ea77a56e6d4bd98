package usecase

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"chess_study/internal/usecase/analysis"
	uci "chess_study/microservices/proto"
)

var errEngineStopped = errors.New("engine stopped")

// RelayServer exposes local UCI engines over gRPC, one engine per stream.
type RelayServer struct {
	uci.UnimplementedEngineRelayServer
	factory analysis.WorkerFactory
	log     *zap.SugaredLogger
}

func NewRelayServer(factory analysis.WorkerFactory, log *zap.SugaredLogger) *RelayServer {
	return &RelayServer{
		factory: factory,
		log:     log,
	}
}

func (s *RelayServer) Relay(stream uci.RelayServerStream) error {
	worker, err := s.factory.Spawn(stream.Context())
	if err != nil {
		s.log.Errorw("failed to start engine", "error", err)
		return status.Errorf(codes.Unavailable, "start engine: %v", err)
	}
	defer func() {
		if err := worker.Terminate(); err != nil {
			s.log.Warnw("failed to terminate engine", "error", err)
		}
		for range worker.Lines() {
		}
	}()

	commands := make(chan string)
	recvErr := make(chan error, 1)
	go func() {
		recvErr <- receive(stream, commands)
	}()

	g, ctx := errgroup.WithContext(stream.Context())
	g.Go(func() error {
		return forwardCommands(ctx, worker, commands, recvErr)
	})
	g.Go(func() error {
		return forwardOutput(stream, worker)
	})

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, errEngineStopped):
		s.log.Debugw("relay stream finished")
		return nil
	case errors.Is(err, context.Canceled):
		return status.FromContextError(err).Err()
	default:
		s.log.Warnw("relay stream failed", "error", err)
		return err
	}
}

// receive reads client frames until the client closes its side.
func receive(stream uci.RelayServerStream, commands chan<- string) error {
	for {
		msg, err := stream.Recv()
		if err != nil {
			return err
		}
		select {
		case commands <- msg.GetValue():
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

func forwardCommands(ctx context.Context, worker analysis.Worker, commands <-chan string, recvErr <-chan error) error {
	for {
		select {
		case cmd := <-commands:
			if err := worker.Send(cmd); err != nil {
				return status.Errorf(codes.Unavailable, "send to engine: %v", err)
			}
		case err := <-recvErr:
			// The client closed its side: stop the engine and let the output
			// pump finish the stream.
			_ = worker.Terminate()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func forwardOutput(stream uci.RelayServerStream, worker analysis.Worker) error {
	for line := range worker.Lines() {
		if err := stream.Send(wrapperspb.String(line)); err != nil {
			return err
		}
	}
	return errEngineStopped
}
