package repo

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"chess_study/internal/usecase/analysis"
	uci "chess_study/microservices/proto"
)

// RelayFactory opens one EngineRelay stream per analysis instead of running
// the engine in-process.
type RelayFactory struct {
	client uci.EngineRelayClient
	log    *zap.SugaredLogger
}

func NewRelayFactory(conn grpc.ClientConnInterface, log *zap.SugaredLogger) *RelayFactory {
	return &RelayFactory{
		client: uci.NewEngineRelayClient(conn),
		log:    log,
	}
}

func (f *RelayFactory) Spawn(ctx context.Context) (analysis.Worker, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := f.client.Relay(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	w := &RelayWorker{
		stream: stream,
		cancel: cancel,
		lines:  make(chan string, 64),
		log:    f.log,
	}
	go w.listen()

	return w, nil
}

type RelayWorker struct {
	stream uci.RelayClientStream
	cancel context.CancelFunc
	lines  chan string

	mu      sync.Mutex
	stopped bool
	log     *zap.SugaredLogger
}

func (w *RelayWorker) listen() {
	defer close(w.lines)

	for {
		msg, err := w.stream.Recv()
		if err != nil {
			w.mu.Lock()
			stopped := w.stopped
			w.mu.Unlock()
			if !stopped {
				w.log.Debugw("relay stream closed", "error", err)
			}
			return
		}
		w.lines <- msg.GetValue()
	}
}

func (w *RelayWorker) Send(cmd string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWorkerStopped
	}
	return w.stream.Send(wrapperspb.String(cmd))
}

func (w *RelayWorker) Lines() <-chan string {
	return w.lines
}

// Terminate closes the stream, which makes the relay stop the engine.
func (w *RelayWorker) Terminate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	err := w.stream.CloseSend()
	w.cancel()
	return err
}
