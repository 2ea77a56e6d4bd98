package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	apperrors "chess_study/internal/errors"
)

// Worker is one running UCI engine. Lines is closed when the engine exits,
// including after Terminate. Terminate must be safe to call more than once.
type Worker interface {
	Send(cmd string) error
	Lines() <-chan string
	Terminate() error
}

type WorkerFactory interface {
	Spawn(ctx context.Context) (Worker, error)
}

// Output is one event of an analysis stream. Exactly one of Line and Err is set.
type Output struct {
	Handle string
	Line   string
	Err    error
}

type Sink func(Output)

type run struct {
	handle    string
	worker    Worker
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

func (r *run) stop() {
	r.cancelled.Store(true)
	_ = r.worker.Terminate()
	r.cancel()
}

// Engine owns at most one worker at a time. Starting a new analysis
// terminates the previous worker before the new one is spawned.
type Engine struct {
	factory WorkerFactory
	log     *zap.SugaredLogger

	mu      sync.Mutex
	current *run
	closed  bool
	pumps   sync.WaitGroup
}

func NewEngine(factory WorkerFactory, log *zap.SugaredLogger) *Engine {
	return &Engine{
		factory: factory,
		log:     log,
	}
}

// Start launches an analysis of fen tagged with handle. Every engine line is
// passed to sink; a worker that dies before bestmove is reported once as
// ErrEngineUnavailable. Lines of a cancelled worker are never delivered.
func (e *Engine) Start(handle, fen string, opts study.AnalysisOptions, sink Sink) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("%w: engine is closed", apperrors.ErrEngineUnavailable)
	}
	if e.current != nil {
		e.log.Debugw("cancelling superseded analysis", "handle", e.current.handle)
		e.current.stop()
		e.current = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	worker, err := e.factory.Spawn(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", apperrors.ErrEngineUnavailable, err)
	}

	r := &run{handle: handle, worker: worker, cancel: cancel}
	for _, cmd := range Commands(fen, opts) {
		if err := worker.Send(cmd); err != nil {
			r.stop()
			e.pumps.Add(1)
			go func() {
				defer e.pumps.Done()
				drain(worker)
			}()
			return fmt.Errorf("%w: %v", apperrors.ErrEngineUnavailable, err)
		}
	}

	e.current = r
	e.pumps.Add(1)
	go e.pump(r, sink)

	e.log.Infow("analysis started", "handle", handle, "fen", fen, "lines", opts.Lines, "depth", opts.Depth)
	return nil
}

// Cancel terminates the worker of handle if it is still the current one.
func (e *Engine) Cancel(handle string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.current.handle != handle {
		return
	}
	e.current.stop()
	e.current = nil
	e.log.Debugw("analysis cancelled", "handle", handle)
}

// Close terminates the current worker and waits for every stream pump to
// return. Start fails after Close.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.current != nil {
		e.current.stop()
		e.current = nil
	}
	e.mu.Unlock()

	e.pumps.Wait()
}

func (e *Engine) pump(r *run, sink Sink) {
	defer e.pumps.Done()

	finished := false
	for line := range r.worker.Lines() {
		if r.cancelled.Load() {
			continue
		}
		sink(Output{Handle: r.handle, Line: line})
		if strings.HasPrefix(strings.TrimSpace(line), "bestmove") {
			finished = true
			break
		}
	}

	if finished {
		_ = r.worker.Terminate()
		drain(r.worker)
	} else if !r.cancelled.Load() {
		e.log.Warnw("engine exited before bestmove", "handle", r.handle)
		sink(Output{Handle: r.handle, Err: fmt.Errorf("%w: engine exited before bestmove", apperrors.ErrEngineUnavailable)})
	}

	e.mu.Lock()
	if e.current == r {
		e.current = nil
		r.cancel()
	}
	e.mu.Unlock()
}

func drain(w Worker) {
	for range w.Lines() {
	}
}
