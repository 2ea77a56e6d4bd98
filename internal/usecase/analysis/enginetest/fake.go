// Package enginetest provides an in-memory UCI worker for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"chess_study/internal/usecase/analysis"
)

var ErrTerminated = errors.New("worker terminated")

// Worker records the commands it receives and emits whatever the test (or the
// factory script) pushes into it.
type Worker struct {
	mu         sync.Mutex
	sent       []string
	out        chan string
	closed     bool
	terminated bool
	script     func(cmd string) []string
}

func NewWorker(script func(cmd string) []string) *Worker {
	return &Worker{
		out:    make(chan string, 256),
		script: script,
	}
}

func (w *Worker) Send(cmd string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrTerminated
	}
	w.sent = append(w.sent, cmd)
	if w.script != nil {
		for _, line := range w.script(cmd) {
			w.out <- line
		}
	}
	return nil
}

func (w *Worker) Lines() <-chan string {
	return w.out
}

func (w *Worker) Terminate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.terminated = true
	w.closeLocked()
	return nil
}

// Emit pushes engine output. It is a no-op once the worker has exited.
func (w *Worker) Emit(lines ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	for _, line := range lines {
		w.out <- line
	}
}

// Crash closes the output stream as if the engine process died.
func (w *Worker) Crash() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeLocked()
}

func (w *Worker) Sent() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.sent...)
}

func (w *Worker) Terminated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.terminated
}

func (w *Worker) closeLocked() {
	if !w.closed {
		w.closed = true
		close(w.out)
	}
}

// Factory hands out Workers. Script, when set, is copied into every worker.
type Factory struct {
	Script func(cmd string) []string

	mu      sync.Mutex
	err     error
	workers []*Worker
}

func (f *Factory) Spawn(_ context.Context) (analysis.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	w := NewWorker(f.Script)
	f.workers = append(f.workers, w)
	return w, nil
}

// FailWith makes every later Spawn return err.
func (f *Factory) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *Factory) Workers() []*Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Worker(nil), f.workers...)
}

// Last returns the most recently spawned worker, or nil.
func (f *Factory) Last() *Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.workers) == 0 {
		return nil
	}
	return f.workers[len(f.workers)-1]
}

// BestMoveScript answers "go" with one info line per entry of pvs followed by
// bestmove.
func BestMoveScript(depth int, pvs ...string) func(cmd string) []string {
	return func(cmd string) []string {
		if !strings.HasPrefix(cmd, "go ") {
			return nil
		}
		var out []string
		for i, pv := range pvs {
			out = append(out, InfoLine(i+1, depth, pv))
		}
		return append(out, "bestmove (none)")
	}
}

// InfoLine formats a progress update the way Stockfish prints one.
func InfoLine(rank, depth int, pv string) string {
	return fmt.Sprintf("info depth %d seldepth %d multipv %d score cp 20 nodes 1000 pv %s", depth, depth, rank, pv)
}
