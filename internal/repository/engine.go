package repo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"chess_study/internal/usecase/analysis"
)

var ErrWorkerStopped = errors.New("engine worker stopped")

// -----------------------------------------------------
// ProcessFactory, ProcessWorker
// -----------------------------------------------------

// ProcessFactory starts a local UCI engine (stockfish by default) per analysis.
type ProcessFactory struct {
	path string
	args []string
	log  *zap.SugaredLogger
}

func NewProcessFactory(path string, args []string, log *zap.SugaredLogger) *ProcessFactory {
	return &ProcessFactory{
		path: path,
		args: args,
		log:  log,
	}
}

func (f *ProcessFactory) Spawn(ctx context.Context) (analysis.Worker, error) {
	return NewProcessWorker(ctx, f.path, f.args, f.log)
}

// ProcessWorker talks UCI to an engine process: commands go to stdin, every
// stdout line is forwarded to Lines.
type ProcessWorker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer
	stdout *bufio.Scanner
	lines  chan string

	mu      sync.Mutex
	stopped bool
	once    sync.Once
	log     *zap.SugaredLogger
}

func NewProcessWorker(ctx context.Context, path string, args []string, log *zap.SugaredLogger) (*ProcessWorker, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	w := &ProcessWorker{
		cmd:    cmd,
		stdin:  stdinPipe,
		writer: bufio.NewWriter(stdinPipe),
		stdout: bufio.NewScanner(stdoutPipe),
		lines:  make(chan string, 64),
		log:    log,
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	log.Debugw("engine process started", "path", path, "pid", cmd.Process.Pid)

	go w.listen()

	return w, nil
}

func (w *ProcessWorker) listen() {
	defer close(w.lines)

	for w.stdout.Scan() {
		w.lines <- w.stdout.Text()
	}
	if err := w.stdout.Err(); err != nil {
		w.log.Warnw("failed to read engine output", "error", err)
	}

	err := w.cmd.Wait()
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if err != nil && !stopped {
		w.log.Warnw("engine process exited", "error", err)
	}
}

func (w *ProcessWorker) Send(cmd string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWorkerStopped
	}
	if _, err := w.writer.WriteString(cmd + "\n"); err != nil {
		return err
	}
	return w.writer.Flush()
}

func (w *ProcessWorker) Lines() <-chan string {
	return w.lines
}

// Terminate asks the engine to quit and kills it. Lines is closed once the
// process has exited.
func (w *ProcessWorker) Terminate() error {
	var err error
	w.once.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		w.stopped = true
		_, _ = w.writer.WriteString("quit\n")
		_ = w.writer.Flush()
		_ = w.stdin.Close()

		if killErr := w.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = killErr
		}
	})
	return err
}
