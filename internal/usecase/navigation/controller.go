package navigation

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chess_study/internal/domain/study"
	"chess_study/internal/usecase/analysis"
)

var ErrClosed = errors.New("study is closed")

// Analyzer is the engine side of a study. *analysis.Engine implements it.
type Analyzer interface {
	Start(handle, fen string, opts study.AnalysisOptions, sink analysis.Sink) error
	Cancel(handle string)
	Close()
}

// Controller is the single actor of one study board. Dispatch calls, engine
// output and Close are serialised on one mutex; subscribers see snapshots in
// revision order.
type Controller struct {
	engine   Analyzer
	defaults study.AnalysisOptions
	log      *zap.SugaredLogger

	mu       sync.Mutex
	state    State
	onChange func(study.Snapshot)
	closed   bool
}

func NewController(state State, engine Analyzer, defaults study.AnalysisOptions, log *zap.SugaredLogger) *Controller {
	return &Controller{
		engine:   engine,
		defaults: normalizeOptions(defaults),
		log:      log,
		state:    state,
	}
}

// Subscribe registers fn to receive every snapshot produced after a change.
// fn runs with the controller locked and must not call back into it.
func (c *Controller) Subscribe(fn func(study.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) Snapshot() study.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// KeyPositions returns the list the key pad cycles through, which may be
// shorter than the course's list.
func (c *Controller) KeyPositions() []study.KeyPosition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]study.KeyPosition(nil), c.state.KeyPositions...)
}

func (c *Controller) Saved() study.SavedStudy {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Saved()
}

// Analyze requests an analysis of the displayed position under a fresh
// handle. Zero options fall back to the controller defaults.
func (c *Controller) Analyze(opts study.AnalysisOptions) (study.Snapshot, error) {
	if opts.Lines <= 0 {
		opts.Lines = c.defaults.Lines
	}
	if opts.Depth <= 0 {
		opts.Depth = c.defaults.Depth
	}
	return c.Dispatch(RequestAnalysis{Handle: uuid.NewString(), Options: opts})
}

// Dispatch reduces ev into the study and runs the resulting effects.
func (c *Controller) Dispatch(ev Event) (study.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.state.Snapshot(), ErrClosed
	}
	if err := c.apply(ev); err != nil {
		return c.state.Snapshot(), err
	}
	return c.state.Snapshot(), nil
}

// Close cancels any running analysis and waits until the engine has released
// its worker. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	// Engine output still in flight blocks on c.mu and is dropped once it
	// sees closed, so the engine can be waited on without the lock.
	c.engine.Close()
}

func (c *Controller) apply(ev Event) error {
	before := c.state.Revision

	next, effects, err := Reduce(c.state, ev)
	if err != nil {
		return err
	}
	c.state = next

	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]

		switch eff := eff.(type) {
		case StartAnalysis:
			if err := c.engine.Start(eff.Handle, eff.FEN, eff.Options, c.sink); err != nil {
				c.log.Errorw("failed to start analysis", "handle", eff.Handle, "error", err)
				next, more, _ := Reduce(c.state, EngineFailed{Handle: eff.Handle, Err: err})
				c.state = next
				effects = append(effects, more...)
			}
		case CancelAnalysis:
			c.engine.Cancel(eff.Handle)
		case LineDiscarded:
			c.log.Warnw("analysis line discarded", "handle", eff.Handle, "rank", eff.Rank+1, "error", eff.Err)
		}
	}

	if c.state.Revision != before && c.onChange != nil {
		c.onChange(c.state.Snapshot())
	}
	return nil
}

func (c *Controller) sink(out analysis.Output) {
	var ev Event = EngineOutput{Handle: out.Handle, Line: out.Line}
	if out.Err != nil {
		ev = EngineFailed{Handle: out.Handle, Err: out.Err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if err := c.apply(ev); err != nil {
		c.log.Warnw("engine output rejected", "handle", out.Handle, "error", err)
	}
}
