package controller

import (
	"context"
	"errors"
	"io"
	"sync"

	"kalpdemo/pkg/metrics"
	"kalpdemo/pkg/models"
	"kalpdemo/pkg/watcher"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrViewClosed is returned by Run once the view has been torn down.
var ErrViewClosed = errors.New("view closed")

// Action is one gateway call started on behalf of a view.
type Action func(ctx context.Context) (*models.GatewayResponse, error)

// Publisher receives lifecycle events. *watcher.Watcher implements it.
type Publisher interface {
	Notify(watcher.Event)
}

// Controller owns the UI state of one view instance.
type Controller struct {
	view      string
	mu        sync.Mutex
	state     models.UIState
	publisher Publisher
	logger    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Controller)

func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func New(view string, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		view: view,
		state: models.UIState{
			View:   view,
			Inputs: make(map[string]string),
			Values: make(map[string]string),
			Status: models.CallIdle,
		},
		logger: log.New(io.Discard),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) View() string { return c.view }

func (c *Controller) SetInput(field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Inputs[field] = value
}

func (c *Controller) Input(field string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Inputs[field]
}

func (c *Controller) SetValue(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed() {
		return
	}
	c.state.Values[key] = value
}

func (c *Controller) Value(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Values[key]
}

// State returns a snapshot of the view state.
func (c *Controller) State() models.UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Loading reports whether at least one call is in flight. It is advisory:
// Run never refuses to start a call because of it.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Loading
}

// Run executes action and folds its outcome into the view state. The action
// context is canceled by either ctx or Close. Once the view is closed a late
// completion leaves the state untouched and Run returns ErrViewClosed.
func (c *Controller) Run(ctx context.Context, name string, action Action) (*models.GatewayResponse, error) {
	if c.closed() {
		return nil, ErrViewClosed
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	id := uuid.NewString()
	c.mu.Lock()
	c.state.InFlight++
	c.state.Loading = true
	c.state.Err = nil
	c.state.Status = models.CallInFlight
	c.state.LastCall = name
	inFlight := c.state.InFlight
	c.mu.Unlock()
	metrics.SetInFlight(c.view, inFlight)
	c.publish(watcher.EventCallStarted, id, name)
	c.logger.Debug("call started", "view", c.view, "call", name, "id", id)

	resp, err := action(callCtx)

	c.mu.Lock()
	if c.closed() {
		c.mu.Unlock()
		c.logger.Debug("discarding completion of closed view", "view", c.view, "call", name, "id", id)
		return nil, ErrViewClosed
	}
	c.state.InFlight--
	c.state.Loading = c.state.InFlight > 0
	if err != nil {
		c.state.Err = err
		c.state.Status = models.CallFailed
	} else {
		c.state.LastResult = resp
		c.state.Status = models.CallSucceeded
	}
	inFlight = c.state.InFlight
	c.mu.Unlock()
	metrics.SetInFlight(c.view, inFlight)

	if err != nil {
		c.logger.Warn("call failed", "view", c.view, "call", name, "err", err)
		c.publish(watcher.EventCallFailed, id, map[string]string{"call": name, "error": err.Error()})
		return nil, err
	}
	c.logger.Debug("call succeeded", "view", c.view, "call", name, "result", resp.Display())
	c.publish(watcher.EventCallSucceeded, id, map[string]any{"call": name, "result": resp})
	return resp, nil
}

// RunBackground executes a refresh that the user did not ask for. It counts
// towards Loading but leaves Err, Status, LastCall and LastResult alone, so
// the outcome of the last user action stays on screen.
func (c *Controller) RunBackground(ctx context.Context, name string, action Action) (*models.GatewayResponse, error) {
	if c.closed() {
		return nil, ErrViewClosed
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	c.mu.Lock()
	c.state.InFlight++
	c.state.Loading = true
	inFlight := c.state.InFlight
	c.mu.Unlock()
	metrics.SetInFlight(c.view, inFlight)

	resp, err := action(callCtx)

	c.mu.Lock()
	if c.closed() {
		c.mu.Unlock()
		return nil, ErrViewClosed
	}
	c.state.InFlight--
	c.state.Loading = c.state.InFlight > 0
	inFlight = c.state.InFlight
	c.mu.Unlock()
	metrics.SetInFlight(c.view, inFlight)

	if err != nil {
		c.logger.Debug("background call failed", "view", c.view, "call", name, "err", err)
		return nil, err
	}
	return resp, nil
}

// Close tears the view down and cancels calls still in flight.
func (c *Controller) Close() {
	c.cancel()
	metrics.SetInFlight(c.view, 0)
}

func (c *Controller) closed() bool {
	return c.ctx.Err() != nil
}

func (c *Controller) publish(t watcher.EventType, id string, data any) {
	if c.publisher == nil {
		return
	}
	c.publisher.Notify(watcher.Event{Type: t, View: c.view, Call: id, Data: data})
}
