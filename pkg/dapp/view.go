package dapp

import (
	"context"
	"fmt"
	"io"
	"strings"

	"kalpdemo/pkg/controller"
	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/models"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// Gateway is the subset of *gateway.Client the views call.
type Gateway interface {
	Do(ctx context.Context, app gateway.App, name string, values ...string) (*models.GatewayResponse, error)
}

// View is one demo app screen.
type View interface {
	Name() string
	Fields() []string
	Operations() []gateway.Operation
	Handle(ctx context.Context, op string) (*models.GatewayResponse, error)
	SetInput(field, value string)
	Input(field string) string
	Value(key string) string
	State() models.UIState
	Loading() bool
	Warnings() []string
	Refresh(ctx context.Context) error
	Close()
}

// Fields holding wallet addresses.
var addressFields = map[string]bool{
	"recipient": true,
	"account":   true,
	"spender":   true,
	"owner":     true,
	"from":      true,
	"to":        true,
	"address":   true,
}

type options struct {
	publisher controller.Publisher
	logger    *log.Logger
	decimals  int
}

type Option func(*options)

// WithPublisher sends view events to p, usually a *watcher.Watcher.
func WithPublisher(p controller.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDecimals sets the token decimals used to chart supply figures.
func WithDecimals(d int) Option {
	return func(o *options) { o.decimals = d }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base carries the behaviour shared by every demo view: reading inputs,
// running the call through the controller, storing display values and
// chaining follow-up calls.
type base struct {
	app    gateway.App
	gw     Gateway
	ctl    *controller.Controller
	fields []string
	logger *log.Logger

	// store maps an operation to the value key its result is saved under.
	store map[string]string
	// followUps lists the calls made after an operation succeeds.
	followUps map[string][]string
}

func newBase(app gateway.App, gw Gateway, fields []string, o options) *base {
	ctlOpts := []controller.Option{controller.WithLogger(o.logger)}
	if o.publisher != nil {
		ctlOpts = append(ctlOpts, controller.WithPublisher(o.publisher))
	}
	return &base{
		app:       app,
		gw:        gw,
		ctl:       controller.New(string(app), ctlOpts...),
		fields:    fields,
		logger:    o.logger,
		store:     make(map[string]string),
		followUps: make(map[string][]string),
	}
}

func (b *base) Name() string { return string(b.app) }

func (b *base) Fields() []string { return append([]string(nil), b.fields...) }

func (b *base) Operations() []gateway.Operation { return gateway.OperationsFor(b.app) }

func (b *base) SetInput(field, value string) { b.ctl.SetInput(field, value) }

func (b *base) Input(field string) string { return b.ctl.Input(field) }

func (b *base) Value(key string) string { return b.ctl.Value(key) }

func (b *base) State() models.UIState { return b.ctl.State() }

func (b *base) Loading() bool { return b.ctl.Loading() }

// Close tears the view down. Calls still in flight are discarded.
func (b *base) Close() { b.ctl.Close() }

// Warnings lists address fields whose value does not look like a wallet
// address. They are hints only and never block a call.
func (b *base) Warnings() []string {
	var out []string
	for _, f := range b.fields {
		if !addressFields[f] {
			continue
		}
		v := strings.TrimSpace(b.ctl.Input(f))
		if v != "" && !common.IsHexAddress(v) {
			out = append(out, fmt.Sprintf("%s %q is not a 20-byte hex address", f, v))
		}
	}
	return out
}

// Handle runs op with the current inputs, then its follow-up calls.
func (b *base) Handle(ctx context.Context, op string) (*models.GatewayResponse, error) {
	resp, err := b.call(ctx, op)
	if err != nil {
		return nil, err
	}
	for _, next := range b.followUps[op] {
		if _, ferr := b.call(ctx, next); ferr != nil {
			b.logger.Warn("follow-up call failed", "view", b.app, "after", op, "call", next, "err", ferr)
		}
	}
	return resp, nil
}

// refresh reloads the value stored for op without touching the result or
// error of the last user action.
func (b *base) refresh(ctx context.Context, op string) error {
	values, err := b.argValues(op)
	if err != nil {
		return err
	}
	resp, err := b.ctl.RunBackground(ctx, op, func(ctx context.Context) (*models.GatewayResponse, error) {
		return b.gw.Do(ctx, b.app, op, values...)
	})
	if err != nil {
		return err
	}
	if key, ok := b.store[op]; ok {
		b.ctl.SetValue(key, resp.Display())
	}
	return nil
}

func (b *base) argValues(op string) ([]string, error) {
	def, ok := gateway.Lookup(b.app, op)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", b.app, op, gateway.ErrUnknownOperation)
	}
	values := make([]string, len(def.Args))
	for i, arg := range def.Args {
		values[i] = strings.TrimSpace(b.ctl.Input(arg))
	}
	return values, nil
}

func (b *base) call(ctx context.Context, op string) (*models.GatewayResponse, error) {
	values, err := b.argValues(op)
	if err != nil {
		return nil, err
	}

	resp, err := b.ctl.Run(ctx, op, func(ctx context.Context) (*models.GatewayResponse, error) {
		return b.gw.Do(ctx, b.app, op, values...)
	})
	if err != nil {
		return nil, err
	}
	if key, ok := b.store[op]; ok {
		b.ctl.SetValue(key, resp.Display())
	}
	return resp, nil
}
