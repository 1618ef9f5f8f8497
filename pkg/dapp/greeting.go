package dapp

import (
	"context"

	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/models"
)

// Greeting reads and writes the greeting stored by the greeting contract.
type Greeting struct {
	*base
}

func NewGreeting(gw Gateway, opts ...Option) *Greeting {
	g := &Greeting{newBase(gateway.AppGreeting, gw, []string{"greeting"}, buildOptions(opts))}
	g.store["getGreeting"] = "greeting"
	return g
}

// HandleGetGreeting loads the current greeting into the "greeting" value.
func (g *Greeting) HandleGetGreeting(ctx context.Context) (*models.GatewayResponse, error) {
	return g.Handle(ctx, "getGreeting")
}

// HandleSetGreeting sends the "greeting" input.
func (g *Greeting) HandleSetGreeting(ctx context.Context) (*models.GatewayResponse, error) {
	return g.Handle(ctx, "setGreeting")
}

func (g *Greeting) Refresh(ctx context.Context) error {
	return g.refresh(ctx, "getGreeting")
}
