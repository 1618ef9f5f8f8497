package dapp

import (
	"context"

	"kalpdemo/pkg/models"
	"kalpdemo/pkg/watcher"
)

// Suite bundles the three demo views around one gateway and one event hub.
type Suite struct {
	Greeting *Greeting
	Token    *Token
	Airdrop  *Airdrop
	Watcher  *watcher.Watcher
}

// NewSuite builds every view and registers them with hub for polling.
func NewSuite(gw Gateway, hub *watcher.Watcher, opts ...Option) *Suite {
	opts = append([]Option{WithPublisher(hub)}, opts...)
	s := &Suite{
		Greeting: NewGreeting(gw, opts...),
		Token:    NewToken(gw, opts...),
		Airdrop:  NewAirdrop(gw, opts...),
		Watcher:  hub,
	}
	hub.Register(s.Greeting, s.Token, s.Airdrop)
	return s
}

// Views returns the views in tab order.
func (s *Suite) Views() []View {
	return []View{s.Greeting, s.Token, s.Airdrop}
}

func (s *Suite) View(name string) (View, bool) {
	for _, v := range s.Views() {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// Start runs the initial loads of views that have one.
func (s *Suite) Start(ctx context.Context) error {
	return s.Airdrop.Start(ctx)
}

// Snapshot returns the state of every view keyed by name.
func (s *Suite) Snapshot() map[string]models.UIState {
	out := make(map[string]models.UIState, 3)
	for _, v := range s.Views() {
		out[v.Name()] = v.State()
	}
	return out
}

// Close tears every view down.
func (s *Suite) Close() {
	for _, v := range s.Views() {
		v.Close()
	}
}
