package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"kalpdemo/pkg/models"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrArgCount         = errors.New("wrong number of arguments")
)

// App names one demo dApp.
type App string

const (
	AppGreeting App = "greeting"
	AppToken    App = "token"
	AppAirdrop  App = "airdrop"
)

// Apps lists the demo apps in display order.
var Apps = []App{AppGreeting, AppToken, AppAirdrop}

// Operation describes one contract method exposed by an app.
type Operation struct {
	App    App
	Name   string
	Method string
	Kind   Kind
	Args   []string
}

// Usage renders the operation the way the CLI expects it.
func (o Operation) Usage() string {
	if len(o.Args) == 0 {
		return o.Name
	}
	return o.Name + " <" + strings.Join(o.Args, "> <") + ">"
}

// Operations is the registry of every callable operation.
var Operations = []Operation{
	{AppGreeting, "getGreeting", "GetGreeting", KindQuery, nil},
	{AppGreeting, "setGreeting", "SetGreeting", KindInvoke, []string{"greeting"}},

	{AppToken, "initialize", "Initialize", KindInvoke, []string{"name", "symbol", "decimals"}},
	{AppToken, "mint", "Mint", KindInvoke, []string{"amount"}},
	{AppToken, "burn", "Burn", KindInvoke, []string{"amount"}},
	{AppToken, "transfer", "Transfer", KindInvoke, []string{"recipient", "amount"}},
	{AppToken, "approve", "Approve", KindInvoke, []string{"spender", "value"}},
	{AppToken, "transferFrom", "TransferFrom", KindInvoke, []string{"from", "to", "value"}},
	{AppToken, "balanceOf", "BalanceOf", KindQuery, []string{"account"}},
	{AppToken, "totalSupply", "TotalSupply", KindQuery, nil},
	{AppToken, "allowance", "Allowance", KindQuery, []string{"owner", "spender"}},
	{AppToken, "name", "Name", KindQuery, nil},
	{AppToken, "symbol", "Symbol", KindQuery, nil},
	{AppToken, "clientAccountBalance", "ClientAccountBalance", KindQuery, nil},
	{AppToken, "clientAccountID", "ClientAccountID", KindQuery, nil},

	{AppAirdrop, "claim", "Claim", KindInvoke, []string{"address"}},
	{AppAirdrop, "balanceOf", "BalanceOf", KindQuery, []string{"account"}},
	{AppAirdrop, "totalSupply", "TotalSupply", KindQuery, nil},
}

// Lookup finds an operation by app and name.
func Lookup(app App, name string) (Operation, bool) {
	for _, op := range Operations {
		if op.App == app && op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// OperationsFor returns the operations of one app, sorted by name.
func OperationsFor(app App) []Operation {
	var ops []Operation
	for _, op := range Operations {
		if op.App == app {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// ContractID returns the configured contract for app.
func (c *Client) ContractID(app App) string {
	switch app {
	case AppGreeting:
		return c.cfg.Contracts.Greeting
	case AppToken:
		return c.cfg.Contracts.Token
	case AppAirdrop:
		return c.cfg.Contracts.Airdrop
	}
	return ""
}

// Do dispatches an operation by name. values are matched positionally to the
// operation's argument names.
func (c *Client) Do(ctx context.Context, app App, name string, values ...string) (*models.GatewayResponse, error) {
	op, ok := Lookup(app, name)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", app, name, ErrUnknownOperation)
	}
	if len(values) != len(op.Args) {
		return nil, fmt.Errorf("%s %s: %w: want %d, got %d", app, name, ErrArgCount, len(op.Args), len(values))
	}

	args := make(map[string]any, len(op.Args)+1)
	for i, arg := range op.Args {
		args[arg] = values[i]
	}
	if app == AppAirdrop && op.Name == "claim" {
		args["amount"] = c.cfg.ClaimAmount
	}

	return c.Call(ctx, Request{
		Kind:       op.Kind,
		ContractID: c.ContractID(app),
		Method:     op.Method,
		Args:       args,
		HTTPMethod: c.HTTPMethod(op.Kind),
	})
}

// HTTPMethod is the upstream method for calls of kind: POST, or GET for
// queries when the gateway is configured with query_method GET.
func (c *Client) HTTPMethod(kind Kind) string {
	if kind == KindQuery && c.cfg.Gateway.QueryMethod == http.MethodGet {
		return http.MethodGet
	}
	return http.MethodPost
}

// GreetingClient exposes the greeting contract.
type GreetingClient struct{ c *Client }

func (c *Client) Greeting() GreetingClient { return GreetingClient{c} }

func (g GreetingClient) GetGreeting(ctx context.Context) (*models.GatewayResponse, error) {
	return g.c.Do(ctx, AppGreeting, "getGreeting")
}

func (g GreetingClient) SetGreeting(ctx context.Context, greeting string) (*models.GatewayResponse, error) {
	return g.c.Do(ctx, AppGreeting, "setGreeting", greeting)
}

// TokenClient exposes the fungible token contract.
type TokenClient struct{ c *Client }

func (c *Client) Token() TokenClient { return TokenClient{c} }

func (t TokenClient) Initialize(ctx context.Context, name, symbol, decimals string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "initialize", name, symbol, decimals)
}

func (t TokenClient) Mint(ctx context.Context, amount string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "mint", amount)
}

func (t TokenClient) Burn(ctx context.Context, amount string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "burn", amount)
}

func (t TokenClient) Transfer(ctx context.Context, recipient, amount string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "transfer", recipient, amount)
}

func (t TokenClient) Approve(ctx context.Context, spender, value string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "approve", spender, value)
}

func (t TokenClient) TransferFrom(ctx context.Context, from, to, value string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "transferFrom", from, to, value)
}

func (t TokenClient) BalanceOf(ctx context.Context, account string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "balanceOf", account)
}

func (t TokenClient) TotalSupply(ctx context.Context) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "totalSupply")
}

func (t TokenClient) Allowance(ctx context.Context, owner, spender string) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "allowance", owner, spender)
}

func (t TokenClient) Name(ctx context.Context) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "name")
}

func (t TokenClient) Symbol(ctx context.Context) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "symbol")
}

func (t TokenClient) ClientAccountBalance(ctx context.Context) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "clientAccountBalance")
}

func (t TokenClient) ClientAccountID(ctx context.Context) (*models.GatewayResponse, error) {
	return t.c.Do(ctx, AppToken, "clientAccountID")
}

// AirdropClient exposes the airdrop contract.
type AirdropClient struct{ c *Client }

func (c *Client) Airdrop() AirdropClient { return AirdropClient{c} }

// Claim sends the configured fixed amount to address.
func (a AirdropClient) Claim(ctx context.Context, address string) (*models.GatewayResponse, error) {
	return a.c.Do(ctx, AppAirdrop, "claim", address)
}

func (a AirdropClient) BalanceOf(ctx context.Context, account string) (*models.GatewayResponse, error) {
	return a.c.Do(ctx, AppAirdrop, "balanceOf", account)
}

func (a AirdropClient) TotalSupply(ctx context.Context) (*models.GatewayResponse, error) {
	return a.c.Do(ctx, AppAirdrop, "totalSupply")
}
