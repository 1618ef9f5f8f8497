package dapp

import (
	"context"

	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/models"
)

// Token drives the fungible token contract.
type Token struct {
	*base
}

func NewToken(gw Gateway, opts ...Option) *Token {
	fields := []string{"name", "symbol", "decimals", "amount", "recipient", "account", "spender", "owner", "from", "to", "value"}
	t := &Token{newBase(gateway.AppToken, gw, fields, buildOptions(opts))}

	t.store["balanceOf"] = "balance"
	t.store["totalSupply"] = "totalSupply"
	t.store["allowance"] = "allowance"
	t.store["name"] = "name"
	t.store["symbol"] = "symbol"
	t.store["clientAccountBalance"] = "clientAccountBalance"
	t.store["clientAccountID"] = "clientAccountID"

	for _, op := range []string{"initialize", "mint", "burn", "transfer"} {
		t.followUps[op] = []string{"totalSupply"}
	}
	return t
}

func (t *Token) HandleInitialize(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "initialize")
}

func (t *Token) HandleMint(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "mint")
}

func (t *Token) HandleBurn(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "burn")
}

func (t *Token) HandleTransfer(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "transfer")
}

func (t *Token) HandleApprove(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "approve")
}

func (t *Token) HandleTransferFrom(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "transferFrom")
}

func (t *Token) HandleBalanceOf(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "balanceOf")
}

func (t *Token) HandleTotalSupply(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "totalSupply")
}

func (t *Token) HandleAllowance(ctx context.Context) (*models.GatewayResponse, error) {
	return t.Handle(ctx, "allowance")
}

func (t *Token) Refresh(ctx context.Context) error {
	return t.refresh(ctx, "totalSupply")
}
