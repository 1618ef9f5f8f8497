package dapp

import (
	"context"

	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/models"
	"kalpdemo/pkg/utils"
)

// Airdrop lets a user claim the fixed airdrop amount and watch the supply.
type Airdrop struct {
	*base
	decimals int
}

func NewAirdrop(gw Gateway, opts ...Option) *Airdrop {
	o := buildOptions(opts)
	a := &Airdrop{
		base:     newBase(gateway.AppAirdrop, gw, []string{"address"}, o),
		decimals: o.decimals,
	}
	a.store["balanceOf"] = "balance"
	a.store["totalSupply"] = "totalSupply"
	a.followUps["claim"] = []string{"totalSupply"}
	return a
}

// Start performs the initial supply load shown when the page opens.
func (a *Airdrop) Start(ctx context.Context) error {
	_, err := a.HandleTotalSupply(ctx)
	return err
}

// HandleClaim claims for the "address" input, then reloads the total supply.
func (a *Airdrop) HandleClaim(ctx context.Context) (*models.GatewayResponse, error) {
	return a.Handle(ctx, "claim")
}

// HandleBalanceOf reads the balance of the "address" input.
func (a *Airdrop) HandleBalanceOf(ctx context.Context) (*models.GatewayResponse, error) {
	return a.Handle(ctx, "balanceOf")
}

func (a *Airdrop) HandleTotalSupply(ctx context.Context) (*models.GatewayResponse, error) {
	return a.Handle(ctx, "totalSupply")
}

// Handle runs op. The airdrop form has a single address field that also
// serves as the balanceOf account.
func (a *Airdrop) Handle(ctx context.Context, op string) (*models.GatewayResponse, error) {
	if op == "balanceOf" {
		a.SetInput("account", a.Input("address"))
	}
	return a.base.Handle(ctx, op)
}

func (a *Airdrop) Refresh(ctx context.Context) error {
	return a.refresh(ctx, "totalSupply")
}

// Supply returns the last loaded total supply as a number.
func (a *Airdrop) Supply() (float64, bool) {
	return utils.AmountFloat(a.Value("totalSupply"), a.decimals)
}
