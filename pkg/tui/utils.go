package tui

import (
	"time"

	"kalpdemo/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
)

var placeholders = map[string]string{
	"greeting":  "Hello, Kalp!",
	"name":      "Token name",
	"symbol":    "Symbol (e.g. KLP)",
	"decimals":  "Decimals (e.g. 18)",
	"amount":    "Amount",
	"value":     "Value",
	"recipient": "Recipient address",
	"account":   "Account address",
	"spender":   "Spender address",
	"owner":     "Owner address",
	"from":      "From address",
	"to":        "To address",
	"address":   "Wallet address",
}

func placeholder(field string) string {
	if p, ok := placeholders[field]; ok {
		return p
	}
	return field
}

// amountKeys are the stored values rendered with token decimals.
var amountKeys = map[string]bool{
	"balance":              true,
	"totalSupply":          true,
	"allowance":            true,
	"clientAccountBalance": true,
}

// addressKeys are stored values holding a wallet address.
var addressKeys = map[string]bool{
	"clientAccountID": true,
}

func (m model) displayValue(key, value string) string {
	if amountKeys[key] {
		return utils.FormatAmount(value, m.decimals)
	}
	if addressKeys[key] {
		return utils.ShortAddress(value)
	}
	return utils.TruncateString(value, 60)
}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(time.Second*3, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
