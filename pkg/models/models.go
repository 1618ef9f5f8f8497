package models

import (
	"time"
)

// RequestEnvelope is the fixed JSON wrapper every gateway call carries.
type RequestEnvelope struct {
	Network       string         `json:"network"`
	Blockchain    string         `json:"blockchain"`
	WalletAddress string         `json:"walletAddress"`
	Args          map[string]any `json:"args"`
}

// NewEnvelope builds a fresh envelope. The args map is copied so the caller
// can not mutate a request after it was sent.
func NewEnvelope(network, blockchain, walletAddress string, args map[string]any) RequestEnvelope {
	cp := make(map[string]any, len(args))
	for k, v := range args {
		cp[k] = v
	}
	return RequestEnvelope{
		Network:       network,
		Blockchain:    blockchain,
		WalletAddress: walletAddress,
		Args:          cp,
	}
}

// CallStatus is the lifecycle of a single gateway call.
type CallStatus string

const (
	CallIdle      CallStatus = "idle"
	CallInFlight  CallStatus = "in-flight"
	CallSucceeded CallStatus = "succeeded"
	CallFailed    CallStatus = "failed"
)

// SupplyPoint holds a timestamped total supply reading.
type SupplyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// CheckReport holds the results of the configuration check.
type CheckReport struct {
	ConfigPath    string            `json:"config_path"`
	Valid         bool              `json:"valid"`
	Problems      []string          `json:"problems,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
	GatewayURL    string            `json:"gateway_url"`
	APIKeyHeader  string            `json:"api_key_header"`
	APIKeySet     bool              `json:"api_key_set"`
	WalletAddress string            `json:"wallet_address"`
	Contracts     map[string]string `json:"contracts"`
}
