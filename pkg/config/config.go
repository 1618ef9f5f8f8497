package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const ConfigFileName = ".kalpdemo.json"

// Fixed envelope values expected by the gateway.
const (
	DefaultNetwork    = "TESTNET"
	DefaultBlockchain = "KALP"
)

const (
	DefaultGatewayURL    = "https://gateway-api.kalp.studio"
	DefaultPathNetwork   = "kalp"
	DefaultAPIKeyHeader  = "x-api-key"
	DefaultWalletAddress = "928bc86952ebb55788e2042ad478b8c1db3ded0d"
	DefaultTokenContract = "Ymx4MuFOcZqP2PEizNu5Yl04FPVstT7f1726138235031"
	DefaultClaimAmount   = 100
)

// Environment variables applied on top of the file by ApplyEnv.
const (
	EnvAPIKey           = "KALP_API_KEY"
	EnvAPIKeyHeader     = "KALP_API_KEY_HEADER"
	EnvGatewayURL       = "KALP_GATEWAY_URL"
	EnvWalletAddress    = "KALP_WALLET_ADDRESS"
	EnvGreetingContract = "KALP_GREETING_CONTRACT_ID"
	EnvTokenContract    = "KALP_TOKEN_CONTRACT_ID"
	EnvAirdropContract  = "KALP_AIRDROP_CONTRACT_ID"
)

// GatewayConfig describes how to reach the hosted contract gateway.
type GatewayConfig struct {
	URL                   string `json:"url" yaml:"url"`
	PathNetwork           string `json:"path_network" yaml:"path_network"`
	APIKey                string `json:"api_key" yaml:"api_key"`
	APIKeyHeader          string `json:"api_key_header" yaml:"api_key_header"`
	QueryMethod           string `json:"query_method" yaml:"query_method"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// ContractsConfig holds the deployed contract identifier of each demo app.
type ContractsConfig struct {
	Greeting string `json:"greeting" yaml:"greeting"`
	Token    string `json:"token" yaml:"token"`
	Airdrop  string `json:"airdrop" yaml:"airdrop"`
}

// Config is the full application configuration. It is loaded once and passed
// explicitly to every component that needs it.
type Config struct {
	Gateway                GatewayConfig   `json:"gateway" yaml:"gateway"`
	Network                string          `json:"network" yaml:"network"`
	Blockchain             string          `json:"blockchain" yaml:"blockchain"`
	WalletAddress          string          `json:"wallet_address" yaml:"wallet_address"`
	Contracts              ContractsConfig `json:"contracts" yaml:"contracts"`
	ClaimAmount            int             `json:"claim_amount" yaml:"claim_amount"`
	TokenDecimals          int             `json:"token_decimals" yaml:"token_decimals"`
	RefreshIntervalSeconds int             `json:"refresh_interval_seconds" yaml:"refresh_interval_seconds"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			URL:          DefaultGatewayURL,
			PathNetwork:  DefaultPathNetwork,
			APIKeyHeader: DefaultAPIKeyHeader,
			QueryMethod:  "POST",
		},
		Network:       DefaultNetwork,
		Blockchain:    DefaultBlockchain,
		WalletAddress: DefaultWalletAddress,
		Contracts: ContractsConfig{
			Token: DefaultTokenContract,
		},
		ClaimAmount:   DefaultClaimAmount,
		TokenDecimals: 0,
	}
}

// RequestTimeout returns the per-call timeout. Zero leaves it to the transport.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Gateway.RequestTimeoutSeconds) * time.Second
}

// RefreshInterval returns the poller interval. Zero disables polling.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	if isYAML(path) {
		return LoadYAMLConfig(f)
	}
	return LoadConfig(f)
}

// LoadConfig decodes a JSON document over the defaults, so missing keys keep
// their default values.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return normalize(cfg), nil
}

func LoadYAMLConfig(r io.Reader) (Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return normalize(cfg), nil
}

func normalize(cfg Config) Config {
	cfg.Gateway.URL = strings.TrimRight(strings.TrimSpace(cfg.Gateway.URL), "/")
	cfg.Gateway.QueryMethod = strings.ToUpper(strings.TrimSpace(cfg.Gateway.QueryMethod))
	if cfg.Gateway.QueryMethod == "" {
		cfg.Gateway.QueryMethod = "POST"
	}
	if cfg.Gateway.APIKeyHeader == "" {
		cfg.Gateway.APIKeyHeader = DefaultAPIKeyHeader
	}
	if cfg.Gateway.PathNetwork == "" {
		cfg.Gateway.PathNetwork = DefaultPathNetwork
	}
	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}
	if cfg.Blockchain == "" {
		cfg.Blockchain = DefaultBlockchain
	}
	return cfg
}

// ApplyEnv overlays values from the given lookup function. Only non-empty
// variables override the file.
func ApplyEnv(cfg Config, getenv func(string) string) Config {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Gateway.APIKey, EnvAPIKey)
	set(&cfg.Gateway.APIKeyHeader, EnvAPIKeyHeader)
	set(&cfg.Gateway.URL, EnvGatewayURL)
	set(&cfg.WalletAddress, EnvWalletAddress)
	set(&cfg.Contracts.Greeting, EnvGreetingContract)
	set(&cfg.Contracts.Token, EnvTokenContract)
	set(&cfg.Contracts.Airdrop, EnvAirdropContract)
	return normalize(cfg)
}

// Validate reports fatal problems and non-fatal warnings.
func Validate(cfg Config) (problems []string, warnings []string) {
	if cfg.Gateway.URL == "" {
		problems = append(problems, "gateway url is empty")
	} else if u, err := url.Parse(cfg.Gateway.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("gateway url %q is not an absolute URL", cfg.Gateway.URL))
	}
	switch cfg.Gateway.QueryMethod {
	case "POST", "GET":
	default:
		problems = append(problems, fmt.Sprintf("query method %q must be POST or GET", cfg.Gateway.QueryMethod))
	}
	if cfg.Gateway.APIKey == "" {
		warnings = append(warnings, "api key is empty, calls will send an empty "+cfg.Gateway.APIKeyHeader+" header")
	}
	if !common.IsHexAddress(cfg.WalletAddress) {
		warnings = append(warnings, fmt.Sprintf("wallet address %q is not a 20-byte hex address", cfg.WalletAddress))
	}
	contracts := map[string]string{
		"greeting": cfg.Contracts.Greeting,
		"token":    cfg.Contracts.Token,
		"airdrop":  cfg.Contracts.Airdrop,
	}
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(contracts[name]) == "" {
			warnings = append(warnings, fmt.Sprintf("contract id for %s is not set, its calls will fail", name))
		}
	}
	if cfg.ClaimAmount <= 0 {
		problems = append(problems, "claim amount must be positive, got "+strconv.Itoa(cfg.ClaimAmount))
	}
	if cfg.RefreshIntervalSeconds < 0 || cfg.Gateway.RequestTimeoutSeconds < 0 {
		problems = append(problems, "intervals and timeouts must not be negative")
	}
	return problems, warnings
}

func SaveConfig(cfg Config, path string) error {
	if problems, _ := Validate(cfg); len(problems) > 0 {
		return fmt.Errorf("validation failed: %s", problems[0])
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}
