package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kalpdemo/pkg/config"
	"kalpdemo/pkg/metrics"
	"kalpdemo/pkg/models"

	"github.com/charmbracelet/log"
)

const maxResponseBytes = 8 << 20

var (
	ErrMissingContractID = errors.New("contract id is not set, check your configuration")
	ErrMissingGatewayURL = errors.New("gateway url is not set, check your configuration")
	ErrResponseTooLarge  = errors.New("gateway response too large")
)

// Kind selects the gateway URL family.
type Kind string

const (
	KindInvoke Kind = "invoke" // state-mutating
	KindQuery  Kind = "query"  // read-only
)

// Request is one contract method call.
type Request struct {
	Kind       Kind
	ContractID string
	Method     string
	Args       map[string]any
	HTTPMethod string
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is returned for any non-2xx reply. Body is the raw reply.
type StatusError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("gateway call failed with status %d", e.Status)
}

// Client sends contract calls to the hosted gateway.
type Client struct {
	cfg    config.Config
	http   *http.Client
	logger *log.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client bound to cfg. A zero request timeout leaves the
// deadline to the caller's context.
func NewClient(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout()},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the client was built with.
func (c *Client) Config() config.Config {
	return c.cfg
}

// Endpoint builds the gateway URL for a contract method.
func (c *Client) Endpoint(kind Kind, contractID, method string) string {
	return fmt.Sprintf("%s/v1/contract/%s/%s/%s/%s",
		strings.TrimRight(c.cfg.Gateway.URL, "/"),
		url.PathEscape(c.cfg.Gateway.PathNetwork),
		kind,
		url.PathEscape(contractID),
		url.PathEscape(method),
	)
}

// Envelope wraps args in the fixed request envelope.
func (c *Client) Envelope(args map[string]any) models.RequestEnvelope {
	return models.NewEnvelope(c.cfg.Network, c.cfg.Blockchain, c.cfg.WalletAddress, args)
}

// Call performs exactly one HTTP request. It never retries.
func (c *Client) Call(ctx context.Context, req Request) (*models.GatewayResponse, error) {
	if strings.TrimSpace(c.cfg.Gateway.URL) == "" {
		return nil, ErrMissingGatewayURL
	}
	if strings.TrimSpace(req.ContractID) == "" {
		return nil, fmt.Errorf("%s: %w", req.Method, ErrMissingContractID)
	}
	if req.Kind == "" {
		req.Kind = KindInvoke
	}

	endpoint := c.Endpoint(req.Kind, req.ContractID, req.Method)
	env := c.Envelope(req.Args)
	httpReq, err := c.newRequest(ctx, req.HTTPMethod, endpoint, env)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.Method, err)
	}

	if c.cfg.Gateway.APIKey == "" {
		c.logger.Warn("api key is empty, sending empty header", "header", c.cfg.Gateway.APIKeyHeader)
	}
	c.logger.Debug("calling gateway", "method", req.Method, "kind", req.Kind, "http", httpReq.Method, "url", endpoint, "args", env.Args)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveGatewayCall(req.Method, string(req.Kind), metrics.OutcomeTransportError, time.Since(start))
		c.logger.Error("gateway unreachable", "method", req.Method, "err", err)
		return nil, &TransportError{Op: req.Method, URL: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err == nil && len(body) > maxResponseBytes {
		err = ErrResponseTooLarge
	}
	if err != nil {
		metrics.ObserveGatewayCall(req.Method, string(req.Kind), metrics.OutcomeTransportError, time.Since(start))
		return nil, &TransportError{Op: req.Method, URL: endpoint, Err: err}
	}

	parsed := models.ParseGatewayResponse(resp.StatusCode, body)
	c.logger.Debug("gateway response", "method", req.Method, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds(), "result", parsed.Display())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveGatewayCall(req.Method, string(req.Kind), metrics.OutcomeStatusError, time.Since(start))
		return nil, &StatusError{Status: resp.StatusCode, Message: parsed.Message, Body: body}
	}
	metrics.ObserveGatewayCall(req.Method, string(req.Kind), metrics.OutcomeOK, time.Since(start))
	return parsed, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, env models.RequestEnvelope) (*http.Request, error) {
	if method == "" {
		method = http.MethodPost
	}

	var req *http.Request
	if method == http.MethodGet {
		// No body on GET, the envelope travels in the query string.
		args, err := json.Marshal(env.Args)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("network", env.Network)
		q.Set("blockchain", env.Blockchain)
		q.Set("walletAddress", env.WalletAddress)
		q.Set("args", string(args))
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
	} else {
		payload, err := json.Marshal(env)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.cfg.Gateway.APIKeyHeader, c.cfg.Gateway.APIKey)
	return req, nil
}
