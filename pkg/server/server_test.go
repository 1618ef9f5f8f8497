package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"kalpdemo/pkg/config"
	"kalpdemo/pkg/dapp"
	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/watcher"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// fakeGateway stands in for the hosted contract gateway.
type fakeGateway struct {
	mu     sync.Mutex
	calls  []upstreamCall
	status int
	body   string
}

func (f *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	c := upstreamCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	_ = json.Unmarshal(raw, &c.Body)
	f.mu.Lock()
	f.calls = append(f.calls, c)
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeGateway) last() upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestServer(t *testing.T, upstream *fakeGateway, opts ...Option) *Server {
	t.Helper()
	gw := httptest.NewServer(upstream)
	t.Cleanup(gw.Close)

	cfg := config.Default()
	cfg.Gateway.URL = gw.URL
	cfg.Contracts = config.ContractsConfig{Greeting: "greet-1", Token: "token-1", Airdrop: "drop-1"}
	client := gateway.NewClient(cfg)

	suite := dapp.NewSuite(client, watcher.NewWatcher(0, nil))
	t.Cleanup(suite.Close)
	return NewServer(suite, client, opts...)
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, &fakeGateway{})

	req, _ := http.NewRequest("GET", "/api/status", nil)
	rr := httptest.NewRecorder()

	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Contains(t, resp, "views")
	views := resp["views"].(map[string]interface{})
	assert.Contains(t, views, "greeting")
	assert.Contains(t, views, "token")
	assert.Contains(t, views, "airdrop")
}

func TestHandleWS(t *testing.T) {
	s := newTestServer(t, &fakeGateway{})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	var msg map[string]interface{}
	err = ws.ReadJSON(&msg)
	assert.NoError(t, err)
	assert.Equal(t, "initial", msg["type"])
	assert.Contains(t, msg["data"], "airdrop")
}

func TestHandleWS_LiveEvents(t *testing.T) {
	s := newTestServer(t, &fakeGateway{body: `{"result":"hello"}`})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.startBroadcast(ctx)

	server := httptest.NewServer(s.Handler())
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial map[string]interface{}
	require.NoError(t, ws.ReadJSON(&initial))
	assert.Equal(t, "initial", initial["type"])

	_, err = s.suite.Greeting.HandleGetGreeting(context.Background())
	require.NoError(t, err)

	var started, done watcher.Event
	require.NoError(t, ws.ReadJSON(&started))
	require.NoError(t, ws.ReadJSON(&done))
	assert.Equal(t, watcher.EventCallStarted, started.Type)
	assert.Equal(t, "greeting", started.View)
	assert.Equal(t, watcher.EventCallSucceeded, done.Type)
	assert.Equal(t, started.Call, done.Call)
}

func TestBroadcast_DropsClosedClients(t *testing.T) {
	s := newTestServer(t, &fakeGateway{})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	var initial map[string]interface{}
	require.NoError(t, ws.ReadJSON(&initial))
	_ = ws.Close()

	assert.Eventually(t, func() bool {
		s.broadcast(watcher.Event{Type: watcher.EventSupplyUpdated, View: "airdrop"})
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProxy_Initialize(t *testing.T) {
	upstream := &fakeGateway{body: `{"result":"initialized"}`}
	s := newTestServer(t, upstream)

	body := strings.NewReader(`{"name":"Kalp","symbol":"KLP","decimals":18,"extra":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/initialize", body)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"result":"initialized"}`, rr.Body.String())

	call := upstream.last()
	assert.Equal(t, "/v1/contract/kalp/invoke/token-1/Initialize", call.Path)
	assert.Equal(t, map[string]any{"name": "Kalp", "symbol": "KLP", "decimals": float64(18)}, call.Body["args"])
}

func TestProxy_PassesUpstreamStatus(t *testing.T) {
	upstream := &fakeGateway{status: http.StatusBadRequest, body: `{"message":"insufficient balance"}`}
	s := newTestServer(t, upstream)

	req := httptest.NewRequest(http.MethodPost, "/api/transfer", strings.NewReader(`{"recipient":"bob","amount":"5"}`))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"insufficient balance"}`, rr.Body.String())
}

func TestProxy_TotalSupplyGET(t *testing.T) {
	upstream := &fakeGateway{body: `{"result":{"result":1000}}`}
	s := newTestServer(t, upstream)

	req := httptest.NewRequest(http.MethodGet, "/api/totalSupply", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/v1/contract/kalp/query/token-1/TotalSupply", upstream.last().Path)
	assert.Equal(t, map[string]any{}, upstream.last().Body["args"])
}

func TestProxy_TotalSupplyFollowsQueryMethod(t *testing.T) {
	upstream := &fakeGateway{body: `{"result":"1000"}`}
	gw := httptest.NewServer(upstream)
	defer gw.Close()

	cfg := config.Default()
	cfg.Gateway.URL = gw.URL
	cfg.Gateway.QueryMethod = http.MethodGet
	cfg.Contracts = config.ContractsConfig{Token: "token-1"}
	client := gateway.NewClient(cfg)
	suite := dapp.NewSuite(client, watcher.NewWatcher(0, nil))
	defer suite.Close()
	s := NewServer(suite, client)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/totalSupply", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	call := upstream.last()
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "/v1/contract/kalp/query/token-1/TotalSupply", call.Path)
	assert.Equal(t, "{}", call.Query.Get("args"))

	// invokes stay on POST
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/mint", strings.NewReader(`{"amount":"1"}`)))
	assert.Equal(t, http.MethodPost, upstream.last().Method)
}

func TestProxy_MethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/initialize"},
		{http.MethodPut, "/api/mint"},
		{http.MethodPost, "/api/totalSupply"},
	}

	s := newTestServer(t, &fakeGateway{})
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, tt.path)
		assert.JSONEq(t, `{"message":"Method not allowed"}`, rr.Body.String())
	}
}

func TestProxy_TransportFailure(t *testing.T) {
	cfg := config.Default()
	dead := httptest.NewServer(http.NotFoundHandler())
	cfg.Gateway.URL = dead.URL
	dead.Close()

	client := gateway.NewClient(cfg)
	suite := dapp.NewSuite(client, watcher.NewWatcher(0, nil))
	defer suite.Close()
	s := NewServer(suite, client)

	req := httptest.NewRequest(http.MethodPost, "/api/mint", strings.NewReader(`{"amount":"1"}`))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Mint failed", resp["error"])
	assert.NotEmpty(t, resp["details"])
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &fakeGateway{}, WithRateLimit(0.001, 2))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// other clients keep their own budget
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestFormSubmit(t *testing.T) {
	upstream := &fakeGateway{body: `{"result":"ok"}`}
	s := newTestServer(t, upstream)

	form := url.Values{"greeting": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/greeting/setGreeting", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/greeting", rr.Header().Get("Location"))
	assert.True(t, strings.HasSuffix(upstream.last().Path, "/SetGreeting"))
	assert.Equal(t, map[string]any{"greeting": "hello"}, upstream.last().Body["args"])

	page := httptest.NewRecorder()
	s.Handler().ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/greeting", nil))
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `value="hello"`)
	assert.Contains(t, page.Body.String(), "setGreeting")
}

func TestFormSubmit_ShowsError(t *testing.T) {
	upstream := &fakeGateway{status: http.StatusInternalServerError, body: `{"message":"contract panic"}`}
	s := newTestServer(t, upstream)

	req := httptest.NewRequest(http.MethodPost, "/token/totalSupply", nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	page := httptest.NewRecorder()
	s.Handler().ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/token", nil))
	assert.Contains(t, page.Body.String(), "Error: contract panic")
}

func TestUnknownPages(t *testing.T) {
	s := newTestServer(t, &fakeGateway{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nft"},
		{http.MethodPost, "/token/steal"},
		{http.MethodPost, "/nft/claim"},
	} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, tc.path)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeGateway{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
