package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"kalpdemo/pkg/dapp"
	"kalpdemo/pkg/gateway"
	"kalpdemo/pkg/metrics"
	"kalpdemo/pkg/models"
	"kalpdemo/pkg/watcher"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProxyGateway is what the JSON proxy routes need from *gateway.Client.
type ProxyGateway interface {
	Call(ctx context.Context, req gateway.Request) (*models.GatewayResponse, error)
	ContractID(app gateway.App) string
	HTTPMethod(kind gateway.Kind) string
}

type Server struct {
	suite   *dapp.Suite
	watcher *watcher.Watcher
	proxy   ProxyGateway
	clients map[*wsClient]bool
	mu      sync.Mutex
	router  *mux.Router
	limiter *RateLimiter
	logger  *log.Logger
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit sets the per-client budget of the /api routes.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) { s.limiter = NewRateLimiter(perSecond, burst, s.logger) }
}

func NewServer(suite *dapp.Suite, proxy ProxyGateway, opts ...Option) *Server {
	s := &Server{
		suite:   suite,
		watcher: suite.Watcher,
		proxy:   proxy,
		clients: make(map[*wsClient]bool),
		router:  mux.NewRouter(),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(5, 10, s.logger)
	}
	s.limiter.logger = s.logger
	s.routes()
	return s
}

func (s *Server) routes() {
	handle := func(r *mux.Router, path string, h http.HandlerFunc) *mux.Route {
		return r.Handle(path, metrics.InstrumentHandler(path, h))
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.limiter.Handler)
	handle(api, "/status", s.handleStatus).Methods(http.MethodGet)
	for _, route := range proxyRoutes {
		handle(api, "/"+route.path, s.handleProxy(route))
	}

	s.router.HandleFunc("/ws", s.handleWS)
	s.router.Handle("/metrics", metrics.Handler())
	handle(s.router, "/health", s.handleHealth).Methods(http.MethodGet)

	handle(s.router, "/", s.handleIndex).Methods(http.MethodGet)
	handle(s.router, "/{app}", s.handlePage).Methods(http.MethodGet)
	handle(s.router, "/{app}/{op}", s.handleSubmit).Methods(http.MethodPost)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.startBroadcast(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"views":          s.suite.Snapshot(),
		"supply_history": s.watcher.History(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// wsClient serializes writes to one websocket connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Broadcasts to this client wait for the snapshot to be written.
	client := &wsClient{conn: conn}
	client.mu.Lock()
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()
	defer s.removeClient(client)

	err = conn.WriteJSON(map[string]interface{}{
		"type": "initial",
		"data": s.suite.Snapshot(),
	})
	client.mu.Unlock()
	if err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) removeClient(c *wsClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// startBroadcast subscribes to the watcher and relays its events to every
// websocket client until ctx is canceled.
func (s *Server) startBroadcast(ctx context.Context) {
	sub := s.watcher.Subscribe()
	go func() {
		defer s.watcher.Unsubscribe(sub)
		for {
			select {
			case event, ok := <-sub:
				if !ok {
					return
				}
				s.broadcast(event)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Server) broadcast(event watcher.Event) {
	s.mu.Lock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(event); err != nil {
			_ = c.conn.Close()
			s.removeClient(c)
		}
	}
}
