package main

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-paging/internal/audio"
	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/gateway"
	"github.com/oszuidwest/zwfm-paging/internal/journal"
	"github.com/oszuidwest/zwfm-paging/internal/monitor"
	"github.com/oszuidwest/zwfm-paging/internal/notify"
	"github.com/oszuidwest/zwfm-paging/internal/server"
	"github.com/oszuidwest/zwfm-paging/internal/types"
)

// Server is an HTTP server that provides the control surface for the
// paging controller: a WebSocket for live state and a JSON API.
type Server struct {
	config           *config.Config
	controller       *monitor.Controller
	journal          *journal.Log
	gateway          *gateway.Client
	commands         *server.CommandHandler
	expiry           *notify.SecretExpiryChecker
	version          *VersionChecker
	captureAvailable bool

	expiryMu  sync.Mutex
	expiryCfg types.GraphConfig
}

// NewServer returns a new Server wired to the given controller and its
// collaborators.
func NewServer(cfg *config.Config, ctrl *monitor.Controller, jl *journal.Log, gw *gateway.Client, captureAvailable bool) *Server {
	commands := server.NewCommandHandler(cfg, ctrl, jl, gw, captureAvailable)
	gc := cfg.GraphConfig()

	return &Server{
		config:           cfg,
		controller:       ctrl,
		journal:          jl,
		gateway:          gw,
		commands:         commands,
		expiry:           notify.NewSecretExpiryChecker(&gc),
		version:          NewVersionChecker(),
		captureAvailable: captureAvailable,
		expiryCfg:        gc,
	}
}

// handleWebSocket handles bidirectional WebSocket communication for real-time updates.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := server.UpgradeConnection(w, r)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	clientID := server.NewClientID()
	slog.Debug("WebSocket client connected", "client", clientID, "remote", r.RemoteAddr)

	// Create buffered send channel for thread-safe writes.
	// Only the writer goroutine writes to the connection, preventing race conditions.
	send := make(chan any, 16)
	done := make(chan struct{})
	statusUpdate := make(chan struct{}, 1)

	// Writer goroutine - sole writer to the connection
	go s.runWebSocketWriter(conn, send)

	// Reader goroutine - handles incoming commands
	go s.runWebSocketReader(conn, send, done, statusUpdate)

	s.runWebSocketEventLoop(send, done, statusUpdate)
	slog.Debug("WebSocket client disconnected", "client", clientID)
}

// runWebSocketWriter writes messages from the send channel to the connection.
func (s *Server) runWebSocketWriter(conn server.WebSocketConn, send <-chan any) {
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("WebSocket close error", "error", err)
		}
	}()
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// runWebSocketReader reads commands from the connection and dispatches them.
func (s *Server) runWebSocketReader(conn server.WebSocketConn, send chan<- any, done, statusUpdate chan<- struct{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in WebSocket reader", "panic", r)
		}
		close(done)
	}()

	for {
		var cmd server.WSCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		s.commands.Handle(cmd, send, func() {
			select {
			case statusUpdate <- struct{}{}:
			default:
			}
		})
	}
}

// runWebSocketEventLoop handles periodic status and level updates.
func (s *Server) runWebSocketEventLoop(send chan any, done, statusUpdate <-chan struct{}) {
	levelsTicker := time.NewTicker(100 * time.Millisecond)  // 10 fps for the level meter
	statusTicker := time.NewTicker(3000 * time.Millisecond) // Status updates every 3s
	defer levelsTicker.Stop()
	defer statusTicker.Stop()

	// trySend attempts to send a message, returning false if done is closed
	trySend := func(msg any) bool {
		select {
		case send <- msg:
			return true
		case <-done:
			return false
		}
	}

	// Send initial status
	if !trySend(s.buildWSStatus()) {
		close(send)
		return
	}

	for {
		select {
		case <-done:
			close(send)
			return
		case <-statusUpdate:
			if !trySend(s.buildWSStatus()) {
				close(send)
				return
			}
		case <-levelsTicker.C:
			if !trySend(types.WSLevelsResponse{Type: "levels", Levels: s.controller.Levels()}) {
				close(send)
				return
			}
		case <-statusTicker.C:
			if !trySend(s.buildWSStatus()) {
				close(send)
				return
			}
		}
	}
}

// refreshExpiryChecker points the secret expiry checker at the latest
// Graph credentials when they change, so the cached expiry never reflects
// a replaced secret.
func (s *Server) refreshExpiryChecker(cfg config.Snapshot) {
	gc := types.GraphConfig{
		TenantID:     cfg.GraphTenantID,
		ClientID:     cfg.GraphClientID,
		ClientSecret: cfg.GraphClientSecret,
		FromAddress:  cfg.GraphFromAddress,
		Recipients:   cfg.GraphRecipients,
	}

	s.expiryMu.Lock()
	changed := gc != s.expiryCfg
	if changed {
		s.expiryCfg = gc
	}
	s.expiryMu.Unlock()

	if changed {
		s.expiry.UpdateConfig(&gc)
	}
}

// buildWSStatus returns the current WebSocket status response.
func (s *Server) buildWSStatus() types.WSStatusResponse {
	cfg := s.config.Snapshot()
	s.refreshExpiryChecker(cfg)

	return types.WSStatusResponse{
		Type:              "status",
		CaptureAvailable:  s.captureAvailable,
		Monitor:           s.controller.Status(),
		Monitoring:        cfg.Monitoring,
		Groups:            cfg.Groups,
		Devices:           audio.ListDevices(),
		GatewayBaseURL:    cfg.GatewayBaseURL,
		GatewayTimeoutMs:  cfg.GatewayTimeoutMs,
		WebhookURL:        cfg.WebhookURL,
		GraphTenantID:     cfg.GraphTenantID,
		GraphClientID:     cfg.GraphClientID,
		GraphFromAddress:  cfg.GraphFromAddress,
		GraphRecipients:   cfg.GraphRecipients,
		GraphSecretExpiry: s.expiry.GetInfo(),
		RecordingOwnerID:  cfg.RecordingOwnerID,
		S3Configured:      cfg.HasS3(),
		LogCount:          s.journal.Len(),
		Settings: types.WSSettings{
			AudioInput: cfg.AudioInput,
			Platform:   runtime.GOOS,
		},
		Version: s.version.Info(),
	}
}

// SetupRoutes returns an [http.Handler] configured with all application routes.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	auth := s.apiKeyAuth

	// WebSocket endpoint for the live control surface
	mux.HandleFunc("/ws", auth(s.handleWebSocket))

	// Configuration and status
	mux.HandleFunc("/api/config", auth(s.handleAPIConfig))
	mux.HandleFunc("/api/devices", auth(s.handleAPIDevices))
	mux.HandleFunc("/api/status", auth(s.handleAPIStatus))
	mux.HandleFunc("/api/settings", auth(s.handleAPISettings))
	mux.HandleFunc("/api/regenerate-key", auth(s.handleAPIRegenerateKey))

	// Speaker groups
	mux.HandleFunc("GET /api/groups", auth(s.handleListGroups))
	mux.HandleFunc("POST /api/groups", auth(s.handleCreateGroup))
	mux.HandleFunc("GET /api/groups/{id}", auth(s.handleGetGroup))
	mux.HandleFunc("PUT /api/groups/{id}", auth(s.handleUpdateGroup))
	mux.HandleFunc("DELETE /api/groups/{id}", auth(s.handleDeleteGroup))

	// Monitor lifecycle
	mux.HandleFunc("/api/monitor/start", auth(s.handleAPIMonitorStart))
	mux.HandleFunc("/api/monitor/stop", auth(s.handleAPIMonitorStop))

	// Activity journal
	mux.HandleFunc("/api/log", auth(s.handleAPILog))
	mux.HandleFunc("/api/log/clear", auth(s.handleAPILogClear))
	mux.HandleFunc("/api/log/export", auth(s.handleAPILogExport))

	// Connectivity tests
	mux.HandleFunc("/api/test-webhook", auth(s.handleAPITestWebhook))
	mux.HandleFunc("/api/test-email", auth(s.handleAPITestEmail))
	mux.HandleFunc("/api/test-s3", auth(s.handleAPITestS3))
	mux.HandleFunc("/api/test-gateway", auth(s.handleAPITestGateway))

	return securityHeaders(mux)
}

// securityHeaders returns middleware that wraps handlers with security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// apiKeyAuth returns middleware for API key authentication. When no key is
// configured the guard is disabled, for single-operator deployments on
// trusted networks. Browsers cannot set custom headers on a WebSocket
// handshake, so the key is also accepted as a query parameter.
func (s *Server) apiKeyAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := s.config.APIKey()
		if apiKey == "" {
			next(w, r)
			return
		}

		providedKey := r.Header.Get("X-API-Key")
		if providedKey == "" {
			providedKey = r.URL.Query().Get("api_key")
		}
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// Start begins the HTTP server.
// Returns an *http.Server that can be used for graceful shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.config.WebPort())
	slog.Info("starting web server", "addr", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.SetupRoutes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	return srv
}
