// Package api exposes the filter over HTTP and websocket: exclusion
// status queries, region mutations and region-set change broadcasts.
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"excluderegion-go/pkg/exclude"
	"excluderegion-go/pkg/log"
	"excluderegion-go/pkg/metrics"
	"excluderegion-go/pkg/region"
)

// Server serves the control API. Region mutations go through the engine's
// store, so the printing-time shrink/delete policy applies to API callers
// the same as to everyone else.
type Server struct {
	engine  *exclude.Engine
	metrics *metrics.Collector
	logger  *log.Logger

	httpServer *http.Server
	addr       string

	wsUpgrader websocket.Upgrader
	wsClients  map[int64]*wsClient
	wsClientMu sync.RWMutex
	nextWSID   int64

	running atomic.Bool
}

// Config holds server configuration.
type Config struct {
	// HTTP address to listen on (e.g., ":7216")
	Addr string

	Engine  *exclude.Engine
	Metrics *metrics.Collector
	Logger  *log.Logger
}

// New creates a control API server. The engine's region store is
// subscribed so every committed mutation, from any path, is broadcast to
// connected websocket clients.
func New(cfg Config) *Server {
	s := &Server{
		engine:    cfg.Engine,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.Component("api"),
		addr:      cfg.Addr,
		wsClients: make(map[int64]*wsClient),
	}

	s.wsUpgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	cfg.Engine.Store().Subscribe(func(set region.Set) {
		s.broadcastRegions(set)
	})

	return s
}

// Handler returns the full route table. Split out from Start so tests can
// mount it on httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/regions", s.handleRegions)
	mux.HandleFunc("/websocket", s.handleWebSocket)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	return s.corsMiddleware(mux)
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.running.Store(true)
	s.logger.Info("control API listening on %s", s.addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the API server and disconnects all websocket clients.
func (s *Server) Stop() error {
	s.running.Store(false)

	s.wsClientMu.Lock()
	for _, client := range s.wsClients {
		client.Close()
	}
	s.wsClients = make(map[int64]*wsClient)
	s.wsClientMu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// handleStatus reports engine and region state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, map[string]any{"result": s.engine.GetStatus()})
}

// handleRegions serves the region collection: GET lists, POST adds, PUT
// replaces, DELETE removes by id.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, map[string]any{"result": describeAll(s.engine.Store().Snapshot())})

	case http.MethodPost:
		s.mutateRegion(w, r, s.engine.Store().Add)

	case http.MethodPut:
		s.mutateRegion(w, r, s.engine.Store().Replace)

	case http.MethodDelete:
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		if err := s.engine.Store().Remove(id); err != nil {
			s.writeMutationError(w, err)
			return
		}
		s.writeJSON(w, map[string]any{"result": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// mutateRegion decodes a region definition and commits it through the
// given store operation.
func (s *Server) mutateRegion(w http.ResponseWriter, r *http.Request, commit func(region.Region) error) {
	var def region.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, "invalid region definition", http.StatusBadRequest)
		return
	}

	reg, err := def.Build()
	if err != nil {
		s.writeMutationError(w, err)
		return
	}
	if err := commit(reg); err != nil {
		s.writeMutationError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"result": region.Describe(reg)})
}

// writeMutationError maps a declined mutation to an HTTP status and a
// structured reason code the client can branch on.
func (s *Server) writeMutationError(w http.ResponseWriter, err error) {
	s.metrics.MutationDenied()

	status := http.StatusBadRequest
	body := map[string]any{"message": err.Error()}

	var merr *region.MutationError
	if errors.As(err, &merr) {
		body["reason"] = string(merr.Reason)
		body["id"] = merr.ID
		switch merr.Reason {
		case region.ReasonUnknownID:
			status = http.StatusNotFound
		case region.ReasonDuplicateID, region.ReasonShrinkForbidden, region.ReasonDeleteForbidden:
			status = http.StatusConflict
		}
	}

	s.logger.Warn("region mutation declined: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": body})
}

func describeAll(set region.Set) []region.Definition {
	defs := make([]region.Definition, 0, len(set))
	for _, r := range set {
		defs = append(defs, region.Describe(r))
	}
	return defs
}

// corsMiddleware allows cross-origin requests from printer frontends.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// notification is the message shape pushed to websocket clients.
type notification struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// broadcastRegions pushes the full new region set to every connected
// client. Runs on the mutating goroutine; sends never block it.
func (s *Server) broadcastRegions(set region.Set) {
	msg := notification{
		Method: "notify_regions_changed",
		Params: map[string]any{"regions": describeAll(set)},
	}

	s.wsClientMu.RLock()
	defer s.wsClientMu.RUnlock()
	for _, client := range s.wsClients {
		client.Send(msg)
	}
}

// wsClient represents one websocket connection.
type wsClient struct {
	id     int64
	conn   *websocket.Conn
	server *Server
	sendCh chan any
	done   chan struct{}
	mu     sync.Mutex
}

// handleWebSocket upgrades the connection and streams notifications until
// the client disconnects. The current region set is sent immediately so a
// new client does not wait for the next mutation.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error: %v", err)
		return
	}

	client := &wsClient{
		id:     atomic.AddInt64(&s.nextWSID, 1),
		conn:   conn,
		server: s,
		sendCh: make(chan any, 64),
		done:   make(chan struct{}),
	}

	s.wsClientMu.Lock()
	s.wsClients[client.id] = client
	s.wsClientMu.Unlock()

	s.logger.Info("websocket client %d connected", client.id)

	client.Send(notification{
		Method: "notify_regions_changed",
		Params: map[string]any{"regions": describeAll(s.engine.Store().Snapshot())},
	})

	go client.writePump()
	client.readPump() // Blocks until connection closes
}

func (s *Server) removeClient(client *wsClient) {
	s.wsClientMu.Lock()
	delete(s.wsClients, client.id)
	s.wsClientMu.Unlock()

	s.logger.Info("websocket client %d disconnected", client.id)
}

// Send queues a message for the client.
func (c *wsClient) Send(msg any) {
	select {
	case c.sendCh <- msg:
	case <-c.done:
	default:
		// Channel full, drop message
		c.server.logger.Warn("dropping message to client %d (channel full)", c.id)
	}
}

// Close closes the client connection.
func (c *wsClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return // Already closed
	default:
		close(c.done)
	}

	c.conn.Close()
}

// readPump consumes incoming messages. The only request clients send is a
// status query; anything else is ignored.
func (c *wsClient) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("websocket read error: %v", err)
			}
			break
		}

		var req notification
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		if req.Method == "status" {
			c.Send(notification{Method: "notify_status", Params: c.server.engine.GetStatus()})
		}
	}
}

// writePump serializes outgoing messages and keeps the connection alive
// with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.server.logger.Warn("websocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
