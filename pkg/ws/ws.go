package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"liyu1981.xyz/field-presence-service/pkg/auth"
	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	requestTimeout = 10 * time.Second
)

// Inbound event names.
const (
	EventRequestEmployeeUpdate = "requestEmployeeUpdate"
	EventHeartbeat             = "heartbeat"
)

// Server upgrades manager and employee connections and pumps session events
// to them as JSON text frames.
type Server struct {
	Tracker  *tracker.Tracker
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewServer(t *tracker.Tracker, allowedOrigins []string) *Server {
	return &Server{
		Tracker: t,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: common.GetLoggerWith(common.LoggerNameWsServer),
	}
}

// originChecker allows everything when no origins are configured. Requests
// without an Origin header come from native clients and are let through.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

func (s *Server) ServeManager(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, auth.RoleManager)
}

func (s *Server) ServeEmployee(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, auth.RoleEmployee)
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the token query parameter.
func TokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		return header
	}
	return r.URL.Query().Get("token")
}

// StatusFor maps an admission error to the HTTP status of the refused upgrade.
func StatusFor(err error) int {
	var authErr *tracker.AuthError
	if errors.As(err, &authErr) {
		if authErr.Forbidden() {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, role auth.Role) {
	session, err := s.Tracker.OpenSession(r.Context(), tracker.Credentials{
		Token: TokenFromRequest(r),
		Role:  role,
	})
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("Failed to open session", zap.String("role", string(role)), zap.Error(err))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the request
		s.logger.Warn("Upgrade failed", zap.String("session_id", session.ID), zap.Error(err))
		s.Tracker.CloseSession(session.ID)
		return
	}

	c := &client{
		server:  s,
		conn:    conn,
		session: session,
		logger: s.logger.With(
			zap.String("session_id", session.ID),
			zap.String("role", string(role)),
			zap.String("id", session.Identity.ID),
		),
	}
	go c.writePump()
	c.readPump()
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type employeeUpdateRequest struct {
	EmployeeID string `json:"employeeId"`
}

type client struct {
	server  *Server
	conn    *websocket.Conn
	session *tracker.Session
	logger  *zap.Logger
}

func (c *client) readPump() {
	defer func() {
		c.server.Tracker.CloseSession(c.session.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("Connection closed unexpectedly", zap.Error(err))
			}
			return
		}
		c.handle(message)
	}
}

// writePump is the only writer on the connection. Replies to inbound events
// go through the session queue as well so they stay ordered with broadcasts.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.session.Outbound():
			if err := c.write(evt); err != nil {
				c.logger.Debug("Write failed", zap.Error(err))
				return
			}
		case <-c.session.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(evt tracker.Event) error {
	payload, err := evt.Encode()
	if err != nil {
		c.logger.Error("Failed to encode event", zap.String("event", string(evt.Name)), zap.Error(err))
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *client) handle(message []byte) {
	var msg inbound
	if err := json.Unmarshal(message, &msg); err != nil {
		c.session.Deliver(tracker.ErrorEvent("Malformed message"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch {
	case msg.Event == EventRequestEmployeeUpdate && c.session.IsManager():
		var req employeeUpdateRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.EmployeeID == "" {
			c.session.Deliver(tracker.ErrorEvent("employeeId is required"))
			return
		}
		evt, err := c.server.Tracker.EmployeeUpdate(ctx, req.EmployeeID)
		if err != nil {
			c.logger.Error("Failed to get employee update", zap.String("employee_id", req.EmployeeID), zap.Error(err))
			evt = tracker.ErrorEvent("Failed to get employee update")
		}
		c.session.Deliver(evt)

	case msg.Event == EventHeartbeat && !c.session.IsManager():
		evt, err := c.server.Tracker.Heartbeat(ctx, &c.session.Identity)
		if err != nil {
			c.logger.Error("Heartbeat failed", zap.Error(err))
			evt = tracker.ErrorEvent("Heartbeat failed")
		}
		c.session.Deliver(evt)

	default:
		c.session.Deliver(tracker.ErrorEvent("Unsupported event: " + msg.Event))
	}
}
