package handler

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"notification-hub/internal/middleware"
	"notification-hub/internal/realtime"
)

const (
	wsConnLocalsKey = "ws_conn"
	wsWriteWait     = 10 * time.Second
	wsMaxMessage    = 4096

	defaultPingInterval = 30 * time.Second
)

// WebSocketHandler serves the read-only notification stream. Clients
// authenticate with the same bearer token as the REST API, either in the
// Authorization header or the token query parameter.
type WebSocketHandler struct {
	hub          *realtime.Hub
	pingInterval time.Duration
	logger       *zap.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, pingInterval time.Duration, logger *zap.Logger) *WebSocketHandler {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &WebSocketHandler{hub: hub, pingInterval: pingInterval, logger: logger}
}

// Upgrade authenticates the client before the protocol switch so a bad token
// gets a plain 401 instead of a socket that closes immediately.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	conn, err := h.hub.Open(c.UserContext(), middleware.AccessToken(c))
	if err != nil {
		if errors.Is(err, realtime.ErrUnauthenticated) {
			return middleware.Unauthorized("Invalid or expired token")
		}
		return err
	}

	c.Locals(wsConnLocalsKey, conn)
	if err := c.Next(); err != nil {
		h.hub.Close(conn)
		return err
	}
	return nil
}

func (h *WebSocketHandler) Serve() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *WebSocketHandler) serve(ws *websocket.Conn) {
	conn, ok := ws.Locals(wsConnLocalsKey).(*realtime.Conn)
	if !ok {
		_ = ws.Close()
		return
	}

	log := h.logger.With(
		zap.String("conn_id", conn.ID().String()),
		zap.String("user_id", conn.UserID().String()),
	)
	log.Debug("websocket connected")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(ws, conn, log)
	}()

	h.readPump(ws, conn)

	h.hub.Close(conn)
	wg.Wait()
	log.Debug("websocket disconnected")
}

// readPump drains client frames. Every inbound message is answered with the
// read-only notice; the loop ends when the peer goes away or stops ponging.
func (h *WebSocketHandler) readPump(ws *websocket.Conn, conn *realtime.Conn) {
	pongWait := 2 * h.pingInterval

	ws.SetReadLimit(wsMaxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
		conn.TrySend(realtime.ReadOnlyAck)
	}
}

// writePump is the only writer on the socket.
func (h *WebSocketHandler) writePump(ws *websocket.Conn, conn *realtime.Conn, log *zap.Logger) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case payload := <-conn.Send():
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-conn.Done():
			_ = ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait),
			)
			return
		}
	}
}
