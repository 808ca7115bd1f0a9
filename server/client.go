package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/epicdash/alloc"
	"github.com/teranos/epicdash/dashboard"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/gauge"
	"github.com/teranos/epicdash/logger"
)

// WebSocket timeouts, following the gorilla chat example.
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	// Per-request deadline for commands against the session
	commandTimeout = 5 * time.Second
)

// Client is one WebSocket connection. It receives session events through
// its own subscription and sends commands to the session.
type Client struct {
	server  *Server
	conn    *websocket.Conn
	sub     *dashboard.Subscription
	replies chan ReplyMessage
	limiter *rate.Limiter
	id      string
	log     *zap.SugaredLogger

	closeOnce sync.Once
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugw("WebSocket upgrade failed", logger.FieldError, err)
		return
	}

	id := uuid.NewString()
	c := &Client{
		server:  s,
		conn:    conn,
		replies: make(chan ReplyMessage, 16),
		limiter: s.newLimiter(),
		id:      id,
		log:     s.logger.With(logger.FieldClientID, shortID(id)),
	}
	if !s.register(c) {
		s.logger.Warnw("Client limit reached, rejecting connection", "max_clients", MaxClients)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many clients"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	sub, err := s.session.Subscribe(r.Context())
	if err != nil {
		s.unregister(c)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	c.sub = sub
	c.log.Infow("Client connected", "total_clients", s.ClientCount())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		c.readPump()
	}()
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.server.unregister(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		if logger.ShouldOutput(int(c.server.verbosity.Load()), logger.OutputWebSocket) {
			c.log.Debugw("Received WebSocket message", "size_bytes", len(data))
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(ReplyMessage{Type: MsgError, Error: "invalid message: " + err.Error()})
			continue
		}
		c.routeMessage(msg)
	}
}

// handleReadError logs unexpected WebSocket read errors. Ordinary
// closures are ignored.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseNormalClosure,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		c.log.Warnw("WebSocket read error", logger.FieldError, err)
	}
}

// routeMessage applies one command to the session and queues the reply.
func (c *Client) routeMessage(msg ClientMessage) {
	if msg.Type == MsgPing {
		c.reply(ReplyMessage{Type: MsgPong, Request: MsgPing})
		return
	}
	if !c.limiter.Allow() {
		c.reply(ReplyMessage{Type: MsgError, Request: msg.Type, Error: "rate limited"})
		return
	}

	ctx, cancel := context.WithTimeout(c.server.ctx, commandTimeout)
	defer cancel()
	ctx = logger.WithClientID(ctx, c.id)

	var (
		res alloc.Result
		err error
	)
	switch msg.Type {
	case MsgSelect:
		if msg.VariableID == nil {
			err = errors.NewValidationError("variable_id is required")
			break
		}
		res, err = c.server.session.Select(ctx, msg.Widget, *msg.VariableID)
	case MsgDeselect:
		res, err = c.server.session.Deselect(ctx, msg.Widget)
	case MsgClear:
		var ref gauge.SlotRef
		if ref, err = gauge.ParseSlotRef(msg.Slot); err == nil {
			res, err = c.server.session.Clear(ctx, ref)
		}
	default:
		c.log.Debugw("Unknown message type", "type", msg.Type)
		c.reply(ReplyMessage{Type: MsgError, Request: msg.Type, Error: "unknown message type"})
		return
	}

	if err != nil {
		c.reply(ReplyMessage{Type: MsgError, Request: msg.Type, Error: err.Error()})
		return
	}
	if logger.ShouldOutput(int(c.server.verbosity.Load()), logger.OutputSelection) {
		logger.LoggerFromContext(ctx).Infow("Command applied",
			"type", msg.Type,
			logger.FieldWidget, res.Widget,
			logger.FieldSlot, res.Slot,
			logger.FieldOutcome, res.Outcome)
	}
	c.reply(ReplyMessage{Type: MsgResult, Request: msg.Type, Result: &res})
}

// reply queues a direct answer. A client that stops reading loses replies
// rather than stalling its read loop.
func (c *Client) reply(m ReplyMessage) {
	select {
	case c.replies <- m:
	default:
		c.log.Debugw("Reply dropped, client not reading", "type", m.Type)
	}
}

// writePump forwards session events and replies to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.server.ctx.Done():
			return
		case e, ok := <-c.sub.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				c.log.Debugw("Event write error", logger.FieldError, err)
				return
			}
		case m := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(m); err != nil {
				c.log.Debugw("Reply write error", logger.FieldError, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close releases the session subscription exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.sub != nil {
			c.sub.Close()
		}
	})
}
