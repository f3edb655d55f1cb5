package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS origins are enforced on the REST routes only
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// WebSocket message types.
const (
	WSTypeAnalyze = "analyze"
	WSTypePing    = "ping"
	WSTypePong    = "pong"
	WSTypeStage   = "stage"
	WSTypeResult  = "result"
	WSTypeError   = "error"
)

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsOutbound is a server-to-client message.
type wsOutbound struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type wsStats struct {
	active atomic.Int64
}

// wsConn is one WebSocket client. Only the write pump writes to conn.
type wsConn struct {
	conn *websocket.Conn
	send chan wsOutbound
	done chan struct{}
	busy atomic.Bool
	log  zerolog.Logger
}

func (c *wsConn) push(msg wsOutbound) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

// handleWebSocket upgrades the connection. Each {"type":"analyze"} request
// runs one analysis and streams its stage events followed by the result.
// One analysis runs per connection at a time.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsConn{
		conn: conn,
		send: make(chan wsOutbound, 32),
		done: make(chan struct{}),
		log:  s.log.With().Str("conn_id", middleware.GetReqID(r.Context())).Logger(),
	}
	s.ws.active.Add(1)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	s.readPump(ctx, c)

	cancel()
	close(c.done)
	wg.Wait()
	conn.Close()
	s.ws.active.Add(-1)
}

// readPump reads client messages until the connection closes.
func (s *Server) readPump(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.push(wsOutbound{Type: WSTypeError, Data: map[string]string{"error": "invalid message"}})
			continue
		}

		switch msg.Type {
		case WSTypePing:
			c.push(wsOutbound{Type: WSTypePong})
		case WSTypeAnalyze:
			var req AnalyzeRequest
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.push(wsOutbound{Type: WSTypeError, Data: map[string]string{"error": "invalid analyze request"}})
				continue
			}
			if !c.busy.CompareAndSwap(false, true) {
				c.push(wsOutbound{Type: WSTypeError, Data: map[string]string{"error": "analysis already running"}})
				continue
			}
			go s.streamAnalysis(ctx, c, req.Ticker)
		default:
			c.push(wsOutbound{Type: WSTypeError, Data: map[string]string{"error": "unknown message type " + msg.Type}})
		}
	}
}

func (s *Server) streamAnalysis(ctx context.Context, c *wsConn, ticker string) {
	defer c.busy.Store(false)

	result, err := s.pipeline.AnalyzeWithObserver(ctx, ticker, func(e agent.Event) {
		c.push(wsOutbound{Type: WSTypeStage, Data: e})
	})
	if err != nil {
		c.push(wsOutbound{Type: WSTypeError, Data: map[string]interface{}{
			"error":  err.Error(),
			"status": statusFor(err),
		}})
		return
	}
	c.push(wsOutbound{Type: WSTypeResult, Data: result})
}

// writePump sends queued messages and keepalive pings.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
