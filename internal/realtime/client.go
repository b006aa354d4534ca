package realtime

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Server upgrades HTTP requests to websocket connections attached to a Hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer returns a Server accepting upgrades from allowedOrigins. "*" or
// an empty list accepts any origin.
func NewServer(hub *Hub, allowedOrigins []string) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
// The upgrader writes the HTTP error response itself on failure.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString(),
		hub:  s.hub,
		conn: conn,
	}
	c.send = s.hub.Register(c.id)
	s.hub.log.Debug().Str("conn_id", c.id).Str("remote", r.RemoteAddr).Msg("realtime client connected")

	go c.writePump()
	c.readPump()
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send <-chan []byte
}

// readPump handles room membership requests until the peer goes away, then
// unregisters the connection, which in turn stops writePump.
func (c *client) readPump() {
	defer func() {
		c.hub.Unregister(c.id)
		_ = c.conn.Close()
		c.hub.log.Debug().Str("conn_id", c.id).Msg("realtime client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug().Err(err).Str("conn_id", c.id).Msg("realtime read failed")
			}
			return
		}
		c.handle(f)
	}
}

func (c *client) handle(f Frame) {
	contentID, ok := roomArg(f.Data)

	var err error
	switch f.Event {
	case EventJoinRoom:
		if !ok {
			err = ErrEmptyRoom
			break
		}
		err = c.hub.Join(c.id, contentID)
	case EventLeaveRoom:
		if !ok {
			err = ErrEmptyRoom
			break
		}
		err = c.hub.Leave(c.id, contentID)
	default:
		c.hub.log.Debug().Str("conn_id", c.id).Str("event", f.Event).Msg("ignoring unknown realtime event")
		return
	}

	if err != nil {
		c.hub.log.Debug().Err(err).Str("conn_id", c.id).Str("event", f.Event).Msg("realtime request rejected")
	}
}

// roomArg accepts the content id as a JSON string or number.
func roomArg(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if _, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return n.String(), true
		}
	}
	return "", false
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
