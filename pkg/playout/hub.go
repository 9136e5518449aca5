package playout

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"staticnews/pkg/model"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	clientSendCap  = 8
	maxMessageSize = 512
)

// frame is the wire format pushed to viewers.
type frame struct {
	Type        string    `json:"type"`
	SegmentName string    `json:"segment_name"`
	SubSegment  string    `json:"subsegment"`
	Title       string    `json:"title,omitempty"`
	Category    string    `json:"category,omitempty"`
	Script      string    `json:"script"`
	MediaRef    string    `json:"media_ref"`
	ScriptTier  string    `json:"script_tier"`
	MediaTier   string    `json:"media_tier"`
	Interrupted bool      `json:"interrupted,omitempty"`
	AiredAt     time.Time `json:"aired_at"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes on-air frames to websocket viewers. A slow viewer is
// disconnected rather than allowed to back up the broadcast.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	last     []byte
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Present implements Sink.
func (h *Hub) Present(seg *model.RenderedSegment) error {
	f := frame{
		Type:       "onair",
		Script:     seg.Script.Text,
		MediaRef:   seg.Media.MediaRef,
		ScriptTier: seg.Script.Tier,
		MediaTier:  seg.Media.Tier,
		AiredAt:    seg.RenderedAt,
	}
	if seg.Instance != nil {
		f.SegmentName = seg.Instance.SegmentName
		f.SubSegment = string(seg.Instance.Def.Type)
		f.Interrupted = seg.Instance.Interrupted
	}
	if seg.Item != nil {
		f.Title = seg.Item.Title
		f.Category = seg.Item.Category
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.last = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Viewer is not keeping up; drop them.
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
	return nil
}

// ServeHTTP upgrades the connection and streams frames. New viewers get
// the current frame immediately so they never join to a blank screen.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Playout: websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendCap)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	count := len(h.clients)
	h.mu.Unlock()
	slog.Debug("Playout: viewer connected", "viewers", count)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(maxMessageSize)
	for {
		// Viewers send nothing meaningful; reads only detect disconnect.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// Viewers returns the current connection count.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
