package service

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"medprep_backend/internal/engine"
	"medprep_backend/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	monitorWriteWait  = 10 * time.Second
	monitorPongWait   = 60 * time.Second
	monitorPingPeriod = (monitorPongWait * 9) / 10
)

var monitorUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type MonitorMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type monitorClient struct {
	hub    *MonitorHub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// MonitorHub pushes live attempt lifecycle events to connected educators so
// they can watch a grand test as it runs. Clients only listen; the read pump
// exists to process pongs and detect disconnects.
type MonitorHub struct {
	mu      sync.RWMutex
	clients map[*monitorClient]bool
}

func NewMonitorHub() *MonitorHub {
	return &MonitorHub{clients: make(map[*monitorClient]bool)}
}

func (h *MonitorHub) register(c *monitorClient) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *MonitorHub) unregister(c *monitorClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// BroadcastAttemptEvent fans an engine event out to every connected watcher.
func (h *MonitorHub) BroadcastAttemptEvent(e engine.Event, userID uint, testID string) {
	msg := MonitorMessage{
		Type: string(e.Type),
		Data: map[string]interface{}{
			"attemptId": e.AttemptID,
			"testId":    testID,
			"userId":    userID,
			"section":   e.Section,
			"at":        time.Now().UTC(),
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// slow consumer, drop the event rather than block the engine
		}
	}
}

func (h *MonitorHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (c *monitorClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(monitorPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(monitorPongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("monitor socket unexpected close",
					zap.Error(err), zap.Uint("userId", c.userID))
			}
			break
		}
	}
}

func (c *monitorClient) writePump() {
	ticker := time.NewTicker(monitorPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(monitorWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(monitorWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeMonitorWs upgrades the connection and attaches it to the hub.
func ServeMonitorWs(hub *MonitorHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := monitorUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("monitor socket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &monitorClient{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
	}
	hub.register(client)

	go client.writePump()
	go client.readPump()
}
