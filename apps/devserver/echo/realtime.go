package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/notification"
	"github.com/trezcool/preceptor/core/placement"
	"github.com/trezcool/preceptor/core/realtime"
	"github.com/trezcool/preceptor/core/user"
	backendsvc "github.com/trezcool/preceptor/services/backend"
)

const (
	databaseID   = "preceptor"
	collectionID = "requests"

	sendBufferSize = 16
	writeWait      = 5 * time.Second
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true }, // dev only
	}

	errMissingChannels = newHTTPError(http.StatusBadRequest, "realtime_message_format_invalid", "Missing channels")
)

type (
	eventData struct {
		Events    []string    `json:"events"`
		Channels  []string    `json:"channels"`
		Timestamp string      `json:"timestamp"`
		Payload   interface{} `json:"payload"`
	}

	connectedData struct {
		Channels []string    `json:"channels"`
		User     interface{} `json:"user"`
	}

	wsClient struct {
		id       string
		userID   string
		channels map[string]bool
		conn     *websocket.Conn
		send     chan []byte
	}

	// Hub fans document events out to the realtime connections allowed to see them: the student
	// and the preceptor of the document.
	Hub struct {
		logger core.Logger

		mu      sync.RWMutex
		clients map[*wsClient]struct{}
		closed  bool
	}
)

var _ placement.Publisher = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// register adds c and queues its "connected" message. It returns false once the hub is closed.
func (h *Hub) register(c *wsClient, connected []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	c.send <- connected
	h.clients[c] = struct{}{}
	h.logger.Debug("realtime client registered", map[string]interface{}{"client": c.id, "total": len(h.clients)})
	return true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
		h.logger.Debug("realtime client unregistered", map[string]interface{}{"client": c.id, "total": len(h.clients)})
	}
}

// Publish sends a document event to every subscriber of the documents channel involved in doc.
func (h *Hub) Publish(event string, doc notification.RequestDocument) {
	data, err := json.Marshal(backendsvc.Message{
		Type: backendsvc.MessageEvent,
		Data: mustMarshal(eventData{
			Events:    documentEvents(event, doc.ID),
			Channels:  documentChannels(doc.ID),
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Payload:   doc,
		}),
	})
	if err != nil {
		h.logger.Error("encoding realtime event", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.channels[realtime.ChannelDocuments] || (c.userID != doc.StudentID && c.userID != doc.PreceptorID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// send buffer full, the client is disconnected
			go h.unregister(c)
			h.logger.Warn("realtime client too slow, disconnecting", map[string]interface{}{"client": c.id})
		}
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// documentEvents lists the event names of a document change, concrete first.
func documentEvents(event, docID string) []string {
	action := "create"
	if event == realtime.EventDocumentUpdate {
		action = "update"
	}
	return []string{
		fmt.Sprintf("databases.%s.collections.%s.documents.%s.%s", databaseID, collectionID, docID, action),
		event,
	}
}

func documentChannels(docID string) []string {
	collection := fmt.Sprintf("databases.%s.collections.%s.documents", databaseID, collectionID)
	return []string{realtime.ChannelDocuments, collection, collection + "." + docID}
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func registerRealtimeAPI(g *echo.Group, auth *authenticator, hub *Hub, m *metrics, logger core.Logger) {
	g.GET("/realtime", func(ctx echo.Context) error {
		return serveWS(ctx, hub, m, logger)
	}, auth.middleware())
}

func serveWS(ctx echo.Context, hub *Hub, m *metrics, logger core.Logger) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	channels := ctx.QueryParams()["channels[]"]
	if len(channels) == 0 {
		return errMissingChannels
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		logger.Warn("realtime upgrade failed", err)
		return nil // the upgrader already replied
	}

	c := newWSClient(usr, channels, conn)
	connected, err := json.Marshal(backendsvc.Message{
		Type: backendsvc.MessageConnected,
		Data: mustMarshal(connectedData{Channels: channels, User: usr.Account()}),
	})
	if err != nil || !hub.register(c, connected) {
		_ = conn.Close()
		return nil
	}

	m.realtime.Inc()
	defer m.realtime.Dec()

	go c.writePump(logger)
	c.readPump(hub)
	return nil
}

func newWSClient(usr user.User, channels []string, conn *websocket.Conn) *wsClient {
	c := &wsClient{
		id:       uuid.New().String(),
		userID:   usr.ID,
		channels: make(map[string]bool, len(channels)),
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
	}
	for _, ch := range channels {
		c.channels[ch] = true
	}
	return c
}

// readPump drains the connection until the peer leaves. Clients only send pings.
func (c *wsClient) readPump(hub *Hub) {
	defer hub.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump(logger core.Logger) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("realtime write failed", err)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
