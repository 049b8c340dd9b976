package backendsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/realtime"
)

// Message types sent by the realtime endpoint.
const (
	MessageConnected = "connected"
	MessageEvent     = "event"
	MessageError     = "error"
	MessagePong      = "pong"
)

// Message is one realtime websocket frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Realtime implements realtime.Subscriber over the realtime websocket endpoint.
type Realtime struct {
	client         *Client
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	logger         core.Logger
}

var _ realtime.Subscriber = (*Realtime)(nil)

func NewRealtime(client *Client, conf *core.Config, logger core.Logger) *Realtime {
	return &Realtime{
		client:         client,
		dialer:         &websocket.Dialer{HandshakeTimeout: conf.Backend.Timeout},
		reconnectDelay: conf.RealtimeReconnectDelay,
		logger:         logger,
	}
}

// URL builds the websocket address for channels.
func (rt *Realtime) URL(channels []string) string {
	u := *rt.client.endpoint
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/realtime"
	q := url.Values{}
	q.Set("project", rt.client.projectID)
	for _, ch := range channels {
		q.Add("channels[]", ch)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (rt *Realtime) header() http.Header {
	h := http.Header{}
	h.Set(HeaderProject, rt.client.projectID)
	cookies := rt.client.Cookies()
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	if len(parts) > 0 {
		h.Set("Cookie", strings.Join(parts, "; "))
	}
	return h
}

func (rt *Realtime) dial(ctx context.Context, channels []string) (*websocket.Conn, error) {
	conn, resp, err := rt.dialer.DialContext(ctx, rt.URL(channels), rt.header())
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "realtime handshake: %s", resp.Status)
		}
		return nil, core.NewNetworkError(err)
	}
	return conn, nil
}

// Subscribe opens the websocket and delivers event frames to handler until the subscription
// is closed. A dropped connection is re-established after the reconnect delay.
func (rt *Realtime) Subscribe(ctx context.Context, channels []string, handler realtime.Handler) (realtime.Subscription, error) {
	conn, err := rt.dial(ctx, channels)
	if err != nil {
		return nil, err
	}
	sub := &subscription{
		rt:       rt,
		channels: channels,
		handler:  handler,
		conn:     conn,
		closed:   make(chan struct{}),
	}
	go sub.run()
	return sub, nil
}

type subscription struct {
	rt       *Realtime
	channels []string
	handler  realtime.Handler

	mu   sync.Mutex
	conn *websocket.Conn

	once   sync.Once
	closed chan struct{}
}

func (s *subscription) run() {
	for {
		s.readLoop()
		if !s.reconnect() {
			return
		}
	}
}

func (s *subscription) readLoop() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
			default:
				s.rt.logger.Warn("realtime connection lost", err)
			}
			_ = conn.Close()
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.rt.logger.Warn("invalid realtime message", err)
			continue
		}
		switch msg.Type {
		case MessageEvent:
			var evt realtime.Event
			if err := json.Unmarshal(msg.Data, &evt); err != nil {
				s.rt.logger.Warn("invalid realtime event", err)
				continue
			}
			s.handler(evt)
		case MessageError:
			s.rt.logger.Warn("realtime error", string(msg.Data))
		default:
			s.rt.logger.Debug("realtime message", msg.Type)
		}
	}
}

// reconnect waits for the reconnect delay and dials again. It returns false once closed.
func (s *subscription) reconnect() bool {
	for {
		select {
		case <-s.closed:
			return false
		case <-time.After(s.rt.reconnectDelay):
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-s.closed:
				cancel()
			case <-ctx.Done():
			}
		}()
		conn, err := s.rt.dial(ctx, s.channels)
		cancel()
		if err != nil {
			s.rt.logger.Warn("realtime reconnect failed", err)
			continue
		}

		s.mu.Lock()
		select {
		case <-s.closed:
			s.mu.Unlock()
			_ = conn.Close()
			return false
		default:
		}
		s.conn = conn
		s.mu.Unlock()
		return true
	}
}

// Close stops the subscription. It does not wait for the reader goroutine, which may be
// running the handler.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.closed)
		conn := s.conn
		s.mu.Unlock()

		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	return nil
}
