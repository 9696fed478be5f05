package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const heartbeatInterval = 30 * time.Second

// realtimeFeed is a minimal phoenix-channel websocket client joined to a
// single per-user session topic. The backend broadcasts SIGNED_OUT and
// TOKEN_REFRESHED there when another device changes the session.
type realtimeFeed struct {
	url       string
	topic     string
	topicUser string
	onEvent   func(event string, payload map[string]any)
	log       zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
	ref  int
}

type feedMessage struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	Ref     string         `json:"ref"`
	JoinRef string         `json:"join_ref,omitempty"`
}

func newRealtimeFeed(baseURL, apiKey, token, userID string, onEvent func(string, map[string]any), log zerolog.Logger) *realtimeFeed {
	wsURL := baseURL
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[len("https"):]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/realtime/v1/websocket?apikey=" + apiKey + "&token=" + token + "&vsn=1.0.0"

	return &realtimeFeed{
		url:       wsURL,
		topic:     "realtime:session:" + userID,
		topicUser: userID,
		onEvent:   onEvent,
		log:       log,
	}
}

// connect dials the websocket, joins the session topic, and starts the read
// and heartbeat loops. Idempotent while connected.
func (f *realtimeFeed) connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("realtime dial: %w", err)
	}

	f.conn = conn
	f.done = make(chan struct{})

	if err := conn.WriteJSON(feedMessage{
		Topic:   f.topic,
		Event:   "phx_join",
		Payload: map[string]any{},
		Ref:     f.nextRefLocked(),
	}); err != nil {
		conn.Close()
		f.conn = nil
		return fmt.Errorf("realtime join: %w", err)
	}

	go f.readLoop(conn, f.done)
	go f.heartbeat(f.done)
	return nil
}

// disconnect leaves the topic and closes the connection. Safe when never
// connected.
func (f *realtimeFeed) disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn == nil {
		return
	}
	close(f.done)

	_ = f.conn.WriteJSON(feedMessage{
		Topic:   f.topic,
		Event:   "phx_leave",
		Payload: map[string]any{},
		Ref:     f.nextRefLocked(),
	})
	_ = f.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	f.conn.Close()
	f.conn = nil
}

func (f *realtimeFeed) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg feedMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Topic != f.topic {
			continue
		}
		switch msg.Event {
		case "phx_reply", "phx_close", "phx_error", "presence_state":
			continue
		}
		f.onEvent(msg.Event, msg.Payload)
	}
}

func (f *realtimeFeed) heartbeat(done chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.conn != nil {
				err := f.conn.WriteJSON(feedMessage{
					Topic:   "phoenix",
					Event:   "heartbeat",
					Payload: map[string]any{},
					Ref:     f.nextRefLocked(),
				})
				if err != nil {
					f.log.Debug().Err(err).Msg("realtime heartbeat failed")
				}
			}
			f.mu.Unlock()
		}
	}
}

func (f *realtimeFeed) nextRefLocked() string {
	f.ref++
	return strconv.Itoa(f.ref)
}
