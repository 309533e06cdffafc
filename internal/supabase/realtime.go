package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Realtime returns a realtime client bound to this handle's URL and key.
// Each call returns a new connection owner; the component that creates it
// must Disconnect it.
func (c *Client) Realtime() *RealtimeClient {
	return NewRealtimeClient(c.baseURL, c.apiKey)
}

// RealtimeClient maintains one websocket connection to the realtime service
// and multiplexes named topic channels over it.
type RealtimeClient struct {
	mu       sync.RWMutex
	url      string
	apiKey   string
	conn     *websocket.Conn
	channels map[string]*PresenceChannel
	done     chan struct{}
	ref      int
}

// NewRealtimeClient creates a realtime client from the backend URL and key.
func NewRealtimeClient(baseURL, apiKey string) *RealtimeClient {
	wsURL := baseURL
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[len("https"):]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/realtime/v1/websocket?apikey=" + apiKey + "&vsn=1.0.0"

	return &RealtimeClient{
		url:      wsURL,
		apiKey:   apiKey,
		channels: make(map[string]*PresenceChannel),
		done:     make(chan struct{}),
	}
}

// Connect establishes the websocket connection.
func (r *RealtimeClient) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return &TransportError{Op: "realtime dial", Err: err}
	}

	r.conn = conn
	r.done = make(chan struct{})

	go r.readLoop()
	go r.heartbeat()

	return nil
}

// Disconnect closes the connection and releases all channels.
func (r *RealtimeClient) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	close(r.done)

	_ = r.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	err := r.conn.Close()
	r.conn = nil
	for topic := range r.channels {
		delete(r.channels, topic)
	}
	return err
}

// Channel returns or creates a presence channel for a topic.
func (r *RealtimeClient) Channel(topic string) *PresenceChannel {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.channels[topic]; ok {
		return ch
	}
	ch := &PresenceChannel{
		client:  r,
		topic:   topic,
		members: make(map[string]struct{}),
	}
	r.channels[topic] = ch
	return ch
}

// PresenceChannel is a subscription to one presence topic. It is owned by
// the component that created it, which must Unsubscribe it on teardown.
type PresenceChannel struct {
	client *RealtimeClient

	mu      sync.Mutex
	topic   string
	joined  bool
	joinRef string
	onSync  func(members map[string]struct{})
	members map[string]struct{}
}

// Subscribe joins the topic with presence enabled, keyed by selfKey.
func (c *PresenceChannel) Subscribe(ctx context.Context, selfKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.joined {
		return nil
	}

	ref := c.client.nextRef()
	c.joinRef = ref

	msg := map[string]any{
		"topic": c.topic,
		"event": "phx_join",
		"payload": map[string]any{
			"config": map[string]any{
				"presence": map[string]any{"key": selfKey},
			},
		},
		"ref":      ref,
		"join_ref": ref,
	}
	if err := c.client.writeJSON(msg); err != nil {
		return err
	}
	c.joined = true
	return nil
}

// Track announces this side's presence on the channel.
func (c *PresenceChannel) Track(ctx context.Context, meta map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.joined {
		return fmt.Errorf("supabase: track on unjoined channel %q", c.topic)
	}
	msg := map[string]any{
		"topic": c.topic,
		"event": "presence",
		"payload": map[string]any{
			"type":    "presence",
			"event":   "track",
			"payload": meta,
		},
		"ref":      c.client.nextRef(),
		"join_ref": c.joinRef,
	}
	return c.client.writeJSON(msg)
}

// OnSync registers the handler called with the full membership key set after
// every presence_state or presence_diff event.
func (c *PresenceChannel) OnSync(handler func(members map[string]struct{})) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSync = handler
}

// Unsubscribe leaves the topic. No handler runs after it returns.
func (c *PresenceChannel) Unsubscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.joined {
		return nil
	}
	msg := map[string]any{
		"topic":    c.topic,
		"event":    "phx_leave",
		"payload":  map[string]any{},
		"ref":      c.client.nextRef(),
		"join_ref": c.joinRef,
	}
	err := c.client.writeJSON(msg)

	c.joined = false
	c.onSync = nil

	c.client.mu.Lock()
	delete(c.client.channels, c.topic)
	c.client.mu.Unlock()
	return err
}

type presenceEntry struct {
	Metas []map[string]any `json:"metas"`
}

// handleEvent applies a presence event to the membership set and notifies
// the sync handler. Dropped silently once unsubscribed.
func (c *PresenceChannel) handleEvent(event string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.joined {
		return
	}

	switch event {
	case "presence_state":
		var state map[string]presenceEntry
		if err := json.Unmarshal(payload, &state); err != nil {
			return
		}
		c.members = make(map[string]struct{}, len(state))
		for key := range state {
			c.members[key] = struct{}{}
		}
	case "presence_diff":
		var diff struct {
			Joins  map[string]presenceEntry `json:"joins"`
			Leaves map[string]presenceEntry `json:"leaves"`
		}
		if err := json.Unmarshal(payload, &diff); err != nil {
			return
		}
		for key := range diff.Joins {
			c.members[key] = struct{}{}
		}
		for key := range diff.Leaves {
			delete(c.members, key)
		}
	default:
		return
	}

	if c.onSync != nil {
		snapshot := make(map[string]struct{}, len(c.members))
		for key := range c.members {
			snapshot[key] = struct{}{}
		}
		c.onSync(snapshot)
	}
}

type realtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

func (r *RealtimeClient) readLoop() {
	for {
		select {
		case <-r.done:
			return
		default:
		}

		r.mu.RLock()
		conn := r.conn
		r.mu.RUnlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg realtimeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		r.mu.RLock()
		ch := r.channels[msg.Topic]
		r.mu.RUnlock()
		if ch != nil {
			ch.handleEvent(msg.Event, msg.Payload)
		}
	}
}

func (r *RealtimeClient) heartbeat() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			msg := map[string]any{
				"topic":   "phoenix",
				"event":   "heartbeat",
				"payload": map[string]any{},
				"ref":     r.nextRef(),
			}
			_ = r.writeJSON(msg)
		}
	}
}

func (r *RealtimeClient) nextRef() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ref++
	return fmt.Sprintf("%d", r.ref)
}

func (r *RealtimeClient) writeJSON(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return fmt.Errorf("supabase: realtime not connected")
	}
	if err := r.conn.WriteJSON(msg); err != nil {
		return &TransportError{Op: "realtime write", Err: err}
	}
	return nil
}
