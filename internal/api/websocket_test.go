package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-tilt/internal/broadcaster"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-tilt/internal/infrastructure/logging"
)

var testWSConfig = config.WebSocketConfig{
	MaxMessageSize: 8192,
	PingInterval:   30,
	PongTimeout:    10,
}

// dialHub serves the API with a running hub and connects one client.
func dialHub(t *testing.T) (*Hub, *websocket.Conn, context.CancelFunc) {
	t.Helper()

	env := testServer(t)
	hub := NewHub(testWSConfig, logging.Discard())
	env.srv.hub = hub

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ts := httptest.NewServer(env.srv.buildRouter())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	resp.Body.Close() //nolint:errcheck // Handshake response
	t.Cleanup(func() { conn.Close() })
	return hub, conn, cancel
}

func send(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // Test deadline
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func subscribe(t *testing.T, conn *websocket.Conn, channels ...string) {
	t.Helper()
	send(t, conn, WSMessage{Type: WSTypeSubscribe, ID: "sub", Payload: WSSubscribePayload{Channels: channels}})
	if got := receive(t, conn); got.Type != WSTypeResponse || got.ID != "sub" {
		t.Fatalf("subscribe reply = %+v, want response", got)
	}
}

func redState() broadcaster.DeviceState {
	return broadcaster.DeviceState{
		Key:       "tilt",
		Type:      broadcaster.TypeDeviceState,
		Timestamp: 1772355600000,
		Color:     "Red",
		MAC:       "AA7F97FC141E",
		Name:      "Red",
	}
}

func TestWebSocket_StreamsDeviceStates(t *testing.T) {
	hub, conn, _ := dialHub(t)
	subscribe(t, conn, ChannelDeviceState)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.HandleDeviceStates([]broadcaster.DeviceState{redState()})

	got := receive(t, conn)
	if got.Type != WSTypeEvent || got.EventType != ChannelDeviceState {
		t.Fatalf("message = %+v, want %s event", got, ChannelDeviceState)
	}
	payload, ok := got.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload = %T, want object", got.Payload)
	}
	if payload["name"] != "Red" || payload["mac"] != "AA7F97FC141E" || payload["type"] != broadcaster.TypeDeviceState {
		t.Errorf("payload = %v", payload)
	}
}

func TestWebSocket_UnsubscribedClientSkipped(t *testing.T) {
	hub, conn, _ := dialHub(t)
	subscribe(t, conn, "other")

	hub.HandleDeviceStates([]broadcaster.DeviceState{redState()})

	// An event would be queued ahead of the pong.
	send(t, conn, WSMessage{Type: WSTypePing, ID: "p1"})
	if got := receive(t, conn); got.Type != WSTypePong || got.ID != "p1" {
		t.Errorf("message = %+v, want pong p1", got)
	}
}

func TestWebSocket_Unsubscribe(t *testing.T) {
	hub, conn, _ := dialHub(t)
	subscribe(t, conn, ChannelDeviceState)

	send(t, conn, WSMessage{Type: WSTypeUnsubscribe, ID: "u", Payload: WSSubscribePayload{Channels: []string{ChannelDeviceState}}})
	if got := receive(t, conn); got.Type != WSTypeResponse || got.ID != "u" {
		t.Fatalf("unsubscribe reply = %+v", got)
	}

	hub.HandleDeviceStates([]broadcaster.DeviceState{redState()})
	send(t, conn, WSMessage{Type: WSTypePing, ID: "p2"})
	if got := receive(t, conn); got.Type != WSTypePong {
		t.Errorf("message = %+v, want pong", got)
	}
}

func TestWebSocket_InvalidMessages(t *testing.T) {
	_, conn, _ := dialHub(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"unknown type", `{"type":"shout","id":"x"}`},
		{"subscribe without channels", `{"type":"subscribe","id":"s","payload":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)); err != nil {
				t.Fatalf("WriteMessage() error = %v", err)
			}
			if got := receive(t, conn); got.Type != WSTypeError {
				t.Errorf("message = %+v, want error", got)
			}
		})
	}
}

func TestWebSocket_ClosedOnShutdown(t *testing.T) {
	hub, conn, cancel := dialHub(t)
	subscribe(t, conn, ChannelDeviceState)

	cancel()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // Test deadline
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("ReadMessage() after shutdown should fail")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after shutdown, want 0", hub.ClientCount())
	}
}

func TestWebSocket_Disabled(t *testing.T) {
	env := testServer(t)

	w := env.do(t, http.MethodGet, "/api/v1/ws", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub(testWSConfig, logging.Discard())
	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, 1),
		subscriptions: map[string]struct{}{ChannelDeviceState: {}},
	}
	hub.Register(client)

	hub.HandleDeviceStates([]broadcaster.DeviceState{redState(), redState()})
	if len(client.send) != 1 {
		t.Errorf("queued = %d, want 1 (a full buffer drops messages)", len(client.send))
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}

	// Broadcasting after the send channel closed must not panic.
	client.trySend([]byte("late"))
}
