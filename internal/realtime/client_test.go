package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestServer_JoinRoomAndReceive(t *testing.T) {
	hub := NewHub(8, zerolog.Nop())
	srv := httptest.NewServer(NewServer(hub, []string{"*"}))
	defer srv.Close()

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.ConnectionCount() == 1 })

	if err := conn.WriteJSON(map[string]any{"event": EventJoinRoom, "data": "42"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, func() bool { return hub.RoomSize("42") == 1 })

	if err := hub.BroadcastUpdated(&domain.Content{ID: "42", Title: "live"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	seen := map[string]int{}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2; i++ {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read: %v", err)
		}
		seen[f.Event]++
	}
	if seen[EventContentUpdated] != 1 || seen[EventContentListUpdated] != 1 {
		t.Fatalf("unexpected events: %v", seen)
	}

	_ = conn.Close()
	waitFor(t, func() bool { return hub.ConnectionCount() == 0 && hub.RoomSize("42") == 0 })
}

func TestServer_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(8, zerolog.Nop())
	srv := httptest.NewServer(NewServer(hub, []string{"https://app.example.com"}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example.com"}})
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestRoomArg(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{`"abc"`, "abc", true},
		{`42`, "42", true},
		{`" "`, "", false},
		{`{"id":1}`, "", false},
		{``, "", false},
	}
	for _, tt := range tests {
		got, ok := roomArg(json.RawMessage(tt.raw))
		if got != tt.want || ok != tt.ok {
			t.Fatalf("roomArg(%s) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
