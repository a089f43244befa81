package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/observerproto"
	"brickworld.dev/internal/sim/world"
)

func testFrame(tick uint64) game.Frame {
	active := true
	return game.Frame{
		Tick:      tick,
		Level:     "level1",
		Width:     320,
		Height:    240,
		Player:    world.PlayerState{Name: "Mario", Health: 5, MaxHealth: 5},
		PlayerPos: world.V(16, 16),
		Things: []world.ThingState{
			{ID: 1, Kind: "brick", Category: world.CategoryBlock, Pos: world.V(8, 232), Size: world.V(16, 16)},
			{ID: 2, Kind: "switch", Category: world.CategoryBlock, Pos: world.V(40, 232), Size: world.V(16, 16), Active: &active},
		},
		Events: []world.Event{{Kind: world.EventContact, A: "player", B: "brick", Side: world.SideAbove}},
	}
}

func startServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	s := NewServer(cfg)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observer/ws", s.WSHandler())
	mux.HandleFunc("/v1/observer/bootstrap", s.BootstrapHandler())
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts.URL
}

func dial(t *testing.T, base string, sub observerproto.SubscribeMsg) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(base, "http") + "/v1/observer/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return conn
}

func waitSessions(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Sessions() != n {
		if time.Now().After(deadline) {
			t.Fatalf("sessions=%d want %d", s.Sessions(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMsg(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return b
}

func subscribe() observerproto.SubscribeMsg {
	return observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version}
}

func TestServer_StreamsValidFrames(t *testing.T) {
	s, base := startServer(t, Config{})
	conn := dial(t, base, subscribe())
	waitSessions(t, s, 1)

	s.PublishFrame(testFrame(7))
	raw := readMsg(t, conn)
	if err := observerproto.ValidateFrame(raw); err != nil {
		t.Fatalf("frame does not match schema: %v\n%s", err, raw)
	}
	var m observerproto.FrameMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m.Tick != 7 || len(m.Things) != 2 || m.Things[1].Active == nil || !*m.Things[1].Active {
		t.Fatalf("frame=%+v", m)
	}
	if len(m.Events) != 1 || m.Events[0].Side != "ABOVE" {
		t.Fatalf("events=%+v", m.Events)
	}
}

func TestServer_LateJoinerGetsLatestFrame(t *testing.T) {
	s, base := startServer(t, Config{})
	s.PublishFrame(testFrame(1))
	s.PublishFrame(testFrame(2))

	conn := dial(t, base, subscribe())
	var m observerproto.FrameMsg
	if err := json.Unmarshal(readMsg(t, conn), &m); err != nil {
		t.Fatal(err)
	}
	if m.Tick != 2 {
		t.Fatalf("tick=%d want latest 2", m.Tick)
	}
}

func TestServer_ForwardsInput(t *testing.T) {
	got := make(chan game.Command, 4)
	s, base := startServer(t, Config{
		Levels: []string{"level1"},
		Submit: func(c game.Command) bool { got <- c; return true },
	})
	conn := dial(t, base, subscribe())
	waitSessions(t, s, 1)

	in := observerproto.InputMsg{
		Type:            observerproto.TypeInput,
		ProtocolVersion: observerproto.Version,
		Commands:        []observerproto.CommandMsg{{Kind: "RIGHT"}, {Kind: "LOAD", Arg: "level1"}},
	}
	if err := conn.WriteJSON(in); err != nil {
		t.Fatal(err)
	}
	for _, want := range []game.Command{{Kind: game.CmdRight}, {Kind: game.CmdLoad, Arg: "level1"}} {
		select {
		case c := <-got:
			if c != want {
				t.Fatalf("command=%+v want %+v", c, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("command %v never submitted", want.Kind)
		}
	}

	bad := in
	bad.Commands = []observerproto.CommandMsg{{Kind: "LOAD", Arg: "/etc/passwd"}}
	if err := conn.WriteJSON(bad); err != nil {
		t.Fatal(err)
	}
	var e observerproto.ErrorMsg
	if err := json.Unmarshal(readMsg(t, conn), &e); err != nil {
		t.Fatal(err)
	}
	if e.Type != observerproto.TypeError || !strings.Contains(e.Message, "unknown level") {
		t.Fatalf("error=%+v", e)
	}
}

func TestServer_EveryTicksThinsStream(t *testing.T) {
	s, base := startServer(t, Config{})
	sub := subscribe()
	sub.EveryTicks = 3
	sub.NoEvents = true
	conn := dial(t, base, sub)
	waitSessions(t, s, 1)

	s.PublishFrame(testFrame(10))
	var m observerproto.FrameMsg
	if err := json.Unmarshal(readMsg(t, conn), &m); err != nil {
		t.Fatal(err)
	}
	if m.Tick != 10 || len(m.Events) != 0 {
		t.Fatalf("first frame tick=%d events=%d", m.Tick, len(m.Events))
	}
	s.PublishFrame(testFrame(11))
	s.PublishFrame(testFrame(12))
	s.PublishFrame(testFrame(13))
	if err := json.Unmarshal(readMsg(t, conn), &m); err != nil {
		t.Fatal(err)
	}
	if m.Tick != 13 {
		t.Fatalf("tick=%d want 13", m.Tick)
	}
}

func TestServer_Bootstrap(t *testing.T) {
	s, base := startServer(t, Config{
		Params: observerproto.WorldParams{TickRateHz: 60, FrameEveryTicks: 1, BlockSize: 16},
		Kinds:  []string{"brick", "coin"},
		Levels: []string{"level1", "level2"},
	})
	s.PublishFrame(testFrame(42))

	resp, err := http.Get(base + "/v1/observer/bootstrap")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var b observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		t.Fatal(err)
	}
	if b.Tick != 42 || b.Level != "level1" || b.Params.TickRateHz != 60 || len(b.Levels) != 2 {
		t.Fatalf("bootstrap=%+v", b)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v want %v", addr, got, want)
		}
	}
}
