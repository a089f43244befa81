package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"brickworld.dev/internal/game"
	"brickworld.dev/internal/observerproto"
)

type Config struct {
	Params observerproto.WorldParams
	Kinds  []string
	Levels []string
	// Submit forwards INPUT commands to the game. Nil makes the server view-only.
	Submit func(game.Command) bool
	// AllowLoadFile lets clients LOAD by file path, not only by level id.
	AllowLoadFile bool
	Logger        *log.Logger
}

// Server streams frames to websocket observers and forwards their input. It is
// a game.FrameSink; PublishFrame never blocks the game loop.
type Server struct {
	cfg Config
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*session
	last     *game.Frame
}

type session struct {
	id         string
	out        chan []byte
	everyTicks int
	events     bool
	seen       int
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		sessions: map[string]*session{},
	}
}

// PublishFrame fans f out to every session. Slow sessions only ever hold the
// most recent frame.
func (s *Server) PublishFrame(f game.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc := f
	s.last = &fc

	var full, bare []byte
	for _, sess := range s.sessions {
		sess.seen++
		if sess.everyTicks > 1 && sess.seen%sess.everyTicks != 1 && !f.GameOver {
			continue
		}
		var b []byte
		if sess.events {
			if full == nil {
				full = s.encode(f, true)
			}
			b = full
		} else {
			if bare == nil {
				bare = s.encode(f, false)
			}
			b = bare
		}
		if b != nil {
			sendLatest(sess.out, b)
		}
	}
}

func (s *Server) encode(f game.Frame, events bool) []byte {
	b, err := json.Marshal(frameMsg(f, events))
	if err != nil {
		s.log.Printf("encode frame %d: %v", f.Tick, err)
		return nil
	}
	return b
}

// sendLatest replaces a queued frame instead of blocking.
func sendLatest(ch chan []byte, b []byte) {
	for {
		select {
		case ch <- b:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			Params:          s.cfg.Params,
			Kinds:           s.cfg.Kinds,
			Levels:          s.cfg.Levels,
		}
		s.mu.Lock()
		if s.last != nil {
			resp.Level = s.last.Level
			resp.Tick = s.last.Tick
		}
		s.mu.Unlock()

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sess := &session{
			id:  fmt.Sprintf("O%d", s.nextID.Add(1)),
			out: make(chan []byte, 1),
		}
		s.join(sess, sub)
		defer s.leave(sess.id)
		s.log.Printf("observer %s joined from %s", sess.id, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: SUBSCRIBE updates and INPUT.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var base struct {
				Type            string `json:"type"`
				ProtocolVersion string `json:"protocol_version"`
			}
			if err := json.Unmarshal(msg, &base); err != nil || base.ProtocolVersion != observerproto.Version {
				continue
			}
			switch base.Type {
			case observerproto.TypeSubscribe:
				var sub observerproto.SubscribeMsg
				if err := json.Unmarshal(msg, &sub); err == nil {
					s.join(sess, sub)
				}
			case observerproto.TypeInput:
				var in observerproto.InputMsg
				if err := json.Unmarshal(msg, &in); err != nil {
					continue
				}
				if err := s.input(in); err != nil {
					s.sendError(sess, err.Error())
				}
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// join registers sess or updates its subscription. A new session gets the
// latest frame right away.
func (s *Server) join(sess *session, sub observerproto.SubscribeMsg) {
	every := sub.EveryTicks
	if every < 1 {
		every = 1
	}
	if every > 600 {
		every = 600
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.everyTicks = every
	sess.events = !sub.NoEvents
	if _, ok := s.sessions[sess.id]; ok {
		return
	}
	s.sessions[sess.id] = sess
	if s.last != nil {
		if b := s.encode(*s.last, false); b != nil {
			sendLatest(sess.out, b)
		}
	}
}

func (s *Server) leave(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.log.Printf("observer %s left", id)
}

func (s *Server) input(in observerproto.InputMsg) error {
	if s.cfg.Submit == nil {
		return fmt.Errorf("input disabled")
	}
	for _, c := range in.Commands {
		cmd, ok := parseCommand(c)
		if !ok {
			return fmt.Errorf("bad command %q", c.Kind)
		}
		if cmd.Kind == game.CmdLoad && !s.cfg.AllowLoadFile && !s.knownLevel(cmd.Arg) {
			return fmt.Errorf("unknown level %q", cmd.Arg)
		}
		if !s.cfg.Submit(cmd) {
			return fmt.Errorf("input queue full")
		}
	}
	return nil
}

func (s *Server) knownLevel(id string) bool {
	for _, l := range s.cfg.Levels {
		if l == id {
			return true
		}
	}
	return false
}

func (s *Server) sendError(sess *session, msg string) {
	b, err := json.Marshal(observerproto.ErrorMsg{
		Type:            observerproto.TypeError,
		ProtocolVersion: observerproto.Version,
		Message:         msg,
	})
	if err != nil {
		return
	}
	sendLatest(sess.out, b)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
