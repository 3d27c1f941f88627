// Package observer serves the read-only observer endpoints: an HTTP
// bootstrap with the static map and a websocket stream of TURN frames.
// Both are loopback-only.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"agentgrid.ai/internal/observerproto"
	"agentgrid.ai/internal/sim/world"
)

type subscriber struct {
	out            chan []byte
	includeActions atomic.Bool
}

type Server struct {
	env *world.Environment
	log *log.Logger

	// Rendered once at startup; the environment is not safe to read from
	// handler goroutines while the turn loop runs. Live state flows
	// through TURN frames instead.
	bootstrap []byte

	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID atomic.Uint64
}

func NewServer(env *world.Environment, scenario string, params observerproto.WorldParams, logger *log.Logger) *Server {
	bootstrap, err := json.Marshal(observerproto.BuildBootstrap(env, scenario, params))
	if err != nil {
		logger.Printf("observer: marshal bootstrap: %v", err)
	}
	return &Server{
		env:       env,
		log:       logger,
		bootstrap: bootstrap,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: map[uint64]*subscriber{},
	}
}

// Broadcast fans a completed turn out to every subscriber. It must be
// called from the turn loop, since it reads the environment. A slow
// subscriber's frame is dropped rather than stalling the turn loop.
func (s *Server) Broadcast(rec world.TurnRecord, digest string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) == 0 {
		return
	}

	var plain, detailed []byte
	for _, sub := range s.subs {
		frame := &plain
		if sub.includeActions.Load() {
			frame = &detailed
		}
		if *frame == nil {
			msg := observerproto.BuildTurnMsg(s.env, rec, digest, sub.includeActions.Load())
			b, err := json.Marshal(msg)
			if err != nil {
				s.log.Printf("observer: marshal turn %d: %v", rec.Turn, err)
				return
			}
			*frame = b
		}
		select {
		case sub.out <- *frame:
		default:
		}
	}
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

		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write(s.bootstrap)
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
		var subMsg observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &subMsg); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if subMsg.Type != "SUBSCRIBE" || subMsg.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sub := &subscriber{out: make(chan []byte, 64)}
		sub.includeActions.Store(subMsg.IncludeActions)
		sid := s.nextID.Add(1)
		s.mu.Lock()
		s.subs[sid] = sub
		s.mu.Unlock()
		// Broadcast only sends while holding mu, so closing after removal
		// cannot race a send.
		defer func() {
			s.mu.Lock()
			delete(s.subs, sid)
			close(sub.out)
			s.mu.Unlock()
		}()

		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for b := range sub.out {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var upd observerproto.SubscribeMsg
			if err := json.Unmarshal(msg, &upd); err != nil {
				continue
			}
			if upd.Type != "SUBSCRIBE" || upd.ProtocolVersion != observerproto.Version {
				continue
			}
			sub.includeActions.Store(upd.IncludeActions)
		}

		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
		}
	}
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
