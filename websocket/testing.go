package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aukilabs/zonecull/scene"
	"golang.org/x/net/websocket"
)

// TestFrameSource is a frame source publishing the frames it is given.
type TestFrameSource struct {
	mutex       sync.Mutex
	nextID      uint32
	handlers    map[uint32]scene.FrameStatsHandler
	subscribeCh chan struct{}
}

func NewTestFrameSource() *TestFrameSource {
	return &TestFrameSource{
		handlers:    make(map[uint32]scene.FrameStatsHandler),
		subscribeCh: make(chan struct{}, 16),
	}
}

func (s *TestFrameSource) Subscribe(h scene.FrameStatsHandler) uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nextID++
	s.handlers[s.nextID] = h
	s.subscribeCh <- struct{}{}
	return s.nextID
}

func (s *TestFrameSource) Unsubscribe(id uint32) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.handlers, id)
}

// Subscribed returns a channel receiving a value on each subscription.
func (s *TestFrameSource) Subscribed() <-chan struct{} {
	return s.subscribeCh
}

func (s *TestFrameSource) Subscribers() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.handlers)
}

func (s *TestFrameSource) Publish(stats scene.FrameStats) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, h := range s.handlers {
		h(stats)
	}
}

// NewTestingEnv starts a frame streaming server and returns a client
// connected to it, with a function to close both.
func NewTestingEnv(t *testing.T, ctx context.Context, streamer *FrameStreamer) (*websocket.Conn, func()) {
	server := httptest.NewServer(streamer.Server(ctx))

	config, err := websocket.NewConfig(
		strings.ReplaceAll(server.URL, "http://", "ws://"),
		"http://localhost",
	)
	if err != nil {
		t.Fatalf("error initializing web socket: %s", err)
	}

	conn, err := websocket.DialConfig(config)
	if err != nil {
		t.Fatalf("error dialing web socket: %s", err)
	}

	return conn, func() {
		conn.Close()
		server.Close()
	}
}
