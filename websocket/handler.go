package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/scene"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	sendChanSize = 64
)

// FrameSource publishes the stats of rendered frames.
type FrameSource interface {
	Subscribe(h scene.FrameStatsHandler) uint32
	Unsubscribe(id uint32)
}

// FrameStreamer streams the stats of rendered frames to WebSocket clients,
// one JSON message per frame.
type FrameStreamer struct {
	Source FrameSource

	// The time a client can stay without receiving a frame before being
	// disconnected. Zero disables it.
	IdleTimeout time.Duration
}

// Server returns the WebSocket server streaming frames until ctx is done.
func (s *FrameStreamer) Server(ctx context.Context) websocket.Server {
	return websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()
			s.Handle(ctx, conn)
		},
	}
}

// Handle streams frames to the given connection. It returns when the client
// disconnects or when ctx is done.
func (s *FrameStreamer) Handle(ctx context.Context, conn *websocket.Conn) {
	h := handler{
		Conn:        conn,
		Source:      s.Source,
		IdleTimeout: s.IdleTimeout,
		clientID:    uuid.NewString(),
	}
	h.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	Source      FrameSource
	IdleTimeout time.Duration

	clientID       string
	sendChan       chan scene.FrameStats
	disconnectChan chan error
	sent           int
	dropped        atomic.Int64
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logs.WithTag("client_id", h.clientID).Info("new frame stream client is connected")
	instrumentConnect()

	h.sendChan = make(chan scene.FrameStats, sendChanSize)
	h.disconnectChan = make(chan error, 2)

	subscriptionID := h.Source.Subscribe(h.queue)
	defer h.Source.Unsubscribe(subscriptionID)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving()
	}()

	var idleTimer *time.Timer
	var idleChan <-chan time.Time
	if h.IdleTimeout > 0 {
		idleTimer = time.NewTimer(h.IdleTimeout)
		defer idleTimer.Stop()
		idleChan = idleTimer.C
	}

	var err error
	for err == nil {
		select {
		case <-ctx.Done():
			err = ctx.Err()

		case <-idleChan:
			err = errors.New("idle connection").WithTag("duration", h.IdleTimeout)

		case err = <-h.disconnectChan:

		case stats := <-h.sendChan:
			if idleTimer != nil {
				idleTimer.Stop()
				idleTimer.Reset(h.IdleTimeout)
			}

			if sendErr := h.send(stats); sendErr != nil {
				err = errors.New("sending frame stats failed").Wrap(sendErr)
			}
		}
	}

	// Unblocks the receiving goroutine.
	h.Conn.Close()
	wg.Wait()

	instrumentDisconnect()
	logs.WithTag("client_id", h.clientID).
		WithTag("sent_frames", h.sent).
		WithTag("dropped_frames", h.dropped.Load()).
		WithTag("reason", err.Error()).
		Info("frame stream client is disconnected")
}

// queue is called by the frame source. Frames are dropped when the client
// does not keep up.
func (h *handler) queue(stats scene.FrameStats) {
	select {
	case h.sendChan <- stats:
	default:
		h.dropped.Add(1)
		instrumentDroppedFrame()
	}
}

func (h *handler) send(stats scene.FrameStats) error {
	b, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	if err := websocket.Message.Send(h.Conn, string(b)); err != nil {
		return err
	}

	h.sent++
	instrumentSentFrame(len(b))
	return nil
}

// startReceiving reads until the connection fails. Clients are not expected
// to send anything.
func (h *handler) startReceiving() {
	for {
		var msg string
		if err := websocket.Message.Receive(h.Conn, &msg); err != nil {
			h.disconnectChan <- errors.New("receiving message failed").Wrap(err)
			return
		}
	}
}
