package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/wiredbrain/axiom/internal/pipeline"
)

// writeTimeout bounds a single websocket write. A stalled client must not
// wedge the speech queue's delivery goroutine.
const writeTimeout = 10 * time.Second

// Ensure wsSink implements the pipeline sink.
var _ pipeline.Sink = (*wsSink)(nil)

// wsSink is the write half of one websocket connection. Events come from
// both the read loop and the speech queue goroutine, so writes are
// serialised under a mutex.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// SendEvent implements [pipeline.Sink].
func (s *wsSink) SendEvent(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("server: marshal event: %w", err)
	}
	return s.write(ctx, websocket.MessageText, data)
}

// SendAudio implements [pipeline.Sink].
func (s *wsSink) SendAudio(ctx context.Context, wav []byte) error {
	return s.write(ctx, websocket.MessageBinary, wav)
}

func (s *wsSink) write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Write(ctx, typ, data); err != nil {
		return fmt.Errorf("server: write message: %w", err)
	}
	return nil
}
