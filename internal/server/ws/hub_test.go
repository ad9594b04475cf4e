package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubBus serves a canned stream backlog.
type stubBus struct {
	backlog   []domain.StreamMessage
	readErr   error
	gotStream string
	gotCount  int
}

func (b *stubBus) Publish(context.Context, string, []byte) error { return nil }
func (b *stubBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not used")
}
func (b *stubBus) StreamAppend(context.Context, string, []byte) error { return nil }
func (b *stubBus) StreamRead(_ context.Context, stream string, _ string, count int) ([]domain.StreamMessage, error) {
	b.gotStream = stream
	b.gotCount = count
	return b.backlog, b.readErr
}

func TestSendBacklogQueuesStreamEntries(t *testing.T) {
	bus := &stubBus{backlog: []domain.StreamMessage{
		{ID: "1-0", Payload: []byte(`{"event_slug":"rain-city"}`)},
		{ID: "2-0", Payload: []byte(`{"event_slug":"snow-city"}`)},
	}}
	h := NewHub(bus, discardLogger())
	c := &client{hub: h, send: make(chan []byte, sendBufferSize), subs: map[string]bool{}}

	c.sendBacklog(context.Background())

	if bus.gotStream != backlogStream || bus.gotCount != backlogCount {
		t.Fatalf("read %q count %d, want %q count %d", bus.gotStream, bus.gotCount, backlogStream, backlogCount)
	}
	if len(c.send) != 2 {
		t.Fatalf("queued %d messages, want 2", len(c.send))
	}
	first := <-c.send
	if string(first) != `{"event_slug":"rain-city"}` {
		t.Errorf("first replayed message = %s", first)
	}
}

func TestSendBacklogReadFailureIsQuiet(t *testing.T) {
	bus := &stubBus{readErr: errors.New("redis down")}
	h := NewHub(bus, discardLogger())
	c := &client{hub: h, send: make(chan []byte, sendBufferSize), subs: map[string]bool{}}

	c.sendBacklog(context.Background())

	if len(c.send) != 0 {
		t.Fatalf("queued %d messages after failed read, want 0", len(c.send))
	}
}
