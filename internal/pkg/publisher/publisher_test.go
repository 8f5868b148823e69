package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

type MockSink struct {
	WriteFunc func(ctx context.Context, events model.BinEvents) error

	mu     sync.Mutex
	events model.BinEvents
}

func (m *MockSink) Write(ctx context.Context, events model.BinEvents) error {
	m.mu.Lock()
	m.events = append(m.events, events...)
	m.mu.Unlock()
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, events)
	}
	return nil
}

func (m *MockSink) Events() model.BinEvents {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(model.BinEvents(nil), m.events...)
}

func kinds(events model.BinEvents) []model.EventKind {
	out := make([]model.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

func TestRegister_Duplicate(t *testing.T) {
	p := New(WithLogger(zaptest.NewLogger(t)))

	require.NoError(t, p.Register("db", &MockSink{}))
	assert.ErrorIs(t, p.Register("db", &MockSink{}), ErrAlreadyRegistered)
}

func TestRun_DeliversToAllSinks(t *testing.T) {
	p := New(WithLogger(zaptest.NewLogger(t)))
	failing := &MockSink{WriteFunc: func(context.Context, model.BinEvents) error { return errors.New("down") }}
	ok := &MockSink{}
	require.NoError(t, p.Register("failing", failing))
	require.NoError(t, p.Register("ok", ok))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()

	p.Publish(model.BinEvent{Kind: model.EventConnected})
	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "OK"})

	assert.Eventually(t, func() bool { return len(ok.Events()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(failing.Events()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []model.EventKind{model.EventConnected, model.EventBinStatus}, kinds(ok.Events()))
}

func TestRun_FlushesOnShutdown(t *testing.T) {
	p := New(WithLogger(zaptest.NewLogger(t)))
	sk := &MockSink{}
	require.NoError(t, p.Register("sink", sk))

	p.Publish(model.BinEvent{Kind: model.EventConnected})
	p.Publish(model.BinEvent{Kind: model.EventDisconnected})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	// Run may have picked either branch first; both events arrive either way.
	assert.Eventually(t, func() bool { return len(sk.Events()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestPublish_DropsWhenFull(t *testing.T) {
	p := New(WithLogger(zaptest.NewLogger(t)), WithBufferSize(1))

	p.Publish(model.BinEvent{Kind: model.EventConnected})
	p.Publish(model.BinEvent{Kind: model.EventCommandAccepted})

	assert.Len(t, p.queue, 1)
}

func TestPublish_DedupesRepeatedStatus(t *testing.T) {
	p := New(WithLogger(zaptest.NewLogger(t)))

	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "OK"})
	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "OK"})
	p.Publish(model.BinEvent{Kind: model.EventDeviceStatus, Status: "online"})
	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "busy"})
	p.Publish(model.BinEvent{Kind: model.EventDisconnected})
	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "busy"})
	p.Publish(model.BinEvent{Kind: model.EventCommandAccepted})
	p.Publish(model.BinEvent{Kind: model.EventCommandAccepted})

	got := p.drain(nil)
	assert.Equal(t, []model.EventKind{
		model.EventBinStatus,
		model.EventDeviceStatus,
		model.EventBinStatus,
		model.EventDisconnected,
		model.EventBinStatus,
		model.EventCommandAccepted,
		model.EventCommandAccepted,
	}, kinds(got))
}

func TestPublish_DroppedStatusIsNotRemembered(t *testing.T) {
	p := New(WithLogger(zaptest.NewLogger(t)), WithBufferSize(1))
	sk := &MockSink{}
	require.NoError(t, p.Register("sink", sk))

	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "OK"})
	// queue is full, this one is dropped
	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "open"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()
	assert.Eventually(t, func() bool { return len(sk.Events()) == 1 }, time.Second, 5*time.Millisecond)

	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "open"})
	assert.Eventually(t, func() bool { return len(sk.Events()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	statuses := make([]string, 0, 2)
	for _, e := range sk.Events() {
		statuses = append(statuses, e.Status)
	}
	assert.Equal(t, []string{"OK", "open"}, statuses)
}

func TestPublish_DroppedDisconnectStillResets(t *testing.T) {
	p := New(WithLogger(zaptest.NewLogger(t)), WithBufferSize(2))

	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "OK"})
	p.Publish(model.BinEvent{Kind: model.EventConnected})
	// dropped, but the status memory is cleared anyway
	p.Publish(model.BinEvent{Kind: model.EventDisconnected})

	got := p.drain(nil)
	require.Len(t, got, 2)

	p.Publish(model.BinEvent{Kind: model.EventBinStatus, Status: "OK"})
	assert.Len(t, p.queue, 1)
}
