package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

var ErrAlreadyRegistered = errors.New("publisher already registered")

const (
	defaultBufferSize = 256
	maxBatch          = 64
	flushTimeout      = 5 * time.Second
)

type Sink interface {
	// Write persists or forwards a batch of events, oldest first.
	Write(ctx context.Context, events model.BinEvents) error
}

type service struct {
	mu    sync.RWMutex
	sinks map[string]Sink

	queue  chan model.BinEvent
	logger *zap.Logger

	lastMu sync.Mutex
	last   map[model.EventKind]string
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

func WithBufferSize(n int) Option {
	return func(s *service) {
		s.queue = make(chan model.BinEvent, n)
	}
}

func New(opts ...Option) *service {
	s := &service{
		sinks:  make(map[string]Sink),
		queue:  make(chan model.BinEvent, defaultBufferSize),
		logger: zap.L(),
		last:   make(map[model.EventKind]string),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) Register(name string, sk Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sinks[name]; ok {
		return ErrAlreadyRegistered
	}
	s.sinks[name] = sk
	s.logger.Info("registered event sink", zap.String("sink", name))
	return nil
}

// Publish never blocks the caller. Events are dropped when the queue is full, and a
// dropped status is not remembered so its next report goes out.
func (s *service) Publish(event model.BinEvent) {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()

	if s.isRepeat(event) {
		return
	}
	if event.Kind == model.EventDisconnected {
		clear(s.last)
	}
	select {
	case s.queue <- event:
		s.remember(event)
	default:
		s.logger.Warn("event queue full, dropping event", zap.Stringer("kind", event.Kind))
	}
}

// Run delivers queued events until ctx is done, then flushes what is left.
func (s *service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return nil
		case event := <-s.queue:
			batch := s.drain(model.BinEvents{event})
			s.deliver(ctx, batch)
		}
	}
}

func (s *service) drain(batch model.BinEvents) model.BinEvents {
	for len(batch) < maxBatch {
		select {
		case event := <-s.queue:
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

func (s *service) flush() {
	batch := s.drain(nil)
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	s.deliver(ctx, batch)
}

func (s *service) deliver(ctx context.Context, batch model.BinEvents) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, sk := range s.sinks {
		if err := sk.Write(ctx, batch); err != nil {
			s.logger.Error("failed to publish events", zap.Error(err), zap.String("sink", name))
			continue
		}
		s.logger.Debug("published events", zap.Int("count", len(batch)), zap.String("sink", name))
	}
}

// isRepeat reports a status that matches the last queued value for its kind.
// Callers hold lastMu.
func (s *service) isRepeat(event model.BinEvent) bool {
	if !dedupes(event.Kind) {
		return false
	}
	old, ok := s.last[event.Kind]
	return ok && old == event.Status
}

func (s *service) remember(event model.BinEvent) {
	if dedupes(event.Kind) {
		s.last[event.Kind] = event.Status
	}
}

func dedupes(kind model.EventKind) bool {
	return kind == model.EventBinStatus || kind == model.EventDeviceStatus
}
