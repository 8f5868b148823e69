package mqtt

import (
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

// mockToken completes immediately unless pending is set.
type mockToken struct {
	err     error
	pending bool
	done    chan struct{}
}

func newToken(err error) *mockToken {
	t := &mockToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func pendingToken() *mockToken {
	return &mockToken{pending: true, done: make(chan struct{})}
}

func (t *mockToken) Wait() bool {
	<-t.done
	return true
}

func (t *mockToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *mockToken) Done() <-chan struct{} { return t.done }
func (t *mockToken) Error() error          { return t.err }

type published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  interface{}
}

type MockClient struct {
	ConnectFunc func() paho_mqtt.Token
	PublishFunc func(topic string, payload interface{}) paho_mqtt.Token

	mu            sync.Mutex
	subscriptions []string
	publishes     []published
	disconnects   int
}

func (m *MockClient) Connect() paho_mqtt.Token {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return newToken(nil)
}

func (m *MockClient) Disconnect(quiesce uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnects++
}

func (m *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token {
	m.mu.Lock()
	m.publishes = append(m.publishes, published{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(topic, payload)
	}
	return newToken(nil)
}

func (m *MockClient) Subscribe(topic string, qos byte, callback paho_mqtt.MessageHandler) paho_mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, topic)
	return newToken(nil)
}

func (m *MockClient) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subscriptions...)
}

func (m *MockClient) Publishes() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.publishes...)
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.payload }
func (m mockMessage) Ack()              {}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BinEvent
}

func (r *recordingPublisher) Publish(event model.BinEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) Kinds() []model.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]model.EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// fakeClock is advanced by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
