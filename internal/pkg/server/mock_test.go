package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

type MockGate struct {
	OpenBinFunc         func(ctx context.Context, index model.BinIndex) (*model.BinCommandResult, error)
	OpenBinForLabelFunc func(ctx context.Context, label model.Label) (*model.BinCommandResult, error)

	mu     sync.Mutex
	opened []model.BinIndex
	labels []model.Label
}

func (m *MockGate) OpenBin(ctx context.Context, index model.BinIndex) (*model.BinCommandResult, error) {
	m.mu.Lock()
	m.opened = append(m.opened, index)
	m.mu.Unlock()
	if m.OpenBinFunc != nil {
		return m.OpenBinFunc(ctx, index)
	}
	label, _ := model.LabelFor(index)
	return &model.BinCommandResult{Index: index, Label: label, StatusBefore: "OK"}, nil
}

func (m *MockGate) OpenBinForLabel(ctx context.Context, label model.Label) (*model.BinCommandResult, error) {
	m.mu.Lock()
	m.labels = append(m.labels, label)
	m.mu.Unlock()
	if m.OpenBinForLabelFunc != nil {
		return m.OpenBinForLabelFunc(ctx, label)
	}
	index, _ := model.IndexFor(label)
	return &model.BinCommandResult{Index: index, Label: label, StatusBefore: "OK"}, nil
}

type MockLink struct {
	Connected bool
	Device    string
	BinState  string
}

func (m *MockLink) IsConnected() bool       { return m.Connected }
func (m *MockLink) DeviceStatus() string    { return m.Device }
func (m *MockLink) CurrentBinState() string { return m.BinState }

func (m *MockLink) ConnectionInfo() model.ConnectionInfo {
	return model.ConnectionInfo{
		Connected:    m.Connected,
		Broker:       "broker.test",
		Port:         8883,
		SSLEnabled:   true,
		DeviceStatus: m.Device,
		BinStatus:    m.BinState,
	}
}

type MockClassifier struct {
	LoadedValue bool
	PredictFunc func(ctx context.Context, data []byte) (*model.Prediction, error)
	calls       int
}

func (m *MockClassifier) Loaded() bool { return m.LoadedValue }

func (m *MockClassifier) Predict(ctx context.Context, data []byte) (*model.Prediction, error) {
	m.calls++
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, data)
	}
	return &model.Prediction{Label: model.LabelOrganic, Confidences: map[model.Label]float64{model.LabelOrganic: 91.5}}, nil
}

type MockEventStore struct {
	GetEventsFunc func(ctx context.Context, limit int) (model.BinEvents, error)
	limits        []int
}

func (m *MockEventStore) GetEvents(ctx context.Context, limit int) (model.BinEvents, error) {
	m.limits = append(m.limits, limit)
	if m.GetEventsFunc != nil {
		return m.GetEventsFunc(ctx, limit)
	}
	return model.BinEvents{}, nil
}

type MockMetrics struct {
	mu          sync.Mutex
	routes      []string
	predictions []model.Label
}

func (m *MockMetrics) ObserveRequest(route, method string, code int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, method+" "+route)
}

func (m *MockMetrics) ObservePrediction(class model.Label, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions = append(m.predictions, class)
}

func (m *MockMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# metrics"))
	})
}
