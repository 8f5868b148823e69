package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

const namespace = "waste_bin"

type service struct {
	registry *prometheus.Registry

	events      *prometheus.CounterVec
	commands    *prometheus.CounterVec
	connected   prometheus.Gauge
	online      prometheus.Gauge
	predictions *prometheus.HistogramVec
	requests    *prometheus.HistogramVec
}

func New() *service {
	s := &service{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Bin events seen, by kind.",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Bin open commands, by bin and result.",
		}, []string{"bin_index", "result"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_connected",
			Help:      "1 while the broker session is up.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_online",
			Help:      "1 while the device reports online.",
		}),
		predictions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Image classification latency, by predicted class.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"class"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.events,
		s.commands,
		s.connected,
		s.online,
		s.predictions,
		s.requests,
	)
	return s
}

// Write updates counters and gauges from a batch of events.
func (s *service) Write(_ context.Context, events model.BinEvents) error {
	for _, event := range events {
		s.events.WithLabelValues(event.Kind.String()).Inc()
		switch event.Kind {
		case model.EventConnected:
			s.connected.Set(1)
		case model.EventDisconnected, model.EventConnectFailed:
			s.connected.Set(0)
		case model.EventDeviceStatus:
			s.online.Set(boolGauge(event.Status == model.StatusOnline))
		case model.EventCommandAccepted, model.EventCommandRejected:
			bin := "invalid"
			if event.BinIndex != nil && event.BinIndex.Valid() {
				bin = event.BinIndex.String()
			}
			result := "accepted"
			if event.Kind == model.EventCommandRejected {
				result = "rejected"
			}
			s.commands.WithLabelValues(bin, result).Inc()
		}
	}
	return nil
}

func (s *service) ObservePrediction(class model.Label, d time.Duration) {
	s.predictions.WithLabelValues(class.String()).Observe(d.Seconds())
}

func (s *service) ObserveRequest(route, method string, code int, d time.Duration) {
	s.requests.WithLabelValues(route, method, strconv.Itoa(code)).Observe(d.Seconds())
}

func (s *service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
