package influx

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/config"
	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

const (
	measurement        = "bin_event"
	defaultPingTimeout = 5 * time.Second
)

var ErrConnectionFailed = errors.New("influxdb connection failed")

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type service struct {
	client influxdb2.Client
	writer pointWriter
	logger *zap.Logger
}

// Connect pings the server before handing out a sink.
func Connect(ctx context.Context, cfg config.InfluxConfig) (*service, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	return &service{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger: zap.L(),
	}, nil
}

func (s *service) Write(ctx context.Context, events model.BinEvents) error {
	points := make([]*write.Point, 0, len(events))
	for _, event := range events {
		points = append(points, toPoint(event))
	}
	return s.writer.WritePoint(ctx, points...)
}

func (s *service) Close() error {
	if s.client == nil {
		return nil
	}
	s.client.Close()
	return nil
}

func toPoint(event model.BinEvent) *write.Point {
	tags := map[string]string{"kind": event.Kind.String()}
	if event.BinIndex != nil {
		tags["bin_index"] = event.BinIndex.String()
		if label, ok := model.LabelFor(*event.BinIndex); ok {
			tags["label"] = label.String()
		}
	}
	fields := map[string]any{
		"status": event.Status,
		"detail": event.Detail,
		"count":  1,
	}
	return influxdb2.NewPoint(measurement, tags, fields, event.Timestamp)
}
