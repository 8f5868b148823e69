package cmd

import (
	"context"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
	"github.com/anicoll/waste-bin-controller/internal/pkg/publisher"
)

// LinkService is what run expects from the device link.
type LinkService interface {
	Connect(ctx context.Context) error
	Close() error
	// read by the HTTP layer
	IsConnected() bool
	DeviceStatus() string
	ConnectionInfo() model.ConnectionInfo
	// read and driven by the gate
	IsDeviceOnline() bool
	CurrentBinState() string
	DispatchCommand(ctx context.Context, index model.BinIndex) error
}

type Classifier interface {
	Loaded() bool
	Predict(ctx context.Context, data []byte) (*model.Prediction, error)
}

// EventBus fans bin events out to the registered sinks.
type EventBus interface {
	Publish(event model.BinEvent)
	Register(name string, sk publisher.Sink) error
	Run(ctx context.Context) error
}
