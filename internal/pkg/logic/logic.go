package logic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/errs"
	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

type deviceLink interface {
	IsDeviceOnline() bool
	// CurrentBinState is unknown, busy or whatever the bin last reported.
	CurrentBinState() string
	DispatchCommand(ctx context.Context, index model.BinIndex) error
}

type publisher interface {
	Publish(event model.BinEvent)
}

type logic struct {
	link   deviceLink
	events publisher
	logger *zap.Logger
	now    func() time.Time

	// serialize holds mu across decide and dispatch, otherwise two requests may both pass the busy check.
	serialize bool
	mu        sync.Mutex
}

type Option func(*logic)

func WithPublisher(p publisher) Option {
	return func(l *logic) {
		l.events = p
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *logic) {
		l.logger = logger
	}
}

func WithSerializedDispatch() Option {
	return func(l *logic) {
		l.serialize = true
	}
}

func NewLogicSvc(link deviceLink, opts ...Option) *logic {
	l := &logic{
		link:   link,
		logger: zap.L(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// OpenBin checks the device and forwards the command. The order of checks matters:
// an offline device cannot be trusted to report its bin state.
func (l *logic) OpenBin(ctx context.Context, index model.BinIndex) (*model.BinCommandResult, error) {
	if !index.Valid() {
		return nil, l.reject(index, "", errs.InvalidInput("bin_index must be 0 to 3"))
	}
	if l.serialize {
		l.mu.Lock()
		defer l.mu.Unlock()
	}

	if !l.link.IsDeviceOnline() {
		return nil, l.reject(index, "", errs.DeviceUnavailable("ESP32 device is offline. Cannot control bin."))
	}

	status := l.link.CurrentBinState()
	switch status {
	case model.StatusBusy:
		return nil, l.reject(index, status, errs.Conflict("Bin is currently busy. Please wait until it's available."))
	case model.StatusUnknown:
		return nil, l.reject(index, status, errs.DeviceUnavailable("Bin status is unknown. Please check the connection to the IoT device."))
	}

	label, _ := model.LabelFor(index)
	if err := l.link.DispatchCommand(ctx, index); err != nil {
		return nil, l.reject(index, status, err)
	}

	l.logger.Info("opened bin", zap.Stringer("bin_index", index), zap.Stringer("label", label), zap.String("bin_status", status))
	l.emit(model.BinEvent{Kind: model.EventCommandAccepted, BinIndex: &index, Status: status, Detail: label.String()})
	return &model.BinCommandResult{
		Index:        index,
		Label:        label,
		StatusBefore: status,
	}, nil
}

// OpenBinForLabel resolves a classifier label to its bin before gating.
func (l *logic) OpenBinForLabel(ctx context.Context, label model.Label) (*model.BinCommandResult, error) {
	index, ok := model.IndexFor(label)
	if !ok {
		return nil, errs.Upstream(fmt.Sprintf("no bin configured for label %q", label), model.ErrUnknownLabel)
	}
	return l.OpenBin(ctx, index)
}

func (l *logic) reject(index model.BinIndex, status string, err error) error {
	l.logger.Warn("bin command rejected", zap.Stringer("bin_index", index), zap.String("bin_status", status), zap.Error(err))
	l.emit(model.BinEvent{Kind: model.EventCommandRejected, BinIndex: &index, Status: status, Detail: err.Error()})
	return err
}

func (l *logic) emit(event model.BinEvent) {
	if l.events == nil {
		return
	}
	event.Timestamp = l.now()
	l.events.Publish(event)
}
