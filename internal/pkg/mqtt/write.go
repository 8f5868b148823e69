package mqtt

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/errs"
	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

// DispatchCommand publishes the bin index to <base>/<index>. Bin state is left untouched,
// the device reports the transition on its own.
func (s *service) DispatchCommand(ctx context.Context, index model.BinIndex) error {
	if !s.IsConnected() {
		return errs.Transport("MQTT client not connected to broker", nil)
	}

	topic := s.topics.Command(index)
	token := s.client.Publish(topic, commandQoS, false, index.String())

	timer := time.NewTimer(s.publishTimeout())
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return errs.Transport("Failed to publish to "+topic, ctx.Err())
	case <-timer.C:
		return errs.Transport("Failed to publish to "+topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		s.logger.Error("failed to publish", zap.String("topic", topic), zap.Error(err))
		return errs.Transport("Failed to publish to "+topic, err)
	}

	s.logger.Info("published bin command", zap.String("topic", topic), zap.Stringer("bin_index", index))
	return nil
}
