package mqtt

import (
	"fmt"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

type topics struct {
	base string
}

// ServoStatus carries the bin's free-form state, repeated while it moves.
func (t topics) ServoStatus() string {
	return t.base + "/servo/status"
}

// DeviceStatus carries the device's online/offline heartbeat.
func (t topics) DeviceStatus() string {
	return t.base + "/status"
}

func (t topics) Command(i model.BinIndex) string {
	return fmt.Sprintf("%s/%s", t.base, i)
}
