package model

import "time"

type EventKind string

func (k EventKind) String() string {
	return string(k)
}

const (
	EventConnected       EventKind = "connected"
	EventConnectFailed   EventKind = "connect_failed"
	EventDisconnected    EventKind = "disconnected"
	EventBinStatus       EventKind = "bin_status"
	EventDeviceStatus    EventKind = "device_status"
	EventCommandAccepted EventKind = "command_accepted"
	EventCommandRejected EventKind = "command_rejected"
)

type BinEvent struct {
	ID        int64     `json:"id,omitempty"`
	Kind      EventKind `json:"kind"`
	BinIndex  *BinIndex `json:"bin_index,omitempty"`
	Status    string    `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type BinEvents []BinEvent
