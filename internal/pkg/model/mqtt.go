package model

import "time"

// Effective bin states and device heartbeat values.
const (
	StatusUnknown = "unknown"
	StatusBusy    = "busy"
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// BusyWindow is how long after the last servo status report the bin is considered moving.
const BusyWindow = 1500 * time.Millisecond

// LinkState is an immutable snapshot of the broker connection as seen by the callbacks.
type LinkState struct {
	Connected        bool
	DeviceStatus     string
	BinState         string
	LastStatusUpdate time.Time // zero until the first servo status report
}

// EffectiveStatus derives the bin status at now.
func (s LinkState) EffectiveStatus(now time.Time) string {
	if !s.Connected {
		return StatusUnknown
	}
	if !s.LastStatusUpdate.IsZero() && now.Sub(s.LastStatusUpdate) <= BusyWindow {
		return StatusBusy
	}
	return s.BinState
}

type ConnectionInfo struct {
	Connected        bool   `json:"connected"`
	Broker           string `json:"broker"`
	Port             int    `json:"port"`
	SSLEnabled       bool   `json:"ssl_enabled"`
	CertVerification bool   `json:"cert_verification"`
	CACertConfigured bool   `json:"ca_cert_configured"`
	DeviceStatus     string `json:"esp32_status"`
	BinStatus        string `json:"bin_status"`
}
