package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/stretchr/testify/assert"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

func TestOnConnect_FailureCodes(t *testing.T) {
	l := newTestLink(t, testConfig())
	for _, rc := range []byte{1, 2, 3, 4, 5} {
		l.onConnect(rc)
		assert.False(t, l.IsConnected(), "rc=%d", rc)
	}
	assert.Empty(t, l.client.Subscriptions())
}

func TestOnDisconnect_ResetsBinState(t *testing.T) {
	tests := map[string]error{
		"clean":      nil,
		"unexpected": errors.New("connection reset by peer"),
	}
	for name, cause := range tests {
		t.Run(name, func(t *testing.T) {
			l := newTestLink(t, testConfig())
			l.onConnect(packets.Accepted)
			l.handleMessage("test/waste/servo/status", []byte("available"))
			assert.Equal(t, "available", l.ConnectionInfo().BinStatus)

			l.onDisconnect(cause)

			assert.False(t, l.IsConnected())
			assert.Equal(t, model.StatusUnknown, l.ConnectionInfo().BinStatus)
			assert.Equal(t, model.StatusUnknown, l.CurrentBinState())
		})
	}
}

func TestOnMessage_ServoStatus(t *testing.T) {
	l := newTestLink(t, testConfig())

	l.onMessage(nil, mockMessage{topic: "test/waste/servo/status", payload: []byte("available")})

	st := l.snapshot()
	assert.Equal(t, "available", st.BinState)
	assert.Equal(t, l.clock.Now(), st.LastStatusUpdate)
	assert.Contains(t, l.events.Kinds(), model.EventBinStatus)
}

func TestOnMessage_DeviceStatusLowerCased(t *testing.T) {
	l := newTestLink(t, testConfig())

	l.onMessage(nil, mockMessage{topic: "test/waste/status", payload: []byte("ONLINE")})
	assert.Equal(t, "online", l.DeviceStatus())
	assert.True(t, l.IsDeviceOnline())

	l.onMessage(nil, mockMessage{topic: "test/waste/status", payload: []byte("Offline")})
	assert.Equal(t, "offline", l.DeviceStatus())
	assert.False(t, l.IsDeviceOnline())
}

func TestOnMessage_UnknownTopic(t *testing.T) {
	l := newTestLink(t, testConfig())
	l.handleMessage("test/waste/servo/status", []byte("OK"))
	l.handleMessage("test/waste/status", []byte("online"))
	before := l.snapshot()

	l.onMessage(nil, mockMessage{topic: "test/waste/other", payload: []byte("garbage")})
	l.onMessage(nil, mockMessage{topic: "test/waste/servo/status/extra", payload: []byte("garbage")})

	assert.Equal(t, before, l.snapshot())
}

func TestCurrentBinState_BusyWindow(t *testing.T) {
	tests := map[string]struct {
		age  time.Duration
		want string
	}{
		"1.4s old is busy":      {age: 1400 * time.Millisecond, want: model.StatusBusy},
		"exactly 1.5s is busy":  {age: 1500 * time.Millisecond, want: model.StatusBusy},
		"1.6s old is raw state": {age: 1600 * time.Millisecond, want: "OK"},
		"10s old is raw state":  {age: 10 * time.Second, want: "OK"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l := newTestLink(t, testConfig())
			l.onConnect(packets.Accepted)
			l.handleMessage("test/waste/servo/status", []byte("OK"))

			l.clock.Advance(tt.age)

			assert.Equal(t, tt.want, l.CurrentBinState())
		})
	}
}

func TestCurrentBinState_NoReportYet(t *testing.T) {
	l := newTestLink(t, testConfig())
	l.onConnect(packets.Accepted)

	// binState keeps its initial value until the device reports.
	assert.Equal(t, model.StatusUnknown, l.CurrentBinState())
}

func TestCurrentBinState_Disconnected(t *testing.T) {
	l := newTestLink(t, testConfig())
	l.handleMessage("test/waste/servo/status", []byte("OK"))
	l.clock.Advance(10 * time.Second)

	assert.Equal(t, model.StatusUnknown, l.CurrentBinState())
}

func TestState_ConcurrentAccess(t *testing.T) {
	l := newTestLink(t, testConfig())
	l.onConnect(packets.Accepted)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				l.handleMessage("test/waste/servo/status", []byte("OK"))
				l.handleMessage("test/waste/status", []byte("online"))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = l.CurrentBinState()
				_ = l.IsDeviceOnline()
				_ = l.ConnectionInfo()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, model.StatusBusy, l.CurrentBinState())
}
