package mqtt

import (
	"strings"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

func (s *service) update(fn func(st *model.LinkState)) model.LinkState {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.state.Load()
	fn(&next)
	s.state.Store(&next)
	return next
}

func (s *service) snapshot() model.LinkState {
	return *s.state.Load()
}

func (s *service) emit(event model.BinEvent) {
	if s.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events.Publish(event)
}

func (s *service) onConnect(code byte) {
	if code != packets.Accepted {
		reason := packets.ConnackReturnCodes[code]
		s.logger.Debug("connection refused", zap.Uint8("return_code", code), zap.String("reason", reason))
		s.connectFailed(reason)
		return
	}

	s.update(func(st *model.LinkState) {
		st.Connected = true
	})
	s.logger.Info("connected to mqtt broker", zap.String("broker", s.cfg.Broker), zap.Bool("ssl", s.cfg.UseSSL))

	for _, topic := range []string{s.topics.ServoStatus(), s.topics.DeviceStatus()} {
		token := s.client.Subscribe(topic, subscribeQoS, s.onMessage)
		go s.awaitSubscription(topic, token)
	}
	s.emit(model.BinEvent{Kind: model.EventConnected})
}

// connectFailed records a failed attempt. Logging is left to whoever gets the error back.
func (s *service) connectFailed(reason string) {
	s.update(func(st *model.LinkState) {
		st.Connected = false
	})
	s.emit(model.BinEvent{Kind: model.EventConnectFailed, Detail: reason})
}

// awaitSubscription runs off the callback goroutine, paho must not be blocked there.
func (s *service) awaitSubscription(topic string, token paho_mqtt.Token) {
	if !token.WaitTimeout(s.publishTimeout()) {
		s.logger.Warn("subscription not acknowledged in time", zap.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		s.logger.Error("failed to subscribe", zap.String("topic", topic), zap.Error(err))
	}
}

func (s *service) onDisconnect(err error) {
	s.update(func(st *model.LinkState) {
		st.Connected = false
		st.BinState = model.StatusUnknown
	})
	if err != nil {
		s.logger.Warn("disconnected from mqtt broker", zap.Error(err))
	} else {
		s.logger.Info("disconnected from mqtt broker")
	}
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.emit(model.BinEvent{Kind: model.EventDisconnected, Detail: detail})
}

func (s *service) onMessage(_ paho_mqtt.Client, msg paho_mqtt.Message) {
	s.handleMessage(msg.Topic(), msg.Payload())
}

func (s *service) handleMessage(topic string, payload []byte) {
	s.logger.Debug("message received", zap.String("topic", topic), zap.ByteString("payload", payload))

	switch topic {
	case s.topics.ServoStatus():
		arrived := s.now()
		state := s.update(func(st *model.LinkState) {
			st.BinState = string(payload)
			st.LastStatusUpdate = arrived
		})
		s.emit(model.BinEvent{Kind: model.EventBinStatus, Status: state.BinState, Timestamp: arrived})
	case s.topics.DeviceStatus():
		state := s.update(func(st *model.LinkState) {
			st.DeviceStatus = strings.ToLower(string(payload))
		})
		s.emit(model.BinEvent{Kind: model.EventDeviceStatus, Status: state.DeviceStatus})
	}
}

func (s *service) IsConnected() bool {
	return s.snapshot().Connected
}

func (s *service) DeviceStatus() string {
	return s.snapshot().DeviceStatus
}

func (s *service) IsDeviceOnline() bool {
	return s.snapshot().DeviceStatus == model.StatusOnline
}

// CurrentBinState returns unknown, busy or the last reported state.
func (s *service) CurrentBinState() string {
	return s.snapshot().EffectiveStatus(s.now())
}

func (s *service) ConnectionInfo() model.ConnectionInfo {
	st := s.snapshot()
	return model.ConnectionInfo{
		Connected:        st.Connected,
		Broker:           s.cfg.Broker,
		Port:             s.cfg.Port,
		SSLEnabled:       s.cfg.UseSSL,
		CertVerification: s.cfg.VerifyCerts,
		CACertConfigured: s.caConfigured,
		DeviceStatus:     st.DeviceStatus,
		BinStatus:        st.BinState,
	}
}
