package mqtt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/config"
	"github.com/anicoll/waste-bin-controller/internal/pkg/model"
)

const (
	subscribeQoS      byte = 0
	commandQoS        byte = 0
	disconnectQuiesce uint = 250 // milliseconds

	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
)

var (
	ErrConnect        = errors.New("unable to connect to mqtt broker")
	ErrConnectTimeout = errors.New("unable to connect in time")
	ErrPublishTimeout = errors.New("publish not acknowledged in time")
)

// brokerClient is the part of paho_mqtt.Client the link relies on.
type brokerClient interface {
	Connect() paho_mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token
	Subscribe(topic string, qos byte, callback paho_mqtt.MessageHandler) paho_mqtt.Token
}

type publisher interface {
	Publish(event model.BinEvent)
}

type service struct {
	cfg          config.MqttConfig
	client       brokerClient
	logger       *zap.Logger
	events       publisher
	now          func() time.Time
	topics       topics
	caConfigured bool

	newClient func(*paho_mqtt.ClientOptions) brokerClient

	// mu serializes the callbacks; readers only load state.
	mu    sync.Mutex
	state atomic.Pointer[model.LinkState]
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

func WithPublisher(p publisher) Option {
	return func(s *service) {
		s.events = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

func withClientFactory(f func(*paho_mqtt.ClientOptions) brokerClient) Option {
	return func(s *service) {
		s.newClient = f
	}
}

// New prepares the broker client. It does not connect.
func New(cfg config.MqttConfig, opts ...Option) (*service, error) {
	s := &service{
		cfg:    cfg,
		logger: zap.L(), // returns the global logger.
		now:    time.Now,
		topics: topics{base: cfg.BaseTopic},
		newClient: func(o *paho_mqtt.ClientOptions) brokerClient {
			return paho_mqtt.NewClient(o)
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.state.Store(&model.LinkState{
		DeviceStatus: model.StatusUnknown,
		BinState:     model.StatusUnknown,
	})

	clientOpts, err := s.clientOptions()
	if err != nil {
		return nil, err
	}
	s.client = s.newClient(clientOpts)
	return s, nil
}

func (s *service) clientOptions() (*paho_mqtt.ClientOptions, error) {
	opts := paho_mqtt.NewClientOptions()

	scheme := "tcp"
	if s.cfg.UseSSL {
		scheme = "ssl"
		tlsCfg, caConfigured, err := newTLSConfig(s.cfg, s.logger)
		if err != nil {
			return nil, err
		}
		s.caConfigured = caConfigured
		opts.SetTLSConfig(tlsCfg)
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, s.cfg.Broker, s.cfg.Port))
	opts.SetClientID(clientID(s.cfg.ClientID))
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(s.cfg.AutoReconnect)
	if s.cfg.KeepAlive > 0 {
		opts.SetKeepAlive(s.cfg.KeepAlive)
	}
	opts.SetConnectTimeout(s.connectTimeout())

	opts.SetOnConnectHandler(func(_ paho_mqtt.Client) {
		s.onConnect(packets.Accepted)
	})
	opts.SetConnectionLostHandler(func(_ paho_mqtt.Client, err error) {
		s.onDisconnect(err)
	})
	opts.SetReconnectingHandler(func(_ paho_mqtt.Client, _ *paho_mqtt.ClientOptions) {
		s.logger.Info("reconnecting to mqtt broker", zap.String("broker", s.cfg.Broker))
	})
	opts.SetDefaultPublishHandler(s.onMessage)
	return opts, nil
}

func clientID(configured string) string {
	if configured != "" {
		return configured
	}
	host, err := os.Hostname()
	if err != nil {
		host = "local"
	}
	return slug.Make("waste-bin-" + host)
}

func (s *service) connectTimeout() time.Duration {
	if s.cfg.ConnectTimeout > 0 {
		return s.cfg.ConnectTimeout
	}
	return defaultConnectTimeout
}

func (s *service) publishTimeout() time.Duration {
	if s.cfg.PublishTimeout > 0 {
		return s.cfg.PublishTimeout
	}
	return defaultPublishTimeout
}

// Connect makes a single connection attempt. A failure leaves the link usable and disconnected.
func (s *service) Connect(ctx context.Context) error {
	token := s.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrConnect, ctx.Err())
	case <-time.After(s.connectTimeout()):
		s.connectFailed(ErrConnectTimeout.Error())
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		s.onConnect(returnCode(err))
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	return nil
}

// returnCode recovers the CONNACK code paho folded into the token error.
func returnCode(err error) byte {
	for code, known := range packets.ConnErrors {
		if known != nil && errors.Is(err, known) {
			return code
		}
	}
	return packets.ErrNetworkError
}

func (s *service) Close() error {
	if s.client != nil {
		s.client.Disconnect(disconnectQuiesce)
	}
	s.onDisconnect(nil)
	return nil
}
