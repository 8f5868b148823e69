package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/anicoll/waste-bin-controller/internal/pkg/config"
)

var ErrInvalidCACert = errors.New("invalid CA certificate")

func newTLSConfig(cfg config.MqttConfig, logger *zap.Logger) (*tls.Config, bool, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	pem, err := caCertificate(cfg, logger)
	if err != nil {
		return nil, false, err
	}
	if pem != nil {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, false, ErrInvalidCACert
		}
		tlsCfg.RootCAs = pool
	} else {
		logger.Warn("no CA certificate provided, using system roots")
	}

	if !cfg.VerifyCerts {
		tlsCfg.InsecureSkipVerify = true
		logger.Warn("certificate verification disabled (not recommended for production)")
	}
	return tlsCfg, pem != nil, nil
}

// caCertificate prefers inline PEM content over a file path. A missing file is not an error.
func caCertificate(cfg config.MqttConfig, logger *zap.Logger) ([]byte, error) {
	if cfg.CACert != "" {
		logger.Info("loaded CA certificate from environment")
		return []byte(cfg.CACert), nil
	}
	if cfg.CACertPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(cfg.CACertPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("CA certificate file not found", zap.String("path", cfg.CACertPath))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCACert, err)
	}
	logger.Info("loaded CA certificate", zap.String("path", cfg.CACertPath))
	return data, nil
}
