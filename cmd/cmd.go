package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/waste-bin-controller/internal/pkg/classifier"
	"github.com/anicoll/waste-bin-controller/internal/pkg/config"
	"github.com/anicoll/waste-bin-controller/internal/pkg/database"
	"github.com/anicoll/waste-bin-controller/internal/pkg/database/migration"
	"github.com/anicoll/waste-bin-controller/internal/pkg/influx"
	"github.com/anicoll/waste-bin-controller/internal/pkg/logic"
	"github.com/anicoll/waste-bin-controller/internal/pkg/metrics"
	"github.com/anicoll/waste-bin-controller/internal/pkg/mqtt"
	"github.com/anicoll/waste-bin-controller/internal/pkg/publisher"
	"github.com/anicoll/waste-bin-controller/internal/pkg/server"
	"github.com/anicoll/waste-bin-controller/internal/pkg/stream"
	"github.com/anicoll/waste-bin-controller/pkg/hasher"
)

const shutdownTimeout = 10 * time.Second

var errCron = errors.New("cron error")

// ServeCommand loads the configuration and runs the service until interrupted.
func ServeCommand(c *cli.Context) error {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("http-addr") {
		cfg.HttpCfg.Addr = c.String("http-addr")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := publisher.New()
	link, err := mqtt.New(cfg.MqttCfg, mqtt.WithPublisher(events))
	if err != nil {
		return err
	}
	cls := classifier.New()
	if err := cls.LoadFile(cfg.ClassifierCfg.ModelPath); err != nil {
		// prediction routes answer 500 until a model is present
		logger.Error("failed to load model", zap.Error(err))
	}

	return run(ctx, *cfg, link, cls, events, logger)
}

// HashKeyCommand prints a bcrypt hash for API_KEY_HASH, generating a key when none is given.
func HashKeyCommand(c *cli.Context) error {
	key := c.Args().First()
	if key == "" {
		generated, err := hasher.GenerateKey(32)
		if err != nil {
			return err
		}
		key = generated
		fmt.Fprintf(c.App.Writer, "API_KEY=%s\n", key)
	}
	hash, err := hasher.HashKey(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "API_KEY_HASH=%s\n", hash)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

func run(ctx context.Context, cfg config.Config, link LinkService, cls Classifier, events EventBus, logger *zap.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)

	m := metrics.New()
	if err := events.Register("metrics", m); err != nil {
		return err
	}
	hub := stream.NewHub(cfg.HttpCfg.AllowedOrigins)
	if err := events.Register("websocket", hub); err != nil {
		return err
	}

	serverOpts := []server.Option{
		server.WithMetrics(m),
		server.WithStream(hub),
		server.WithAllowedOrigins(cfg.HttpCfg.AllowedOrigins),
		server.WithAPIKeyHash(cfg.HttpCfg.APIKeyHash),
		server.WithMaxUploadBytes(cfg.HttpCfg.MaxUploadBytes),
		server.WithStreamTokens(cfg.HttpCfg.StreamTokenSecret, cfg.HttpCfg.StreamTokenTTL),
	}

	if cfg.DatabaseCfg.Enabled() {
		db, err := openDatabase(ctx, cfg.DatabaseCfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := events.Register("postgres", db); err != nil {
			return err
		}
		serverOpts = append(serverOpts, server.WithEventStore(db))
		eg.Go(func() error {
			return cronDbCleanup(ctx, db, cfg.DatabaseCfg)
		})
	}

	if cfg.InfluxCfg.Enabled() {
		ifx, err := influx.Connect(ctx, cfg.InfluxCfg)
		if err != nil {
			logger.Error("influxdb unavailable, continuing without it", zap.Error(err))
		} else {
			defer ifx.Close()
			if err := events.Register("influx", ifx); err != nil {
				return err
			}
		}
	}

	gateOpts := []logic.Option{logic.WithPublisher(events)}
	if cfg.GateCfg.SerializeDispatch {
		gateOpts = append(gateOpts, logic.WithSerializedDispatch())
	}
	gate := logic.NewLogicSvc(link, gateOpts...)

	srv, err := server.New(ctx, gate, link, cls, serverOpts...)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", cfg.HttpCfg.Addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:      srv.Router(),
		WriteTimeout: cfg.HttpCfg.WriteTimeout,
		ReadTimeout:  cfg.HttpCfg.ReadTimeout,
	}

	// the publisher outlives the link so its final disconnect still reaches the sinks
	eventsCtx, stopEvents := context.WithCancel(context.WithoutCancel(ctx))
	defer stopEvents()
	eg.Go(func() error {
		return events.Run(eventsCtx)
	})

	eg.Go(func() error {
		return hub.Run(ctx)
	})

	eg.Go(func() error {
		if err := link.Connect(ctx); err != nil {
			// the API keeps serving; paho reconnects once a session was established
			logger.Error("initial mqtt connection failed", zap.Error(err))
		}
		<-ctx.Done()
		defer stopEvents()
		return link.Close()
	})

	eg.Go(func() error {
		logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return httpSrv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.Database, error) {
	if err := migration.Migrate(cfg.URL); err != nil {
		return nil, err
	}
	pool, err := database.Connect(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	return database.NewDatabase(pool), nil
}

type eventCleaner interface {
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

func cronDbCleanup(ctx context.Context, db eventCleaner, cfg config.DatabaseConfig) error {
	cleanup := func() error {
		removed, err := db.Cleanup(ctx, cfg.RetentionDays)
		if err != nil {
			return err
		}
		zap.L().Info("cleaned up bin events", zap.Int64("removed", removed), zap.Int("retention_days", cfg.RetentionDays))
		return nil
	}
	if err := cleanup(); err != nil {
		return fmt.Errorf("%w: %w", errCron, err)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.CleanupCron, func() {
		if err := cleanup(); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("%w: %w", errCron, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
