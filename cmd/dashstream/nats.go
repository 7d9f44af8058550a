package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/c360/dashstream/config"
	"github.com/c360/dashstream/metric"
	"github.com/c360/dashstream/pkg/retry"
)

// connectNATS dials the broker the relay publishes to. The broker may
// come up after us, so the initial dial retries with backoff until the
// startup window runs out or shutdown is requested. Connection state
// handlers log transitions and mirror them into the core metrics so
// broker flaps show up in logs and on dashboards; reconnection after a
// successful connect is handled inside the nats client.
func connectNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger, core *metric.Metrics) (*nats.Conn, error) {
	urls := strings.Join(cfg.NATS.URLs, ",")
	opts := buildNATSOptions(cfg, logger, core)

	nc, err := retry.DoWithResult(ctx, retry.Persistent(), func() (*nats.Conn, error) {
		conn, err := nats.Connect(urls, opts...)
		if err != nil {
			logger.Warn("NATS connect attempt failed", "error", err)
		}
		return conn, err
	})
	if err != nil {
		return nil, err
	}

	core.RecordNATSStatus(true)
	logger.Info("Connected to NATS", "url", nc.ConnectedUrl())
	return nc, nil
}

// buildNATSOptions builds connection options from the nats config section
func buildNATSOptions(cfg *config.Config, logger *slog.Logger, core *metric.Metrics) []nats.Option {
	opts := []nats.Option{
		nats.Name(appName + "-" + cfg.GetPlatform()),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
		nats.ReconnectWait(cfg.NATS.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			core.RecordNATSStatus(false)
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			core.RecordNATSStatus(true)
			core.RecordNATSReconnect()
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			core.RecordNATSStatus(false)
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("NATS async error", "error", err)
		}),
	}

	// Add authentication if configured
	if cfg.NATS.Username != "" && cfg.NATS.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, nats.Token(cfg.NATS.Token))
	}

	// Add TLS if configured
	if cfg.NATS.TLS.Enabled {
		if cfg.NATS.TLS.CertFile != "" && cfg.NATS.TLS.KeyFile != "" {
			opts = append(opts, nats.ClientCert(cfg.NATS.TLS.CertFile, cfg.NATS.TLS.KeyFile))
		}
		if cfg.NATS.TLS.CAFile != "" {
			opts = append(opts, nats.RootCAs(cfg.NATS.TLS.CAFile))
		}
	}

	return opts
}
