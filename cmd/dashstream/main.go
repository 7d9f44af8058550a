// Package main implements the entry point for the DashStream bridge.
// DashStream consumes a real-time dashboard feed over one of three
// transports and republishes the normalized updates onto a NATS bus for
// the rest of the platform.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/c360/dashstream/config"
	"github.com/c360/dashstream/health"
	"github.com/c360/dashstream/metric"
	"github.com/c360/dashstream/relay"
	"github.com/c360/dashstream/stream"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "dashstream"
)

// healthPollInterval is how often client and relay health are sampled
// into the monitor backing /health and /readyz.
const healthPollInterval = 5 * time.Second

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// Parse and validate CLI flags
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	if cliCfg.Validate {
		return validateConfiguration(cliCfg)
	}

	// Load and validate configuration
	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	metricsRegistry := metric.NewMetricsRegistry()
	healthMonitor := health.NewMonitor()
	healthMonitor.SetUpdateHook(func(name string, status health.Status) {
		metricsRegistry.CoreMetrics().RecordHealthStatus(name, status.IsHealthy())
	})

	client, err := stream.New(cfg.Stream,
		stream.WithLogger(logger),
		stream.WithMetrics(metricsRegistry),
		stream.WithName(cfg.GetPlatform()))
	if err != nil {
		return fmt.Errorf("create stream client: %w", err)
	}

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	// Bring up the NATS bridge only when configured
	nc, rly, err := setupRelay(signalCtx, cfg, logger, metricsRegistry, client)
	if err != nil {
		return err
	}
	if nc != nil {
		defer nc.Close()
	}
	if rly != nil {
		defer func() { _ = rly.Stop(5 * time.Second) }()
	}

	slog.Info("Connecting to data feed",
		"endpoint", cfg.Stream.Endpoint,
		"transport", cfg.Stream.Source)
	if err := client.Connect(signalCtx); err != nil {
		return fmt.Errorf("connect stream client: %w", err)
	}

	return serveAndWait(signalCtx, cliCfg, cfg, logger, client, rly, metricsRegistry, healthMonitor)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting DashStream (real-time dashboard bridge)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// validateConfiguration runs the --validate mode: schema check, then
// full load and semantic validation. Results print to stdout so the
// mode is usable from CI.
func validateConfiguration(cliCfg *CLIConfig) error {
	issues, err := config.CheckSchemaFile(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	if len(issues) > 0 {
		fmt.Printf("Configuration %s failed schema validation:\n", cliCfg.ConfigPath)
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
		return fmt.Errorf("configuration has %d schema violation(s)", len(issues))
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	fmt.Printf("Configuration %s is valid\n", cliCfg.ConfigPath)
	fmt.Printf("  platform:  %s/%s (%s)\n", cfg.GetOrg(), cfg.GetPlatform(), cfg.Platform.Environment)
	fmt.Printf("  stream:    %s via %s\n", cfg.Stream.Endpoint, cfg.Stream.Source)
	if cfg.NATS.Enabled {
		fmt.Printf("  relay:     enabled, subject prefix %s\n", cfg.Relay.Subject)
	} else {
		fmt.Printf("  relay:     disabled\n")
	}
	return nil
}

// initializeConfiguration loads and validates configuration
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	cfg, err := loader.LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg, cliCfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyCLIOverrides folds port flags into the telemetry section. The
// flag default -1 leaves the config alone and 0 disables the server.
func applyCLIOverrides(cfg *config.Config, cliCfg *CLIConfig) {
	switch {
	case cliCfg.MetricsPort == 0:
		cfg.Telemetry.MetricsEnabled = false
	case cliCfg.MetricsPort > 0:
		cfg.Telemetry.MetricsEnabled = true
		cfg.Telemetry.MetricsPort = cliCfg.MetricsPort
	}

	switch {
	case cliCfg.HealthPort == 0:
		cfg.Telemetry.HealthEnabled = false
	case cliCfg.HealthPort > 0:
		cfg.Telemetry.HealthEnabled = true
		cfg.Telemetry.HealthPort = cliCfg.HealthPort
	}
}

// setupRelay connects to NATS and starts the relay when the nats
// section is enabled. Both returns are nil in stream-only deployments.
func setupRelay(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	metricsRegistry *metric.MetricsRegistry,
	client *stream.Client,
) (*nats.Conn, *relay.Relay, error) {
	if !cfg.NATS.Enabled {
		slog.Info("NATS disabled, running without relay")
		return nil, nil, nil
	}

	nc, err := connectNATS(ctx, cfg, logger, metricsRegistry.CoreMetrics())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	rly, err := relay.New(appName+"-relay", nc, cfg.Relay, metricsRegistry, relay.WithLogger(logger))
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create relay: %w", err)
	}

	rly.Attach(client)
	if err := rly.Start(ctx); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("start relay: %w", err)
	}

	slog.Info("Relay started", "subject", cfg.Relay.Subject, "queue_size", cfg.Relay.QueueSize)
	return nc, rly, nil
}

// serveAndWait runs the telemetry servers and the health poll loop
// until a shutdown signal or a server failure, then tears everything
// down in order: stream client, relay drain, servers.
func serveAndWait(
	ctx context.Context,
	cliCfg *CLIConfig,
	cfg *config.Config,
	logger *slog.Logger,
	client *stream.Client,
	rly *relay.Relay,
	metricsRegistry *metric.MetricsRegistry,
	healthMonitor *health.Monitor,
) error {
	g, gCtx := errgroup.WithContext(ctx)

	var metricsServer *metric.Server
	if cfg.Telemetry.MetricsEnabled {
		metricsServer = metric.NewServer(cfg.Telemetry.MetricsPort, cfg.Telemetry.MetricsPath, metricsRegistry)
		g.Go(metricsServer.Start)
		slog.Info("Metrics server listening", "address", metricsServer.Address())
	}

	var healthServer *health.Server
	if cfg.Telemetry.HealthEnabled {
		healthServer = health.NewServer(cfg.Telemetry.HealthPort, appName, healthMonitor, logger)
		g.Go(healthServer.Start)
		slog.Info("Health server listening", "port", cfg.Telemetry.HealthPort)
	}

	g.Go(func() error {
		pollHealth(gCtx, client, rly, healthMonitor)
		return nil
	})

	core := metricsRegistry.CoreMetrics()
	core.RecordServiceStatus(appName, metric.ServiceRunning)
	slog.Info("DashStream started successfully")

	<-gCtx.Done()
	core.RecordServiceStatus(appName, metric.ServiceStopping)
	slog.Info("Received shutdown signal")

	shutdownAll(cliCfg.ShutdownTimeout, client, rly, metricsServer, healthServer)
	core.RecordServiceStatus(appName, metric.ServiceStopped)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("DashStream shutdown complete")
	return nil
}

// shutdownAll stops components in dependency order: the client stops
// producing, the relay drains what is queued, then the servers close.
func shutdownAll(
	timeout time.Duration,
	client *stream.Client,
	rly *relay.Relay,
	metricsServer *metric.Server,
	healthServer *health.Server,
) {
	client.Disconnect()

	if rly != nil {
		if err := rly.Stop(timeout); err != nil {
			slog.Error("Relay shutdown failed", "error", err)
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Metrics server shutdown failed", "error", err)
		}
	}
	if healthServer != nil {
		if err := healthServer.Stop(); err != nil {
			slog.Error("Health server shutdown failed", "error", err)
		}
	}
}

// pollHealth samples client and relay health into the monitor until the
// context ends.
func pollHealth(ctx context.Context, client *stream.Client, rly *relay.Relay, monitor *health.Monitor) {
	update := func() {
		monitor.Update("stream", streamHealth(client))
		if rly != nil {
			monitor.Update("relay", rly.Health())
		}
	}
	update()

	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

// streamHealth maps connection statistics onto a health status. A
// client waiting out a reconnect delay is degraded, not unhealthy,
// because delivery resumes on its own.
func streamHealth(client *stream.Client) health.Status {
	stats := client.Stats()
	metrics := &health.Metrics{
		Uptime:           stats.Uptime,
		ErrorCount:       int(stats.Errors),
		RecordsDelivered: stats.MessagesReceived,
		LastActivity:     stats.LastUpdate,
	}

	var status health.Status
	switch stats.Status {
	case stream.StatusConnected:
		status = health.NewHealthy("stream", "receiving updates")
	case stream.StatusConnecting:
		status = health.NewDegraded("stream", "connecting to feed")
	case stream.StatusDisconnected:
		if stats.ReconnectAttempts > 0 {
			status = health.NewDegraded("stream",
				fmt.Sprintf("reconnecting, attempt %d", stats.ReconnectAttempts))
		} else {
			status = health.NewUnhealthy("stream", "not connected")
		}
	default:
		status = health.NewUnhealthy("stream", "feed connection failed")
	}

	return status.WithMetrics(metrics)
}
