// Package daemon implements the agent process lifecycle: it owns the
// single instances of the event bus, camera link, and payment adapter,
// wires them together, and tears them down in order. There are no
// package-level singletons; everything is constructed here and passed
// down explicitly.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"icc.tech/parkgate/internal/config"
	"icc.tech/parkgate/internal/control"
	"icc.tech/parkgate/internal/eventbus"
	"icc.tech/parkgate/internal/httpx"
	"icc.tech/parkgate/internal/log"
	"icc.tech/parkgate/internal/lpr"
	"icc.tech/parkgate/internal/metrics"
	"icc.tech/parkgate/internal/payment"
	"icc.tech/parkgate/internal/scheduler"
)

const version = "0.1.0"

// Daemon manages the parkgate agent process.
type Daemon struct {
	cfg        *config.Config
	configPath string

	bus           *eventbus.Bus
	sched         *scheduler.Scheduler
	link          *lpr.Link
	client        *httpx.Client
	adapter       *payment.Adapter
	metricsServer *metrics.Server

	sigChan chan os.Signal
}

// New loads configuration and initializes logging. Nothing is listening
// or connecting yet; that happens in Start.
func New(configPath string) (*Daemon, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := log.Init(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return &Daemon{
		cfg:        cfg,
		configPath: configPath,
		sigChan:    make(chan os.Signal, 1),
	}, nil
}

// Start builds and starts every component. The event bus is fully
// registered and sealed before any producer runs.
func (d *Daemon) Start() error {
	lg := log.GetLogger()
	lg.WithFields(map[string]interface{}{
		"version": version,
		"config":  d.configPath,
	}).Info("starting parkgate agent")

	// 1. Metrics endpoint
	if d.cfg.Metrics.Enabled {
		d.metricsServer = metrics.NewServer(d.cfg.Metrics.Listen, d.cfg.Metrics.Path)
		if err := d.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// 2. Event bus and its consumers
	d.bus = eventbus.New()
	ctrl := control.NewLogController()
	if err := control.RegisterHandlers(d.bus, ctrl); err != nil {
		return fmt.Errorf("failed to register control handlers: %w", err)
	}

	// 3. Payment gateway (registers its request-event handlers, then the
	// registry freezes)
	d.client = httpx.NewClient(0)
	var bindErr error
	d.adapter = payment.New(d.cfg.Payment, d.bus, d.client, func(err error) {
		bindErr = err
	})
	if bindErr != nil {
		return fmt.Errorf("failed to bind payment callback server: %w", bindErr)
	}
	if err := d.adapter.RegisterBusHandlers(d.bus); err != nil {
		return fmt.Errorf("failed to register payment handlers: %w", err)
	}
	d.bus.Seal()
	d.adapter.Start()

	// 4. Camera links
	d.sched = scheduler.New()
	d.link = lpr.New(d.cfg.Cameras, d.bus, d.sched)
	d.link.Start()

	lg.Info("parkgate agent started")
	return nil
}

// Run starts the daemon and blocks until SIGINT/SIGTERM.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}

	signal.Notify(d.sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-d.sigChan
	log.GetLogger().WithField("signal", sig.String()).Info("shutdown signal received")

	d.Stop()
	return nil
}

// Stop tears components down in dependency order: supervisors and
// producers first, then the transports, then the metrics endpoint.
// Every component joins its goroutines before Stop returns.
func (d *Daemon) Stop() {
	lg := log.GetLogger()
	signal.Stop(d.sigChan)

	if d.link != nil {
		d.link.Stop()
	}
	if d.sched != nil {
		d.sched.StopAll()
	}
	if d.adapter != nil {
		d.adapter.Stop()
	}
	if d.client != nil {
		d.client.Shutdown()
	}
	if d.metricsServer != nil {
		if err := d.metricsServer.Stop(context.Background()); err != nil {
			lg.WithError(err).Warn("metrics server stop failed")
		}
	}

	lg.Info("parkgate agent stopped")
}
