// mobirpld -- mobility-aware RPL routing-decision and connectivity
// management daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/hckim/mobirpl/internal/config"
	rplmetrics "github.com/hckim/mobirpl/internal/metrics"
	"github.com/hckim/mobirpl/internal/rpl"
	"github.com/hckim/mobirpl/internal/server"
	appversion "github.com/hckim/mobirpl/internal/version"
)

// shutdownTimeout is the maximum time to wait for HTTP servers to drain
// active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("mobirpld starting",
		slog.String("version", appversion.Version),
		slog.String("status_addr", cfg.Status.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
		slog.Bool("is_root", cfg.RPL.IsRoot),
	)

	reg := prometheus.NewRegistry()
	collector := rplmetrics.NewCollector(reg)

	traceOut, closeTrace, err := openTraceOutput(cfg.Log.TracePath)
	if err != nil {
		logger.Error("failed to open trace output", slog.String("error", err.Error()))
		return 1
	}
	defer closeTrace()

	metrics := newDaemonMetrics(collector)

	mgr, err := newManager(cfg, collector, metrics, traceOut, logger)
	if err != nil {
		logger.Error("failed to construct routing manager", slog.String("error", err.Error()))
		return 1
	}

	if err := runServers(cfg, mgr, metrics, collector, reg, logger, *configPath, logLevel); err != nil {
		logger.Error("mobirpld exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("mobirpld stopped")
	return 0
}

// newManager constructs the routing core Manager from the resolved
// configuration. A root node is bootstrapped with a single grounded DAG
// at construction time; non-root nodes start unjoined and rely on
// reactive/proactive discovery to find a DODAG.
func newManager(cfg *config.Config, collector *rplmetrics.Collector, metrics rpl.MetricsReporter, traceOut io.Writer, logger *slog.Logger) (*rpl.Manager, error) {
	var of rpl.ObjectiveFunction
	switch cfg.RPL.ObjectiveFunction {
	case "stability":
		of = rpl.NewStability()
	default:
		of = rpl.NewRHOF()
	}

	tunables := cfg.RPL.Tunables.ToTunables(cfg.RPL.MinHopRankIncrease)
	host := newDaemonHost(logger, collector)

	mgr := rpl.NewManager(
		cfg.RPL.IsRoot,
		cfg.RPL.MinHopRankIncrease,
		cfg.RPL.DIOIntervalMin,
		cfg.RPL.DIOIntervalDoublings,
		cfg.RPL.DIORedundancy,
		host,
		rpl.WithObjectiveFunction(of),
		rpl.WithTunables(tunables),
		rpl.WithFeatures(cfg.RPL.Features.ToGates()),
		rpl.WithRand(rand.Float64),
		rpl.WithTrace(rpl.NewTraceLogger(traceOut)),
		rpl.WithMetrics(metrics),
	)

	inst := mgr.Instance()
	inst.DefaultLifetime = cfg.RPL.DefaultLifetime
	inst.LifetimeUnit = cfg.RPL.LifetimeUnit

	if cfg.RPL.IsRoot {
		dagID := mgr.CreateDAG()
		dag, ok := mgr.DAG(dagID)
		if !ok {
			return nil, fmt.Errorf("bootstrap root DAG %v: not found after creation", dagID)
		}
		dag.Grounded = true
		dag.Rank = mgr.Instance().MinHopRankIncrease
	}

	return mgr, nil
}

// runServers starts the status HTTP server, the Prometheus metrics HTTP
// server, and the routing core's run loop under one errgroup with
// signal-driven graceful shutdown.
func runServers(
	cfg *config.Config,
	mgr *rpl.Manager,
	metrics rpl.MetricsReporter,
	collector *rplmetrics.Collector,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	statusSrv := newStatusServer(cfg.Status, mgr, metrics, logger)
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	startHTTPServers(gCtx, g, cfg, statusSrv, metricsSrv, logger)
	startDaemonGoroutines(gCtx, g, logger)

	stopCore := make(chan struct{})
	g.Go(func() error {
		mgr.Run(stopCore)
		return nil
	})

	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		handleSIGHUP(gCtx, sigHUP, configPath, logLevel, logger)
		return nil
	})

	notifyReady(logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, stopCore, logger, statusSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

func startHTTPServers(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	statusSrv *http.Server,
	metricsSrv *http.Server,
	logger *slog.Logger,
) {
	lc := net.ListenConfig{}

	g.Go(func() error {
		logger.Info("status server listening", slog.String("addr", cfg.Status.Addr))
		return listenAndServe(ctx, &lc, statusSrv, cfg.Status.Addr)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(ctx, &lc, metricsSrv, cfg.Metrics.Addr)
	})
}

func startDaemonGoroutines(ctx context.Context, g *errgroup.Group, logger *slog.Logger) {
	g.Go(func() error {
		return runWatchdog(ctx, logger)
	})
}

// -------------------------------------------------------------------------
// Systemd Integration — sd_notify + watchdog
// -------------------------------------------------------------------------

func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to notify systemd readiness", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: READY")
	}
}

func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// runWatchdog sends periodic watchdog keepalives to systemd at half the
// configured watchdog interval. Exits immediately if no watchdog is
// configured.
func runWatchdog(ctx context.Context, logger *slog.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to check systemd watchdog", slog.String("error", err.Error()))
		return nil
	}
	if interval == 0 {
		logger.Debug("systemd watchdog not configured, skipping keepalive")
		return nil
	}

	tickInterval := interval / 2
	logger.Info("systemd watchdog enabled",
		slog.Duration("watchdog_sec", interval),
		slog.Duration("keepalive_interval", tickInterval),
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, wdErr := daemon.SdNotify(false, daemon.SdNotifyWatchdog); wdErr != nil {
				logger.Warn("failed to send watchdog keepalive", slog.String("error", wdErr.Error()))
			}
		}
	}
}

// -------------------------------------------------------------------------
// SIGHUP Reload — log level only; the routing core's instance parameters
// are fixed for the life of the process, unlike BFD's declarative
// per-peer session list.
// -------------------------------------------------------------------------

func handleSIGHUP(ctx context.Context, sigHUP <-chan os.Signal, configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigHUP:
			logger.Info("received SIGHUP, reloading configuration")
			reloadConfig(configPath, logLevel, logger)
		}
	}
}

func reloadConfig(configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	newCfg, err := loadConfig(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()),
		)
		return
	}

	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)

	logger.Info("configuration reloaded",
		slog.String("old_log_level", oldLevel.String()),
		slog.String("new_log_level", newLevel.String()),
	)
}

// -------------------------------------------------------------------------
// Graceful Shutdown
// -------------------------------------------------------------------------

func gracefulShutdown(ctx context.Context, stopCore chan<- struct{}, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")
	notifyStopping(logger)

	close(stopCore)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

// -------------------------------------------------------------------------
// Server Setup
// -------------------------------------------------------------------------

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newStatusServer(cfg config.StatusConfig, mgr *rpl.Manager, metrics rpl.MetricsReporter, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(mgr, metrics, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// -------------------------------------------------------------------------
// daemonHost — the rpl.Host adapter run by this binary
// -------------------------------------------------------------------------

// daemonHost implements rpl.Host by logging every emission and recording
// it in the Prometheus collector. Real DIO/DIS/DAO wire encoding and the
// 6LoWPAN/MAC transport underneath it are outside this core's scope; a
// concrete radio-facing Host belongs to whatever link-layer stack this
// daemon is deployed alongside.
type daemonHost struct {
	logger    *slog.Logger
	collector *rplmetrics.Collector
}

func newDaemonHost(logger *slog.Logger, collector *rplmetrics.Collector) *daemonHost {
	return &daemonHost{logger: logger.With(slog.String("component", "host")), collector: collector}
}

func (h *daemonHost) DISOutput(dst netip.Addr, proactive bool) {
	h.collector.IncDISSent()
	h.logger.Debug("dis_output", slog.String("dst", dst.String()), slog.Bool("proactive", proactive))
}

func (h *daemonHost) DIOOutput(instance *rpl.Instance, dst netip.Addr) {
	h.collector.IncDIOSent()
	h.logger.Debug("dio_output", slog.String("dst", dst.String()))
}

func (h *daemonHost) DAOOutput(parent *rpl.Parent, lifetime uint8) {
	h.collector.IncDAOSent()
	h.logger.Debug("dao_output", slog.String("parent", parent.Addr.String()), slog.Uint64("lifetime", uint64(lifetime)))
}

func (h *daemonHost) PurgeRoutes()      {}
func (h *daemonHost) RecalculateRanks() {}

// LinkLocalReady always reports true: this daemon has no link-local
// address acquisition phase to wait on.
func (h *daemonHost) LinkLocalReady() bool { return true }

// -------------------------------------------------------------------------
// daemonMetrics — the rpl.MetricsReporter adapter run by this binary
// -------------------------------------------------------------------------

// daemonMetrics implements rpl.MetricsReporter over the Prometheus
// collector, converting the typed Zone/MobilityState enums the routing
// core reasons about into the plain strings the collector's label sets
// expect.
type daemonMetrics struct {
	collector *rplmetrics.Collector
}

func newDaemonMetrics(collector *rplmetrics.Collector) *daemonMetrics {
	return &daemonMetrics{collector: collector}
}

func (m *daemonMetrics) RecordZoneTransition(from, to rpl.Zone) {
	m.collector.RecordZoneTransition(from.String(), to.String())
}

func (m *daemonMetrics) RecordMobilityClassification(class rpl.MobilityState, metric uint32) {
	m.collector.RecordMobilityClassification(class.String(), metric)
}

func (m *daemonMetrics) RecordPreferredParentSwitch(parent netip.Addr) {
	m.collector.RecordPreferredParentSwitch(parent)
}

func (m *daemonMetrics) IncProbes() { m.collector.IncProbes() }

func (m *daemonMetrics) SetParentCount(zone rpl.Zone, n int) {
	m.collector.SetParentCount(zone.String(), n)
}

func (m *daemonMetrics) SetDAGCount(n int) { m.collector.SetDAGCount(n) }

// -------------------------------------------------------------------------
// Config / Logging
// -------------------------------------------------------------------------

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

// openTraceOutput opens the configured trace file, if any. An empty path
// disables tracing: the returned writer is nil, which NewTraceLogger treats
// as a no-op sink.
func openTraceOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace file %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
