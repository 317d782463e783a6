package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/assistant/hud"
	"github.com/tailored-agentic-units/assistant/kernel"
	"github.com/tailored-agentic-units/assistant/metrics"
	"github.com/tailored-agentic-units/assistant/observability"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the assistant and read commands from the terminal",
	Args:  cobra.NoArgs,
	RunE:  runAssistant,
}

func init() {
	f := runCmd.Flags()
	f.Bool("safe-mode", true, "Only accept commands containing an allow-listed phrase")
	f.String("log-level", "info", "Minimum log level (debug, info, warn, error)")
	f.BoolP("verbose", "v", false, "Enable debug logging (same as --log-level debug)")
	f.Bool("hud", false, "Redraw the status panel after every response")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	f.Bool("journald", false, "Also send logs to the systemd journal")
	f.String("log-file", "", "Append JSON logs to this file")
	f.StringSlice("observers", []string{"slog", "console"}, "Event observers to attach (slog, console, metrics, noop)")
}

func runAssistant(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("safe-mode") {
		cfg.Command.SafeMode, _ = flags.GetBool("safe-mode")
	}
	levelName, _ := flags.GetString("log-level")
	verbose, _ := flags.GetBool("verbose")
	showHUD, _ := flags.GetBool("hud")
	metricsAddr, _ := flags.GetString("metrics-addr")
	journald, _ := flags.GetBool("journald")
	logFile, _ := flags.GetString("log-file")
	observerNames, _ := flags.GetStringSlice("observers")

	level, err := logLevel(levelName, verbose)
	if err != nil {
		return err
	}
	logger, closeLog, err := observability.NewLogger(observability.LoggerConfig{
		Level:    level,
		JSONFile: logFile,
		Journald: journald,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	term, err := newTerminal()
	if err != nil {
		return err
	}
	defer term.Close()

	out := term.Stdout()
	con := newConsole(out)
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))
	observability.RegisterObserver("console", con)

	var (
		reg   *prometheus.Registry
		meter *metrics.Metrics
	)
	if metricsAddr != "" {
		reg = prometheus.NewRegistry()
		meter = metrics.MustNew(reg)
		observability.RegisterObserver("metrics", meter)
		observerNames = append(observerNames, "metrics")
	}

	observer, err := observability.Resolve(observerNames...)
	if err != nil {
		return fmt.Errorf("%w (registered: %s)", err, strings.Join(observability.Names(), ", "))
	}

	k, err := kernel.New(cfg,
		kernel.WithLogger(logger),
		kernel.WithObserver(observer),
		kernel.WithInput(term),
	)
	if err != nil {
		return fmt.Errorf("failed to create kernel: %w", err)
	}

	if meter != nil {
		if err := meter.Track(k); err != nil {
			return fmt.Errorf("failed to register snapshot metrics: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return k.Run(gctx)
	})

	if meter != nil {
		g.Go(func() error {
			return serveMetrics(gctx, k.Done(), metricsAddr, reg, logger)
		})
	}

	if showHUD {
		theme, err := hud.LookupTheme(cfg.Presentation.Theme)
		if err != nil {
			logger.Warn("unknown theme, using jarvis", slog.String("theme", cfg.Presentation.Theme))
			theme, _ = hud.LookupTheme("jarvis")
		}
		g.Go(func() error {
			drawHUD(gctx, k, con.refresh, out, theme)
			return nil
		})
	}

	return g.Wait()
}

// logLevel resolves --log-level; --verbose wins.
func logLevel(name string, verbose bool) (slog.Level, error) {
	if verbose {
		return slog.LevelDebug, nil
	}
	return observability.ParseLevel(name)
}

func drawHUD(ctx context.Context, k *kernel.Kernel, refresh <-chan struct{}, out io.Writer, theme hud.Theme) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-k.Done():
			return
		case <-refresh:
			fmt.Fprintln(out, hud.Render(k.Snapshot(), theme))
		}
	}
}

func serveMetrics(ctx context.Context, done <-chan struct{}, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
