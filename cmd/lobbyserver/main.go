package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ienet/ienet/internal/broker"
	"github.com/ienet/ienet/internal/config"
	"github.com/ienet/ienet/internal/lobby"
	"github.com/ienet/ienet/internal/metrics"
)

const defaultConfigPath = "config/lobby.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var bind, cfgPath string
	flag.StringVar(&bind, "b", "", "listen address (addr:port)")
	flag.StringVar(&bind, "bind", "", "listen address (addr:port)")
	flag.StringVar(&cfgPath, "c", "", "path to config file")
	flag.StringVar(&cfgPath, "config", "", "path to config file")
	flag.Parse()

	// Configure slog
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	})))

	slog.Info("ienet lobby server starting")

	// Load config
	if cfgPath == "" {
		cfgPath = defaultConfigPath
		if p := os.Getenv("IENET_CONFIG"); p != "" {
			cfgPath = p
		}
	}
	cfg, err := config.LoadLobby(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if bind != "" {
		cfg.Bind = bind
	}
	slog.Info("config loaded", "bind", cfg.Bind, "default_channel", cfg.DefaultChannel)

	m := metrics.New()
	br := broker.New(cfg, m)
	srv := lobby.NewServer(cfg, br, m)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := br.Run(gctx); err != nil {
			return fmt.Errorf("broker: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("starting lobby server")
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("lobby server: %w", err)
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv := &http.Server{Addr: cfg.Metrics.Bind, Handler: mux}
		g.Go(func() error {
			go func() {
				<-gctx.Done()
				metricsSrv.Close()
			}()
			slog.Info("metrics endpoint listening", "address", cfg.Metrics.Bind)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// logLevel reads LOG_LEVEL; unset or unrecognized values mean debug.
func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
