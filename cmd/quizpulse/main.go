package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/constant"
	"github.com/quizpulse/quizpulse/engine"
	"github.com/quizpulse/quizpulse/network"
	"github.com/quizpulse/quizpulse/status"
)

var cli struct {
	Config    string `help:"Path to TOML config file." type:"existingfile" optional:""`
	Listen    string `help:"Listen address override (host:port)."`
	LogLevel  string `help:"Log level: trace, debug, info, warn, error." name:"log-level"`
	LargeSkew bool   `help:"Enable the large-skew calibration intervals."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("quizpulse"),
		kong.Description("Real-time coordination server for the synchronized multi-room quiz."),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cli.Listen != "" {
		cfg.ListenAddr = cli.Listen
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LargeSkew {
		cfg.LargeSkew = true
	}

	log := newLogger(cfg.LogLevel)
	log.Info().
		Str("listen", cfg.ListenAddr).
		Int("cycle_secs", cfg.CycleSecs).
		Int("lobby_secs", cfg.LobbySecs).
		Int("rooms", cfg.NumRooms).
		Bool("large_skew", cfg.LargeSkew).
		Msg("quizpulse starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	met := status.New(reg)

	hub := network.NewHub(log, met)
	core := engine.NewCore(cfg, clockz.RealClock, hub, log, met)
	hub.BindMembers(core.Rooms())
	svc := network.NewService(cfg, core, hub, reg, log, met)

	core.Start()
	svc.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-svc.Err():
		log.Error().Err(err).Msg("server error, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), constant.ShutdownTimeout)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown incomplete")
	}
	core.Stop()
	log.Info().Msg("stopped")
}

// newLogger builds the process logger: human console on a TTY, JSON
// otherwise
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var w zerolog.LevelWriter
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		w = zerolog.MultiLevelWriter(os.Stderr)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
