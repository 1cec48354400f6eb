package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"maker_go/internal/app"
	"maker_go/internal/engine"
	"maker_go/internal/event"
	"maker_go/internal/execution"
	"maker_go/internal/infra"
	"maker_go/internal/infra/venue"
	"maker_go/internal/storage"
	"maker_go/internal/strategy"

	_ "net/http/pprof" // for profiling
)

func main() {
	// Pprof server, localhost only.
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	infra.PrintBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prometheus endpoint.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		slog.Info("metrics server started", slog.String("addr", cfg.Monitoring.ListenAddr))
		if err := http.ListenAndServe(cfg.Monitoring.ListenAddr, mux); err != nil {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()

	store := bootstrap.EventStore

	// Quote diagnostics run on the sequencer goroutine, so the store's
	// single-writer invariant holds.
	onQuote := func(q strategy.QuoteTarget) {
		if err := store.SaveQuote(context.Background(), q); err != nil {
			slog.Warn("quote log write failed", slog.Any("error", err))
		}
	}

	trader := strategy.NewTrader(cfg.Params(), nil, onQuote)
	seq := engine.NewSequencer(1024, store, trader)

	// All workers share one publisher: sequence numbering and inbox
	// delivery are atomic, so events cannot arrive out of order. The
	// execution backend publishes into the sequencer inbox, so it is
	// bound after the sequencer exists.
	pub := event.NewPublisher(seq.Inbox())
	switch cfg.Trading.Mode {
	case "live":
		limiter := infra.NewOrderLimiter(cfg.Venue.OrderRateBurst, cfg.Venue.OrderRatePerSec)
		gateway := venue.NewGateway(cfg.Venue.WSURL, cfg.Venue.Team, cfg.Venue.Secret, limiter, pub)
		gateway.Connect(ctx)
		defer gateway.Disconnect()
		trader.BindExecution(gateway)

		feed := venue.NewFeedWorker(cfg.Venue.WSURL, cfg.Venue.ETFSymbol, cfg.Venue.FutureSymbol, pub)
		feed.Connect(ctx)
		defer feed.Disconnect()
		slog.Info("venue gateway and feed started")

	default: // sim
		trader.BindExecution(execution.NewSimExecution(ctx, pub))

		feed := venue.NewFeedWorker(cfg.Venue.WSURL, cfg.Venue.ETFSymbol, cfg.Venue.FutureSymbol, pub)
		if cfg.Venue.WSURL != "" {
			feed.Connect(ctx)
			defer feed.Disconnect()
		}
		slog.Info("simulated execution started")
	}

	// Periodic checkpoints for post-mortem without a full replay; runs
	// on the sequencer goroutine between events.
	seq.SetCheckpoint(time.Minute, func(nextSeq uint64, dump strategy.StateDump) {
		if err := bootstrap.Checkpoints.Save(storage.NewCheckpoint(nextSeq, dump)); err != nil {
			slog.Warn("checkpoint save failed", slog.Any("error", err))
		}
		bootstrap.Checkpoints.Cleanup(5)
	})

	seqDone := make(chan struct{})
	go func() {
		seq.Run(ctx)
		close(seqDone)
	}()
	slog.Info("sequencer started")

	slog.Info("maker-go operational, press Ctrl+C to exit")
	<-ctx.Done()
	<-seqDone

	slog.Info("shutting down",
		slog.Int64("position", int64(trader.Position())),
		slog.Int64("hedge_position", int64(trader.HedgePosition())),
		slog.String("pnl", trader.PnL().Net().String()))
}
