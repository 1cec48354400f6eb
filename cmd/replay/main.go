package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"maker_go/backtest"
	"maker_go/internal/engine"
	"maker_go/internal/execution"
	"maker_go/internal/infra"
	"maker_go/internal/strategy"
)

// Replays a recorded event log through the live decision path and
// prints the resulting trader state. The execution backend is a
// recorder, so replays never emit venue commands.
func main() {
	dbPath := flag.String("db", "", "path to events.db (default: _workspace/data/sim/events.db)")
	verbose := flag.Bool("v", false, "print every order command the trader issued")
	flag.Parse()

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	path := *dbPath
	if path == "" {
		path = filepath.Join(infra.GetWorkspaceDir(), "data", "sim", "events.db")
	}

	replayer, err := backtest.NewReplayer(path)
	if err != nil {
		slog.Error("failed to open event log", slog.String("path", path), slog.Any("error", err))
		os.Exit(1)
	}
	defer replayer.Close()

	mock := execution.NewMockExecution()
	trader := strategy.NewTrader(cfg.Params(), mock, nil)
	seq := engine.NewSequencer(1, nil, trader)

	if err := replayer.RunReplay(context.Background(), seq); err != nil {
		slog.Error("replay failed", slog.Any("error", err))
		os.Exit(1)
	}

	if *verbose {
		for _, cmd := range mock.Commands {
			fmt.Printf("%-8s id=%d side=%v price=%d lot=%d\n",
				cmd.Kind, cmd.OrderID, cmd.Side, cmd.Price, cmd.Lot)
		}
	}

	bids, asks, hedges := trader.RestingCounts()
	fmt.Println("replay summary")
	fmt.Printf("  events processed: %d\n", seq.NextSeq()-1)
	fmt.Printf("  commands issued:  %d\n", len(mock.Commands))
	fmt.Printf("  position:         %d\n", trader.Position())
	fmt.Printf("  hedge position:   %d\n", trader.HedgePosition())
	fmt.Printf("  resting orders:   %d bids / %d asks / %d hedges\n", bids, asks, hedges)
	fmt.Printf("  state:            %v\n", trader.State())
	fmt.Printf("  pnl (cash):       %s\n", trader.PnL().Cash().String())
	fmt.Printf("  fees:             %s\n", trader.PnL().Fees().String())
	fmt.Printf("  pnl (net):        %s\n", trader.PnL().Net().String())
}
