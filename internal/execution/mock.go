package execution

import (
	"log/slog"

	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// Command records one outbound command for inspection.
type Command struct {
	Kind     string // "insert", "cancel", "amend", "hedge"
	OrderID  uint64
	Side     domain.Side
	Price    quant.Price
	Lot      quant.Lots
	Lifespan domain.Lifespan
}

// MockExecution logs every command and captures it for tests and
// dry-run mode.
type MockExecution struct {
	Commands []Command
}

func NewMockExecution() *MockExecution {
	return &MockExecution{}
}

func (m *MockExecution) InsertOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots, lifespan domain.Lifespan) error {
	slog.Info("MOCK EXECUTION: Insert Order",
		slog.Uint64("id", id),
		slog.String("side", side.String()),
		slog.String("price", price.String()),
		slog.Int64("lot", int64(lot)),
	)
	m.Commands = append(m.Commands, Command{Kind: "insert", OrderID: id, Side: side, Price: price, Lot: lot, Lifespan: lifespan})
	return nil
}

func (m *MockExecution) CancelOrder(id uint64) error {
	slog.Info("MOCK EXECUTION: Cancel Order", slog.Uint64("id", id))
	m.Commands = append(m.Commands, Command{Kind: "cancel", OrderID: id})
	return nil
}

func (m *MockExecution) AmendOrder(id uint64, newLot quant.Lots) error {
	slog.Info("MOCK EXECUTION: Amend Order", slog.Uint64("id", id), slog.Int64("lot", int64(newLot)))
	m.Commands = append(m.Commands, Command{Kind: "amend", OrderID: id, Lot: newLot})
	return nil
}

func (m *MockExecution) SendHedgeOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots) error {
	slog.Info("MOCK EXECUTION: Hedge Order",
		slog.Uint64("id", id),
		slog.String("side", side.String()),
		slog.String("price", price.String()),
		slog.Int64("lot", int64(lot)),
	)
	m.Commands = append(m.Commands, Command{Kind: "hedge", OrderID: id, Side: side, Price: price, Lot: lot})
	return nil
}

// Inserts returns the captured insert commands.
func (m *MockExecution) Inserts() []Command { return m.byKind("insert") }

// Cancels returns the captured cancel commands.
func (m *MockExecution) Cancels() []Command { return m.byKind("cancel") }

// Hedges returns the captured hedge commands.
func (m *MockExecution) Hedges() []Command { return m.byKind("hedge") }

// Reset clears the captured command log.
func (m *MockExecution) Reset() { m.Commands = m.Commands[:0] }

func (m *MockExecution) byKind(kind string) []Command {
	var out []Command
	for _, c := range m.Commands {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
