package execution

import (
	"maker_go/internal/domain"
	"maker_go/pkg/quant"
)

// Execution is the outbound command port to the venue session layer.
// All commands are fire-and-forget: implementations must enqueue and
// return immediately, never block the sequencer goroutine. Eventual
// confirmations arrive later as separate inbound events.
type Execution interface {
	// InsertOrder submits a new resting order.
	InsertOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots, lifespan domain.Lifespan) error

	// CancelOrder requests cancellation. Advisory: the order must be
	// treated as fillable until a status update reports zero remaining.
	CancelOrder(id uint64) error

	// AmendOrder reduces the open quantity of a resting order.
	AmendOrder(id uint64, newLot quant.Lots) error

	// SendHedgeOrder submits an immediate-or-cancel order in the hedge
	// instrument.
	SendHedgeOrder(id uint64, side domain.Side, price quant.Price, lot quant.Lots) error
}
