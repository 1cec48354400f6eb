package domain

import (
	"maker_go/pkg/quant"
)

// Depth is the number of price levels reported per book side.
const Depth = 5

// Instrument identifies one of the two venue instruments.
type Instrument uint8

const (
	// InstrumentETF is the primary instrument, actively quoted.
	InstrumentETF Instrument = iota
	// InstrumentFuture is the correlated hedge instrument.
	InstrumentFuture
)

func (i Instrument) String() string {
	switch i {
	case InstrumentETF:
		return "ETF"
	case InstrumentFuture:
		return "FUTURE"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is one immutable five-level view of an order book side pair.
// Index 0 is the best level; a price of 0 means the level is absent.
type Snapshot struct {
	SeqNum     uint64                 `json:"seq"`
	AskPrices  [Depth]quant.Price     `json:"ask_prices"`
	AskVolumes [Depth]quant.Lots      `json:"ask_volumes"`
	BidPrices  [Depth]quant.Price     `json:"bid_prices"`
	BidVolumes [Depth]quant.Lots      `json:"bid_volumes"`
}

// BestAsk returns the best ask price, 0 if the side is empty.
func (s Snapshot) BestAsk() quant.Price { return s.AskPrices[0] }

// BestBid returns the best bid price, 0 if the side is empty.
func (s Snapshot) BestBid() quant.Price { return s.BidPrices[0] }

// Mid returns the mid price of the snapshot, 0 if either side is empty.
func (s Snapshot) Mid() quant.Price {
	if s.BestAsk() == 0 || s.BestBid() == 0 {
		return 0
	}
	return (s.BestAsk() + s.BestBid()) / 2
}

// Book retains the current and previous snapshot for one instrument.
// Snapshots are replaced wholesale on each update, never mutated.
type Book struct {
	Instrument Instrument

	cur     Snapshot
	prev    Snapshot
	hasCur  bool
	hasPrev bool
}

// NewBook creates an empty book for the given instrument.
func NewBook(inst Instrument) *Book {
	return &Book{Instrument: inst}
}

// Update applies a new snapshot. Snapshots with a sequence number at or
// below the current one are ignored. Returns true if applied.
func (b *Book) Update(snap Snapshot) bool {
	if b.hasCur && snap.SeqNum <= b.cur.SeqNum {
		return false
	}
	if b.hasCur {
		b.prev = b.cur
		b.hasPrev = true
	}
	b.cur = snap
	b.hasCur = true
	return true
}

// Current returns the latest snapshot, false if none has arrived yet.
func (b *Book) Current() (Snapshot, bool) {
	return b.cur, b.hasCur
}

// Ready reports whether both the current and previous snapshot exist
// and each has a non-zero best price on both sides. Rate-of-change
// measures (Delta) are only meaningful once Ready.
func (b *Book) Ready() bool {
	if !b.hasCur || !b.hasPrev {
		return false
	}
	return b.cur.BestAsk() != 0 && b.cur.BestBid() != 0 &&
		b.prev.BestAsk() != 0 && b.prev.BestBid() != 0
}

// Mid returns the current mid price, 0 when either side is empty.
func (b *Book) Mid() quant.Price {
	if !b.hasCur {
		return 0
	}
	return b.cur.Mid()
}

// Delta returns the mid-price change between the previous and current
// snapshot. Callers must check Ready first.
func (b *Book) Delta() quant.Price {
	return b.cur.Mid() - b.prev.Mid()
}
