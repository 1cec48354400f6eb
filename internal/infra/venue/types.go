package venue

import (
	"encoding/json"
	"time"

	"maker_go/internal/domain"
)

// Wire messages for the exchange WebSocket API. Prices travel as
// decimal strings and are parsed with fixed-point arithmetic; floats
// never touch the hotpath.

// feedMessage is one message on the market data channel.
type feedMessage struct {
	Type       string `json:"type"` // "order_book" or "trade_ticks"
	Instrument string `json:"instrument"`
	SeqNum     uint64 `json:"sequence"`
	TsMicros   int64  `json:"ts"`

	AskPrices  []json.Number `json:"ask_prices"`
	AskVolumes []int64       `json:"ask_volumes"`
	BidPrices  []json.Number `json:"bid_prices"`
	BidVolumes []int64       `json:"bid_volumes"`
}

// execMessage is one message on the execution channel.
type execMessage struct {
	Type     string `json:"type"` // "order_filled", "order_status", "hedge_filled", "error"
	TsMicros int64  `json:"ts"`

	OrderID   uint64      `json:"order_id"`
	Price     json.Number `json:"price,omitempty"`
	Volume    int64       `json:"volume,omitempty"`
	Fill      int64       `json:"fill_volume,omitempty"`
	Remaining int64       `json:"remaining_volume,omitempty"`
	Fees      json.Number `json:"fees,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// subscribeRequest opens the market data subscription.
type subscribeRequest struct {
	Action      string   `json:"action"` // "subscribe"
	Channels    []string `json:"channels"`
	Instruments []string `json:"instruments"`
}

// loginRequest authenticates the execution channel.
type loginRequest struct {
	Action string `json:"action"` // "login"
	Team   string `json:"team"`
	Secret string `json:"secret"`
}

// orderRequest is an outbound order command.
type orderRequest struct {
	Action   string `json:"action"` // "insert", "cancel", "amend", "hedge"
	OrderID  uint64 `json:"order_id"`
	Side     string `json:"side,omitempty"` // "BUY" or "SELL"
	Price    int64  `json:"price,omitempty"`
	Volume   int64  `json:"volume,omitempty"`
	Lifespan string `json:"lifespan,omitempty"` // "GFD" or "FAK"
}

func sideString(s domain.Side) string {
	return s.String()
}

func lifespanString(l domain.Lifespan) string {
	if l == domain.FillAndKill {
		return "FAK"
	}
	return "GFD"
}

func pingDeadline() time.Time {
	return time.Now().Add(5 * time.Second)
}
