package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"maker_go/internal/event"
	"maker_go/internal/strategy"
)

// EventStore persists the sequencer's event log and the per-tick quote
// diagnostics in SQLite.
type EventStore struct {
	db *sql.DB
}

// NewEventStore opens (or creates) the store with WAL mode enabled.
func NewEventStore(dbPath string) (*EventStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY,
			type INTEGER NOT NULL,
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quotes (
			ts INTEGER NOT NULL,
			mid INTEGER NOT NULL,
			position INTEGER NOT NULL,
			bid_price INTEGER NOT NULL,
			bid_lot INTEGER NOT NULL,
			ask_price INTEGER NOT NULL,
			ask_lot INTEGER NOT NULL,
			bid_liquidity REAL NOT NULL,
			ask_liquidity REAL NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &EventStore{db: db}, nil
}

// SaveEvent appends an event to the log. The sequence number is the
// primary key, so a duplicate save fails loudly instead of silently
// forking the log.
func (s *EventStore) SaveEvent(ctx context.Context, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, ts, payload) VALUES (?, ?, ?, ?)",
		ev.GetSeq(), ev.GetType(), ev.GetTs(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// SaveQuote appends one quote target to the diagnostics log.
func (s *EventStore) SaveQuote(ctx context.Context, q strategy.QuoteTarget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quotes (ts, mid, position, bid_price, bid_lot, ask_price, ask_lot, bid_liquidity, ask_liquidity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.Ts, q.Mid, q.Position, q.BidPrice, q.BidLot, q.AskPrice, q.AskLot, q.BidLiquidity, q.AskLiquidity,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (s *EventStore) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table, "" if absent.
func (s *EventStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetLastSeq returns the highest stored sequence number, 0 when the
// log is empty.
func (s *EventStore) GetLastSeq(ctx context.Context) (uint64, error) {
	var lastSeq sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(id) FROM events").Scan(&lastSeq)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	if !lastSeq.Valid {
		return 0, nil
	}
	return uint64(lastSeq.Int64), nil
}

// LoadEvents loads events from fromSeq (inclusive) in log order,
// decoded back into their concrete types.
func (s *EventStore) LoadEvents(ctx context.Context, fromSeq uint64) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, payload FROM events WHERE id >= ? ORDER BY id ASC",
		fromSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var id int64
		var evType int
		var payload []byte
		if err := rows.Scan(&id, &evType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev, err := decodeEvent(event.Type(evType), payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", id, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return events, nil
}

func decodeEvent(t event.Type, payload []byte) (event.Event, error) {
	var ev event.Event
	switch t {
	case event.EvBookUpdate:
		ev = &event.BookUpdateEvent{}
	case event.EvOrderFilled:
		ev = &event.OrderFilledEvent{}
	case event.EvOrderStatus:
		ev = &event.OrderStatusEvent{}
	case event.EvHedgeFilled:
		ev = &event.HedgeFilledEvent{}
	case event.EvTradeTicks:
		ev = &event.TradeTicksEvent{}
	case event.EvError:
		ev = &event.ErrorEvent{}
	default:
		return nil, fmt.Errorf("unknown event type %d", t)
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Close closes the database connection.
func (s *EventStore) Close() error {
	return s.db.Close()
}
