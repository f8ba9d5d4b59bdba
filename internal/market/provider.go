package market

import "context"

// Provider fetches point-in-time fundamentals and price for a ticker.
//
// A (nil, nil) return means the provider has no data for the ticker.
// That is not an error: the refresher skips the ticker this cycle and
// retries on the next one. A non-nil error means the call itself failed
// (network, malformed payload) and is handled the same way.
type Provider interface {
	Fetch(ctx context.Context, ticker string) (*Quote, error)
}

// SnapshotStore is the durable cache of instrument snapshots.
// The Refresher is the only component that writes to it.
type SnapshotStore interface {
	// Get returns the snapshot for a ticker, or (nil, nil) when the
	// ticker has never been refreshed.
	Get(ctx context.Context, ticker string) (*Snapshot, error)

	// GetByTickers returns snapshots for the given tickers, keyed by
	// ticker. Tickers without a snapshot are absent from the map.
	GetByTickers(ctx context.Context, tickers []string) (map[string]*Snapshot, error)

	// Upsert creates or replaces the snapshot for snapshot.Ticker.
	Upsert(ctx context.Context, snapshot *Snapshot) error
}
