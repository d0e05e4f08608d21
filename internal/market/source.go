package market

import "context"

// Source is a provider of historical OHLCV bars.
type Source interface {
	// FetchHistory returns up to limit bars for symbol+interval in ascending
	// time order.
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Bar, error)
	// Close releases underlying resources.
	Close() error
}
