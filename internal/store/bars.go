package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"quantsignal/internal/market"
)

// BarStore reads and writes raw OHLCV series keyed by symbol+interval. It
// caches data-source output only; computed signals are never persisted.
type BarStore interface {
	Put(ctx context.Context, symbol, interval string, bars []market.Bar, max int) error
	Get(ctx context.Context, symbol, interval string) ([]market.Bar, error)
}

// MemoryBarStore is the in-process implementation.
type MemoryBarStore struct {
	mu   sync.RWMutex
	data map[string][]market.Bar
}

func NewMemoryBarStore() *MemoryBarStore {
	return &MemoryBarStore{data: make(map[string][]market.Bar)}
}

func key(symbol, interval string) string { return symbol + "@" + interval }

// Put upserts bars by open time and trims the series to max entries. Writing
// an overlapping window updates the stored bars in place, so repeated fetches
// of the same history keep the series strictly increasing. A bar sharing an
// existing open time is an in-place update of a still-forming bar.
func (s *MemoryBarStore) Put(ctx context.Context, symbol, interval string, bars []market.Bar, max int) error {
	if symbol == "" || interval == "" {
		return errors.New("symbol and interval are required")
	}
	if len(bars) == 0 {
		return nil
	}
	if max <= 0 {
		max = 500
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(symbol, interval)
	cur := s.data[k]

	byOpen := make(map[int64]int, len(cur))
	for i, b := range cur {
		byOpen[b.OpenTime] = i
	}
	appended := false
	for _, b := range bars {
		if i, ok := byOpen[b.OpenTime]; ok {
			cur[i] = b
			continue
		}
		byOpen[b.OpenTime] = len(cur)
		cur = append(cur, b)
		appended = true
	}
	if appended {
		sort.Slice(cur, func(i, j int) bool { return cur[i].OpenTime < cur[j].OpenTime })
	}
	if len(cur) > max {
		cur = cur[len(cur)-max:]
	}
	s.data[k] = cur
	return nil
}

// Get returns a copy of the stored series.
func (s *MemoryBarStore) Get(ctx context.Context, symbol, interval string) ([]market.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.data[key(symbol, interval)]
	out := make([]market.Bar, len(cur))
	copy(out, cur)
	return out, nil
}
