package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gobinance "github.com/adshao/go-binance/v2"

	"quantsignal/internal/logger"
	"quantsignal/internal/market"
)

const maxHistoryLimit = 1500

// Source implements market.Source backed by the Binance spot REST API.
type Source struct {
	cfg    Config
	client *gobinance.Client
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := gobinance.NewClient(final.APIKey, final.APISecret)
	if final.BaseURL != "" {
		client.BaseURL = final.BaseURL
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}, nil
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Bar, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	logger.Debugf("[binance] klines %s %s limit=%d", symbol, interval, limit)
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}
	out := make([]market.Bar, 0, len(klines))
	for _, k := range klines {
		out = append(out, market.Bar{
			OpenTime:  k.OpenTime,
			CloseTime: k.CloseTime,
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	return market.CleanBars(out), nil
}

func (s *Source) Close() error { return nil }

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
