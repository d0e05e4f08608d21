package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"quantsignal/internal/logger"
	"quantsignal/internal/market"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Config describes the parameters for the Yahoo Finance source.
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	// SymbolMap rewrites internal symbols to Yahoo tickers, e.g. SPX -> ^GSPC.
	SymbolMap map[string]string
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = defaultBaseURL
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	if out.SymbolMap == nil {
		out.SymbolMap = map[string]string{
			"SPX":    "^GSPC",
			"SPX500": "^GSPC",
			"SP500":  "^GSPC",
		}
	}
	return out
}

// Source implements market.Source using the public Yahoo Finance chart API.
type Source struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	return &Source{
		cfg:    final,
		client: &http.Client{Timeout: final.HTTPTimeout},
	}, nil
}

func (s *Source) yahooSymbol(symbol string) string {
	if mapped, ok := s.cfg.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// chartResponse is the shape of the Yahoo chart API reply. Prices can be
// null inside the arrays, hence pointer elements; a bar with any null price
// field is dropped rather than read as zero.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Bar, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if limit <= 0 {
		limit = 100
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		s.cfg.BaseURL, url.PathEscape(s.yahooSymbol(symbol)), yahooInterval(interval), rangeFor(interval, limit))
	logger.Debugf("[yahoo] chart %s", u)
	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data for %s %s", symbol, interval)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: empty quote block for %s", symbol)
	}
	quote := result.Indicators.Quote[0]
	stepMs := intervalMillis(interval)
	bars := make([]market.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		volume := 0.0
		if v := at(quote.Volume, i); v != nil {
			volume = *v
		}
		openMs := ts * 1000
		bars = append(bars, market.Bar{
			OpenTime:  openMs,
			CloseTime: openMs + stepMs - 1,
			Open:      *o,
			High:      *h,
			Low:       *l,
			Close:     *c,
			Volume:    volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].OpenTime < bars[j].OpenTime })
	bars = market.CleanBars(bars)
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func (s *Source) Close() error { return nil }

func (s *Source) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func yahooInterval(interval string) string {
	if interval == "1h" {
		return "60m"
	}
	return interval
}

func intervalMillis(interval string) int64 {
	switch interval {
	case "1m":
		return 60_000
	case "5m":
		return 5 * 60_000
	case "15m":
		return 15 * 60_000
	case "30m":
		return 30 * 60_000
	case "1h":
		return 60 * 60_000
	case "1d":
		return 24 * 60 * 60_000
	case "1wk":
		return 7 * 24 * 60 * 60_000
	default:
		return 60_000
	}
}

// rangeFor picks the smallest Yahoo range that still covers limit bars.
// Intraday intervals cap out well below the API maximums on purpose, the
// chart endpoint rejects long intraday ranges.
func rangeFor(interval string, limit int) string {
	switch interval {
	case "1m":
		return "1d"
	case "5m", "15m", "30m", "1h":
		span := time.Duration(limit) * time.Duration(intervalMillis(interval)) * time.Millisecond
		days := int(span.Hours()/24) + 1
		switch {
		case days <= 1:
			return "1d"
		case days <= 5:
			return "5d"
		default:
			return "1mo"
		}
	case "1d":
		switch {
		case limit <= 30:
			return "1mo"
		case limit <= 90:
			return "3mo"
		case limit <= 180:
			return "6mo"
		case limit <= 365:
			return "1y"
		default:
			return "2y"
		}
	case "1wk":
		if limit <= 52 {
			return "1y"
		}
		return "2y"
	default:
		return "1mo"
	}
}

func at(vals []*float64, i int) *float64 {
	if i < 0 || i >= len(vals) {
		return nil
	}
	return vals[i]
}
