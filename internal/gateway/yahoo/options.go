package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"quantsignal/internal/logger"
	"quantsignal/internal/options"
)

// Chain is a single-expiration option chain snapshot.
type Chain struct {
	Symbol     string
	Underlying float64
	Expiration time.Time
	DTE        float64
	Calls      []options.Contract
	Puts       []options.Contract
}

type chainResponse struct {
	OptionChain struct {
		Result []struct {
			Quote struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"quote"`
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64           `json:"expirationDate"`
				Calls          []chainContract `json:"calls"`
				Puts           []chainContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"optionChain"`
}

type chainContract struct {
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Volume            float64 `json:"volume"`
	OpenInterest      float64 `json:"openInterest"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

// FetchChain returns the option chain for the expiration closest at or after
// minDTE days out. A zero minDTE selects the nearest listed expiration.
func (s *Source) FetchChain(ctx context.Context, symbol string, minDTE int) (*Chain, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	ticker := s.yahooSymbol(symbol)

	base, err := s.fetchChainPage(ctx, ticker, 0)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expiry, ok := pickExpiration(base.expirations, now, minDTE)
	if !ok {
		return nil, fmt.Errorf("yahoo: no listed expirations for %s", symbol)
	}

	page := base
	if expiry != base.expiry {
		page, err = s.fetchChainPage(ctx, ticker, expiry)
		if err != nil {
			return nil, err
		}
	}

	exp := time.Unix(page.expiry, 0).UTC()
	return &Chain{
		Symbol:     symbol,
		Underlying: page.underlying,
		Expiration: exp,
		DTE:        exp.Sub(now).Hours() / 24,
		Calls:      page.calls,
		Puts:       page.puts,
	}, nil
}

type chainPage struct {
	underlying  float64
	expiry      int64
	expirations []int64
	calls       []options.Contract
	puts        []options.Contract
}

func (s *Source) fetchChainPage(ctx context.Context, ticker string, date int64) (*chainPage, error) {
	u := fmt.Sprintf("%s/v7/finance/options/%s", s.cfg.BaseURL, url.PathEscape(ticker))
	if date > 0 {
		u += fmt.Sprintf("?date=%d", date)
	}
	logger.Debugf("[yahoo] options %s", u)
	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var resp chainResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chain decode: %w", err)
	}
	if resp.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo chain error: %s", resp.OptionChain.Error.Description)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no option chain for %s", ticker)
	}
	result := resp.OptionChain.Result[0]
	if len(result.Options) == 0 {
		return nil, fmt.Errorf("yahoo: empty option block for %s", ticker)
	}
	block := result.Options[0]
	return &chainPage{
		underlying:  result.Quote.RegularMarketPrice,
		expiry:      block.ExpirationDate,
		expirations: result.ExpirationDates,
		calls:       toContracts(block.Calls, options.Call),
		puts:        toContracts(block.Puts, options.Put),
	}, nil
}

func pickExpiration(expirations []int64, now time.Time, minDTE int) (int64, bool) {
	if len(expirations) == 0 {
		return 0, false
	}
	sorted := make([]int64, len(expirations))
	copy(sorted, expirations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	cutoff := now.AddDate(0, 0, minDTE).Unix()
	for _, e := range sorted {
		if e >= cutoff {
			return e, true
		}
	}
	return sorted[len(sorted)-1], true
}

func toContracts(raw []chainContract, typ options.Type) []options.Contract {
	out := make([]options.Contract, 0, len(raw))
	for _, r := range raw {
		out = append(out, options.Contract{
			Strike:            r.Strike,
			Type:              typ,
			LastPrice:         r.LastPrice,
			Bid:               r.Bid,
			Ask:               r.Ask,
			ImpliedVolatility: r.ImpliedVolatility,
			Volume:            r.Volume,
			OpenInterest:      r.OpenInterest,
		})
	}
	return out
}
