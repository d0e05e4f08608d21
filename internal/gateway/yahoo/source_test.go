package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const chartBody = `{"chart":{"result":[{"timestamp":[1700000000,1700000300,1700000600],
"indicators":{"quote":[{
"open":[100.0,null,102.0],
"high":[101.0,null,103.0],
"low":[99.0,null,101.0],
"close":[100.5,null,102.5],
"volume":[1000,null,1200]}]}}],"error":null}}`

func chainBody(expiry int64) string {
	return fmt.Sprintf(`{"optionChain":{"result":[{
"quote":{"regularMarketPrice":105.0},
"expirationDates":[%d],
"options":[{"expirationDate":%d,
"calls":[{"strike":100,"lastPrice":6.2,"bid":6.0,"ask":6.4,"volume":250,"openInterest":900,"impliedVolatility":0.35}],
"puts":[{"strike":110,"lastPrice":5.8,"bid":5.6,"ask":6.0,"volume":120,"openInterest":400,"impliedVolatility":0.4}]}]}],
"error":null}}`, expiry, expiry)
}

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	return s
}

func TestFetchHistorySkipsNullBars(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, chartBody)
	})
	bars, err := s.FetchHistory(context.Background(), "AAPL", "5m", 100)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar to be dropped, got %d bars", len(bars))
	}
	if bars[0].Close != 100.5 || bars[1].Close != 102.5 {
		t.Errorf("closes = %v, %v", bars[0].Close, bars[1].Close)
	}
	if bars[0].OpenTime != 1700000000*1000 {
		t.Errorf("open time = %d, want ms", bars[0].OpenTime)
	}
}

func TestFetchHistoryDropsPartiallyNullBars(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1700000000,1700000300],
"indicators":{"quote":[{
"open":[100.0,101.0],
"high":[101.0,102.0],
"low":[99.0,100.0],
"close":[100.5,null],
"volume":[1000,1100]}]}}],"error":null}}`
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	bars, err := s.FetchHistory(context.Background(), "AAPL", "5m", 100)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected bar with null close to be dropped, got %d bars", len(bars))
	}
	for _, b := range bars {
		if b.Close == 0 {
			t.Errorf("zero-price bar leaked through: %+v", b)
		}
	}
}

func TestFetchHistoryNullVolumeIsZero(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1700000000],
"indicators":{"quote":[{
"open":[100.0],"high":[101.0],"low":[99.0],"close":[100.5],"volume":[null]}]}}],"error":null}}`
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	bars, err := s.FetchHistory(context.Background(), "AAPL", "5m", 100)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(bars) != 1 || bars[0].Volume != 0 {
		t.Fatalf("null volume should keep the bar with volume 0, got %+v", bars)
	}
}

func TestFetchHistoryMapsSymbol(t *testing.T) {
	var gotPath string
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, chartBody)
	})
	if _, err := s.FetchHistory(context.Background(), "SPX", "1d", 30); err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if !strings.Contains(gotPath, "%5EGSPC") && !strings.Contains(gotPath, "^GSPC") {
		t.Errorf("symbol not mapped, path = %s", gotPath)
	}
}

func TestFetchHistoryAPIError(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"no data"}}}`)
	})
	if _, err := s.FetchHistory(context.Background(), "NOPE", "1d", 10); err == nil {
		t.Fatal("expected api error")
	}
}

func TestFetchChain(t *testing.T) {
	expiry := time.Now().AddDate(0, 0, 30).Unix()
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chainBody(expiry))
	})
	chain, err := s.FetchChain(context.Background(), "AAPL", 7)
	if err != nil {
		t.Fatalf("fetch chain: %v", err)
	}
	if chain.Underlying != 105 {
		t.Errorf("underlying = %v, want 105", chain.Underlying)
	}
	if len(chain.Calls) != 1 || len(chain.Puts) != 1 {
		t.Fatalf("chain sizes = %d calls, %d puts", len(chain.Calls), len(chain.Puts))
	}
	if chain.Calls[0].Type != "call" || chain.Puts[0].Type != "put" {
		t.Errorf("contract types not set: %q %q", chain.Calls[0].Type, chain.Puts[0].Type)
	}
	if chain.DTE < 28 || chain.DTE > 31 {
		t.Errorf("dte = %v, want about 30", chain.DTE)
	}
}

func TestPickExpirationRespectsMinDTE(t *testing.T) {
	now := time.Now()
	near := now.AddDate(0, 0, 2).Unix()
	far := now.AddDate(0, 0, 20).Unix()
	got, ok := pickExpiration([]int64{near, far}, now, 7)
	if !ok || got != far {
		t.Errorf("picked %d, want %d", got, far)
	}
	got, ok = pickExpiration([]int64{near, far}, now, 0)
	if !ok || got != near {
		t.Errorf("picked %d, want nearest %d", got, near)
	}
}
