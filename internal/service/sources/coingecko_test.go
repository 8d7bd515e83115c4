package sources

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"HodlWatch/pkg/logger"
)

func coinGeckoServer(t *testing.T, price, ohlc string) *httptest.Server {
	t.Helper()
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/simple/price", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		_, _ = w.Write([]byte(price))
	})
	mux.HandleFunc("/coins/bitcoin/ohlc", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		_, _ = w.Write([]byte(ohlc))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCoinGeckoFetchSpot(t *testing.T) {
	srv := coinGeckoServer(t,
		`{"bitcoin":{"usd":65000,"usd_24h_vol":1.2e10,"usd_24h_change":-1.5}}`,
		// Sub-daily candles; the high of the window is 66000.
		`[[1718064000000,64000,65500,63500,65000],[1718078400000,65000,66000,64800,65200]]`)

	now := func() time.Time { return day("2024-06-11").Add(6 * time.Hour) }
	g := NewCoinGecko(srv.URL, time.Second, logger.Nop(), WithCoinGeckoNow(now))

	quote, err := g.FetchSpot(context.Background())
	if err != nil {
		t.Fatalf("spot: %v", err)
	}
	if quote.Price != 65000 {
		t.Fatalf("price = %v, want 65000", quote.Price)
	}
	if quote.High24h != 66000 {
		t.Fatalf("high24h = %v, want the window high 66000", quote.High24h)
	}
	if quote.Change24h != -1.5 {
		t.Fatalf("change24h = %v", quote.Change24h)
	}
	if quote.Source != "coingecko" {
		t.Fatalf("source = %q", quote.Source)
	}
}

func TestCoinGeckoSpotSurvivesOHLCFailure(t *testing.T) {
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/simple/price", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":65000}}`))
	})
	mux.HandleFunc("/coins/bitcoin/ohlc", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		stdhttp.Error(w, "rate limited", stdhttp.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := NewCoinGecko(srv.URL, time.Second, logger.Nop())
	quote, err := g.FetchSpot(context.Background())
	if err != nil {
		t.Fatalf("spot should survive an OHLC failure: %v", err)
	}
	if quote.High24h != 65000 {
		t.Fatalf("high24h should fall back to spot, got %v", quote.High24h)
	}
}

func TestCoinGeckoFetchRangeBucketsToDays(t *testing.T) {
	// Four 12h candles spanning two UTC days (2024-06-10 and 2024-06-11).
	srv := coinGeckoServer(t, `{}`, `[
		[1717977600000,60000,61000,59500,60500],
		[1718020800000,60500,62000,60200,61800],
		[1718064000000,61800,63000,61500,62500],
		[1718107200000,62500,62800,61000,61200]
	]`)

	now := func() time.Time { return day("2024-06-12") }
	g := NewCoinGecko(srv.URL, time.Second, logger.Nop(), WithCoinGeckoNow(now))

	got, err := g.FetchRange(context.Background(), day("2024-06-10"), day("2024-06-11"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 daily rows, got %d", len(got))
	}

	first := got[0]
	if !first.Date.Equal(day("2024-06-10")) || first.Open != 60000 || first.High != 62000 || first.Low != 59500 || first.Close != 61800 {
		t.Fatalf("first day misbucketed: %+v", first)
	}
	second := got[1]
	if !second.Date.Equal(day("2024-06-11")) || second.High != 63000 || second.Close != 61200 {
		t.Fatalf("second day misbucketed: %+v", second)
	}
	if first.Volume != 0 || second.Volume != 0 {
		t.Fatal("ohlc endpoint carries no volume, expected zero")
	}
}

func TestCoinGeckoFetchRangeClipsWindow(t *testing.T) {
	srv := coinGeckoServer(t, `{}`, `[
		[1717977600000,60000,61000,59500,60500],
		[1718064000000,61800,63000,61500,62500]
	]`)

	now := func() time.Time { return day("2024-06-12") }
	g := NewCoinGecko(srv.URL, time.Second, logger.Nop(), WithCoinGeckoNow(now))

	got, err := g.FetchRange(context.Background(), day("2024-06-11"), day("2024-06-11"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || !got[0].Date.Equal(day("2024-06-11")) {
		t.Fatalf("expected only the in-window day, got %+v", got)
	}
}

func TestCoinGeckoFetchRangeWarnsBeyondLargestWindow(t *testing.T) {
	var gotDays string
	mux := stdhttp.NewServeMux()
	mux.HandleFunc("/coins/bitcoin/ohlc", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		gotDays = r.URL.Query().Get("days")
		_, _ = w.Write([]byte(`[[1718064000000,64000,65500,63500,65000]]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	logPath := filepath.Join(t.TempDir(), "out.log")
	log, err := logger.New(&logger.Config{Level: "debug", Output: logPath})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	now := func() time.Time { return day("2024-06-11") }
	g := NewCoinGecko(srv.URL, time.Second, log, WithCoinGeckoNow(now))

	if _, err := g.FetchRange(context.Background(), day("2020-01-01"), day("2024-06-10")); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotDays != "365" {
		t.Fatalf("a range past the cap should still request the largest window, days = %q", gotDays)
	}
	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "requested range exceeds largest ohlc window") {
		t.Fatalf("missing window warning, log: %s", raw)
	}
}
