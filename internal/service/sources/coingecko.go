package sources

import (
	"context"
	"fmt"
	"sort"
	"time"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/pkg/http"
	"HodlWatch/pkg/logger"
	"HodlWatch/pkg/util"
)

const coinGeckoName = "coingecko"

// coinGeckoOHLCWindows are the day windows the OHLC endpoint accepts.
var coinGeckoOHLCWindows = []int{1, 7, 14, 30, 90, 180, 365}

// CoinGecko is the primary spot source and the incremental candle source for
// tail-gap fetches. The OHLC endpoint returns sub-daily candles which are
// bucketed to UTC days before being returned.
type CoinGecko struct {
	client  *http.Client
	baseURL string
	log     *logger.Logger
	now     func() time.Time
}

type CoinGeckoOption func(*CoinGecko)

func WithCoinGeckoNow(now func() time.Time) CoinGeckoOption {
	return func(g *CoinGecko) { g.now = now }
}

func WithCoinGeckoClient(client *http.Client) CoinGeckoOption {
	return func(g *CoinGecko) { g.client = client }
}

func NewCoinGecko(baseURL string, timeout time.Duration, log *logger.Logger, opts ...CoinGeckoOption) *CoinGecko {
	g := &CoinGecko{
		client:  http.NewClient(http.WithTimeout(timeout), http.WithUserAgent("HodlWatch/1.0")),
		baseURL: baseURL,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *CoinGecko) Name() string { return coinGeckoName }

type simplePriceResponse struct {
	Bitcoin struct {
		USD       float64 `json:"usd"`
		Volume24h float64 `json:"usd_24h_vol"`
		Change24h float64 `json:"usd_24h_change"`
	} `json:"bitcoin"`
}

// FetchSpot returns the current quote. The 24h high comes from the one-day
// OHLC endpoint; when that call fails the spot price stands in for it rather
// than failing the whole quote.
func (g *CoinGecko) FetchSpot(ctx context.Context) (models.SpotQuote, error) {
	var resp simplePriceResponse
	err := g.client.SendAndParse(ctx, &http.RequestOptions{
		Method: http.MethodGet,
		URL:    g.baseURL + "/simple/price",
		QueryParams: map[string]string{
			"ids":                 "bitcoin",
			"vs_currencies":       "usd",
			"include_24hr_vol":    "true",
			"include_24hr_change": "true",
		},
	}, &resp)
	if err != nil {
		return models.SpotQuote{}, classify(coinGeckoName, err)
	}
	if resp.Bitcoin.USD <= 0 {
		return models.SpotQuote{}, &models.SchemaError{Source: coinGeckoName, Detail: "missing bitcoin.usd price"}
	}

	high24h := resp.Bitcoin.USD
	if candles, err := g.fetchOHLC(ctx, 1); err != nil {
		g.log.Warn("24h high lookup failed, using spot price", logger.Error(err))
	} else {
		for _, c := range candles {
			if c.high > high24h {
				high24h = c.high
			}
		}
	}

	return models.SpotQuote{
		Price:     resp.Bitcoin.USD,
		High24h:   high24h,
		Volume24h: resp.Bitcoin.Volume24h,
		Change24h: resp.Bitcoin.Change24h,
		Timestamp: g.now().UTC(),
		Source:    coinGeckoName,
	}, nil
}

// FetchRange returns daily rows covering [start, end]. Candles outside the
// range are discarded after bucketing. Volume is not available from this
// endpoint and is reported as zero.
func (g *CoinGecko) FetchRange(ctx context.Context, start, end time.Time) (models.Series, error) {
	days := util.DaysBetween(util.Day(start), util.Day(g.now()))
	window := coinGeckoOHLCWindows[len(coinGeckoOHLCWindows)-1]
	for _, w := range coinGeckoOHLCWindows {
		if days <= w {
			window = w
			break
		}
	}
	if days > window {
		// The OHLC endpoint caps out at the largest window; anything earlier
		// cannot come from this source and stays missing until a rebuild.
		g.log.Warn("requested range exceeds largest ohlc window",
			logger.Time("start", start),
			logger.Int("days", days),
			logger.Int("window_days", window))
	}

	candles, err := g.fetchOHLC(ctx, window)
	if err != nil {
		return nil, err
	}

	buckets := make(map[time.Time]*models.PriceRow)
	var order []time.Time
	for _, c := range candles {
		day := util.Day(c.ts)
		row, ok := buckets[day]
		if !ok {
			buckets[day] = &models.PriceRow{
				Date: day, Open: c.open, High: c.high, Low: c.low, Close: c.close,
			}
			order = append(order, day)
			continue
		}
		if c.high > row.High {
			row.High = c.high
		}
		if c.low < row.Low {
			row.Low = c.low
		}
		row.Close = c.close
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	startDay, endDay := util.Day(start), util.Day(end)
	out := make(models.Series, 0, len(order))
	for _, day := range order {
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		out = append(out, *buckets[day])
	}
	return out, nil
}

type ohlcCandle struct {
	ts                     time.Time
	open, high, low, close float64
}

func (g *CoinGecko) fetchOHLC(ctx context.Context, days int) ([]ohlcCandle, error) {
	var raw [][]float64
	err := g.client.SendAndParse(ctx, &http.RequestOptions{
		Method: http.MethodGet,
		URL:    g.baseURL + "/coins/bitcoin/ohlc",
		QueryParams: map[string]string{
			"vs_currency": "usd",
			"days":        fmt.Sprintf("%d", days),
		},
	}, &raw)
	if err != nil {
		return nil, classify(coinGeckoName, err)
	}

	out := make([]ohlcCandle, 0, len(raw))
	for i, c := range raw {
		if len(c) < 5 {
			return nil, &models.SchemaError{
				Source: coinGeckoName,
				Detail: fmt.Sprintf("ohlc candle %d has %d fields, want 5", i, len(c)),
			}
		}
		out = append(out, ohlcCandle{
			ts:    time.UnixMilli(int64(c[0])).UTC(),
			open:  c[1],
			high:  c[2],
			low:   c[3],
			close: c[4],
		})
	}
	return out, nil
}

var (
	_ domrepo.SpotSource   = (*CoinGecko)(nil)
	_ domrepo.CandleSource = (*CoinGecko)(nil)
)
