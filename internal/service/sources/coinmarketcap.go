package sources

import (
	"context"
	"time"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/pkg/http"
)

const coinMarketCapName = "coinmarketcap"

// CoinMarketCap is a spot-only fallback source. It is only placed in the
// chain when an API key is configured.
type CoinMarketCap struct {
	client  *http.Client
	baseURL string
	apiKey  string
	now     func() time.Time
}

type CoinMarketCapOption func(*CoinMarketCap)

func WithCoinMarketCapNow(now func() time.Time) CoinMarketCapOption {
	return func(c *CoinMarketCap) { c.now = now }
}

func WithCoinMarketCapClient(client *http.Client) CoinMarketCapOption {
	return func(c *CoinMarketCap) { c.client = client }
}

func NewCoinMarketCap(baseURL, apiKey string, timeout time.Duration, opts ...CoinMarketCapOption) *CoinMarketCap {
	c := &CoinMarketCap{
		client:  http.NewClient(http.WithTimeout(timeout), http.WithUserAgent("HodlWatch/1.0")),
		baseURL: baseURL,
		apiKey:  apiKey,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CoinMarketCap) Name() string { return coinMarketCapName }

type cmcQuoteResponse struct {
	Data struct {
		BTC struct {
			Quote struct {
				USD struct {
					Price     float64 `json:"price"`
					Volume24h float64 `json:"volume_24h"`
					Change24h float64 `json:"percent_change_24h"`
				} `json:"USD"`
			} `json:"quote"`
		} `json:"BTC"`
	} `json:"data"`
}

// FetchSpot returns the latest quote. The endpoint does not expose a 24h
// high, so the spot price stands in for it.
func (c *CoinMarketCap) FetchSpot(ctx context.Context) (models.SpotQuote, error) {
	var resp cmcQuoteResponse
	err := c.client.SendAndParse(ctx, &http.RequestOptions{
		Method: http.MethodGet,
		URL:    c.baseURL + "/cryptocurrency/quotes/latest",
		Headers: map[string]string{
			"X-CMC_PRO_API_KEY": c.apiKey,
			"Accept":            "application/json",
		},
		QueryParams: map[string]string{
			"symbol":  "BTC",
			"convert": "USD",
		},
	}, &resp)
	if err != nil {
		return models.SpotQuote{}, classify(coinMarketCapName, err)
	}

	usd := resp.Data.BTC.Quote.USD
	if usd.Price <= 0 {
		return models.SpotQuote{}, &models.SchemaError{Source: coinMarketCapName, Detail: "missing data.BTC.quote.USD.price"}
	}
	return models.SpotQuote{
		Price:     usd.Price,
		High24h:   usd.Price,
		Volume24h: usd.Volume24h,
		Change24h: usd.Change24h,
		Timestamp: c.now().UTC(),
		Source:    coinMarketCapName,
	}, nil
}

var _ domrepo.SpotSource = (*CoinMarketCap)(nil)
