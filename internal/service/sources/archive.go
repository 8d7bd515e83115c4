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

const archiveName = "archive"

// Archive serves the long-horizon aggregate candle file used for cold-start
// backfill. It also acts as the last-resort spot source by quoting the final
// candle of the file.
//
// Rows with a missing or non-positive Close are discarded; missing Open,
// High or Low values are backfilled from Close.
type Archive struct {
	client *http.Client
	url    string
	log    *logger.Logger
}

type ArchiveOption func(*Archive)

func WithArchiveClient(client *http.Client) ArchiveOption {
	return func(a *Archive) { a.client = client }
}

func NewArchive(url string, timeout time.Duration, log *logger.Logger, opts ...ArchiveOption) *Archive {
	a := &Archive{
		client: http.NewClient(http.WithTimeout(timeout), http.WithUserAgent("HodlWatch/1.0")),
		url:    url,
		log:    log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Archive) Name() string { return archiveName }

type archivePayload struct {
	// Candles are [unix_seconds, open, high, low, close, volume] arrays.
	// Individual values may be null.
	Candles [][]*float64 `json:"candles"`
}

// FetchRange downloads the whole archive and returns the daily rows within
// [start, end].
func (a *Archive) FetchRange(ctx context.Context, start, end time.Time) (models.Series, error) {
	rows, err := a.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	startDay, endDay := util.Day(start), util.Day(end)
	out := make(models.Series, 0, len(rows))
	for _, r := range rows {
		if r.Date.Before(startDay) || r.Date.After(endDay) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FetchSpot quotes the most recent candle of the archive. It is stale by up
// to a day, which is acceptable for a last-resort fallback.
func (a *Archive) FetchSpot(ctx context.Context) (models.SpotQuote, error) {
	rows, err := a.fetchAll(ctx)
	if err != nil {
		return models.SpotQuote{}, err
	}
	last, ok := rows.Last()
	if !ok {
		return models.SpotQuote{}, &models.SchemaError{Source: archiveName, Detail: "archive contains no usable candles"}
	}
	return models.SpotQuote{
		Price:     last.Close,
		High24h:   last.High,
		Volume24h: last.Volume,
		Timestamp: last.Date,
		Source:    archiveName,
	}, nil
}

func (a *Archive) fetchAll(ctx context.Context) (models.Series, error) {
	var payload archivePayload
	err := a.client.SendAndParse(ctx, &http.RequestOptions{
		Method: http.MethodGet,
		URL:    a.url,
	}, &payload)
	if err != nil {
		return nil, classify(archiveName, err)
	}
	if len(payload.Candles) == 0 {
		return nil, &models.SchemaError{Source: archiveName, Detail: "no candles in payload"}
	}

	byDay := make(map[time.Time]models.PriceRow, len(payload.Candles))
	skipped := 0
	for i, c := range payload.Candles {
		if len(c) < 5 {
			return nil, &models.SchemaError{
				Source: archiveName,
				Detail: fmt.Sprintf("candle %d has %d fields, want at least 5", i, len(c)),
			}
		}
		if c[0] == nil {
			skipped++
			continue
		}
		closePx := deref(c[4], 0)
		if closePx <= 0 {
			skipped++
			continue
		}
		row := models.PriceRow{
			Date:  util.Day(time.Unix(int64(*c[0]), 0).UTC()),
			Open:  deref(c[1], closePx),
			High:  deref(c[2], closePx),
			Low:   deref(c[3], closePx),
			Close: closePx,
		}
		if len(c) > 5 {
			row.Volume = deref(c[5], 0)
		}
		// Later candles for the same day win, matching file order.
		byDay[row.Date] = row
	}
	if skipped > 0 {
		a.log.Warn("archive candles skipped", logger.Int("skipped", skipped))
	}

	out := make(models.Series, 0, len(byDay))
	for _, r := range byDay {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func deref(p *float64, fallback float64) float64 {
	if p == nil || *p == 0 {
		return fallback
	}
	return *p
}

var (
	_ domrepo.CandleSource = (*Archive)(nil)
	_ domrepo.SpotSource   = (*Archive)(nil)
)
