package sources

import (
	"context"
	"encoding/json"
	"errors"

	"HodlWatch/internal/domain/models"
	domrepo "HodlWatch/internal/domain/repository"
	"HodlWatch/pkg/http"
	"HodlWatch/pkg/logger"
)

// SpotChain tries each spot source in order and returns the first quote.
// Every failure is logged and recorded; only when the whole chain fails does
// the caller see a SourcesExhaustedError.
type SpotChain struct {
	sources []domrepo.SpotSource
	log     *logger.Logger
	metrics domrepo.Metrics
}

func NewSpotChain(log *logger.Logger, metrics domrepo.Metrics, sources ...domrepo.SpotSource) *SpotChain {
	return &SpotChain{sources: sources, log: log, metrics: metrics}
}

func (c *SpotChain) Name() string { return "chain" }

func (c *SpotChain) FetchSpot(ctx context.Context) (models.SpotQuote, error) {
	tried := make([]string, 0, len(c.sources))
	var last error
	for _, src := range c.sources {
		quote, err := src.FetchSpot(ctx)
		if err == nil {
			return quote, nil
		}
		tried = append(tried, src.Name())
		last = err
		c.metrics.RecordSourceError(src.Name(), errorKind(err))
		c.log.Warn("spot source failed, trying next",
			logger.String("source", src.Name()),
			logger.Error(err))
	}
	return models.SpotQuote{}, &models.SourcesExhaustedError{Tried: tried, Last: last}
}

// classify wraps a raw transport or decode error into the source error
// taxonomy. Non-2xx statuses and connection failures are transient; anything
// else means the payload did not look like we expected.
func classify(source string, err error) error {
	if models.IsTransient(err) || models.IsSchema(err) {
		return err
	}
	var status *http.StatusError
	if errors.As(err, &status) {
		return &models.TransientSourceError{Source: source, Err: err}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &models.SchemaError{Source: source, Detail: "undecodable response", Err: err}
	}
	return &models.TransientSourceError{Source: source, Err: err}
}

func errorKind(err error) string {
	switch {
	case models.IsSchema(err):
		return "schema"
	default:
		return "transient"
	}
}

var _ domrepo.SpotSource = (*SpotChain)(nil)
