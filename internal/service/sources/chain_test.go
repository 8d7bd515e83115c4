package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"HodlWatch/internal/domain/models"
	"HodlWatch/pkg/http"
	"HodlWatch/pkg/logger"
)

type fakeSpot struct {
	name  string
	quote models.SpotQuote
	err   error
	calls int
}

func (f *fakeSpot) Name() string { return f.name }

func (f *fakeSpot) FetchSpot(context.Context) (models.SpotQuote, error) {
	f.calls++
	if f.err != nil {
		return models.SpotQuote{}, f.err
	}
	return f.quote, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, float64)              {}
func (nopMetrics) RecordSourceError(string, string)         {}
func (nopMetrics) RecordRowsFetched(string, int)            {}
func (nopMetrics) RecordDroppedRows(int)                    {}
func (nopMetrics) RecordStanding(float64, float64, float64) {}

func TestSpotChainFirstSourceWins(t *testing.T) {
	primary := &fakeSpot{name: "a", quote: models.SpotQuote{Price: 50000, Source: "a"}}
	backup := &fakeSpot{name: "b", quote: models.SpotQuote{Price: 49000, Source: "b"}}
	chain := NewSpotChain(logger.Nop(), nopMetrics{}, primary, backup)

	quote, err := chain.FetchSpot(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if quote.Source != "a" || quote.Price != 50000 {
		t.Fatalf("expected primary quote, got %+v", quote)
	}
	if backup.calls != 0 {
		t.Fatal("backup should not be consulted when primary succeeds")
	}
}

func TestSpotChainFallsThrough(t *testing.T) {
	primary := &fakeSpot{name: "a", err: &models.TransientSourceError{Source: "a", Err: errors.New("rate limited")}}
	backup := &fakeSpot{name: "b", quote: models.SpotQuote{Price: 49000, Source: "b"}}
	chain := NewSpotChain(logger.Nop(), nopMetrics{}, primary, backup)

	quote, err := chain.FetchSpot(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if quote.Source != "b" {
		t.Fatalf("expected backup quote, got %+v", quote)
	}
}

func TestSpotChainExhausted(t *testing.T) {
	a := &fakeSpot{name: "a", err: &models.TransientSourceError{Source: "a", Err: errors.New("down")}}
	b := &fakeSpot{name: "b", err: &models.SchemaError{Source: "b", Detail: "garbage"}}
	chain := NewSpotChain(logger.Nop(), nopMetrics{}, a, b)

	_, err := chain.FetchSpot(context.Background())
	var exhausted *models.SourcesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected SourcesExhaustedError, got %v", err)
	}
	if len(exhausted.Tried) != 2 || exhausted.Tried[0] != "a" || exhausted.Tried[1] != "b" {
		t.Fatalf("expected both sources recorded, got %v", exhausted.Tried)
	}
	if !models.IsSchema(exhausted.Last) {
		t.Fatalf("expected last error preserved, got %v", exhausted.Last)
	}
}

func TestClassify(t *testing.T) {
	statusErr := &http.StatusError{Code: 429, Body: "rate limited"}
	if !models.IsTransient(classify("x", statusErr)) {
		t.Fatal("status errors should classify as transient")
	}

	var target []int
	decodeErr := fmt.Errorf("decode json: %w", json.Unmarshal([]byte(`{"a":"b"}`), &target))
	if !models.IsSchema(classify("x", decodeErr)) {
		t.Fatalf("decode errors should classify as schema, got %v", classify("x", decodeErr))
	}

	plain := errors.New("connection reset")
	if !models.IsTransient(classify("x", plain)) {
		t.Fatal("unknown errors should classify as transient")
	}

	already := &models.SchemaError{Source: "x", Detail: "bad shape"}
	if classify("x", already) != error(already) {
		t.Fatal("classified errors should pass through unchanged")
	}
}
