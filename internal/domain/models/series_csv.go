package models

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"HodlWatch/pkg/util"
)

// csvHeader is the persisted column layout. It must round-trip exactly
// between writes and reads.
var csvHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// EncodeCSV writes the series as a date-indexed CSV blob.
func (s Series) EncodeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range s {
		rec := []string{
			util.FormatDay(r.Date),
			formatPrice(r.Open),
			formatPrice(r.High),
			formatPrice(r.Low),
			formatPrice(r.Close),
			formatPrice(r.Volume),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", util.FormatDay(r.Date), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeSeriesCSV parses a blob previously written by EncodeCSV.
func DecodeSeriesCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected column %q at %d, want %q", header[i], i, col)
		}
	}

	var s Series
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		date, err := util.ParseDay(rec[0])
		if err != nil {
			return nil, err
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %s column %s: %w", rec[0], csvHeader[i+1], err)
			}
			vals[i] = v
		}
		s = append(s, PriceRow{
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	if err := s.CheckInvariants(); err != nil {
		return nil, err
	}
	return s, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
