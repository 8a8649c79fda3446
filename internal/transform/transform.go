package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"price-pipeline/internal/dataset"
	"price-pipeline/internal/notify"
)

const UnexpectedCurrencyMessage = "Unexpected currency was received."

var ErrSchema = errors.New("dataset does not have the expected columns")

type Options struct {
	ExpectedCurrency string

	CurrencyColumn string
	HighColumn     string
	LowColumn      string
	DerivedColumn  string
}

func DefaultOptions() Options {
	return Options{
		ExpectedCurrency: "USD",
		CurrencyColumn:   "Currency",
		HighColumn:       "High",
		LowColumn:        "Low",
		DerivedColumn:    "Average",
	}
}

type Report struct {
	RowsIn      int
	RowsDropped int
	RowsOut     int
	Anomaly     bool
}

// Apply runs the price transform on table in place. The steps are order
// dependent: the currency column is gone before rows with missing values are
// dropped, so a missing currency never removes a row.
func Apply(ctx context.Context, table *dataset.Table, opts Options, notifier notify.Notifier) (Report, error) {
	report := Report{RowsIn: table.Len()}

	currencies, err := table.Column(opts.CurrencyColumn)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	for _, column := range []string{opts.HighColumn, opts.LowColumn} {
		if table.Index(column) < 0 {
			return report, fmt.Errorf("%w: %w: %q", ErrSchema, dataset.ErrColumnNotFound, column)
		}
	}

	if unexpected := countUnexpected(currencies, opts.ExpectedCurrency); unexpected > 0 {
		report.Anomaly = true
		slog.Warn("unexpected currency in dataset", "expected", opts.ExpectedCurrency, "rows", unexpected)
		notifier.Notify(ctx, UnexpectedCurrencyMessage)
	}

	if err := table.DropColumn(opts.CurrencyColumn); err != nil {
		return report, err
	}

	report.RowsDropped = table.DropMissing()

	err = table.Derive(opts.DerivedColumn, func(row dataset.Row) (float64, error) {
		high, err := table.Float(row, opts.HighColumn)
		if err != nil {
			return 0, err
		}
		low, err := table.Float(row, opts.LowColumn)
		if err != nil {
			return 0, err
		}
		return high - low, nil
	})
	if err != nil {
		return report, err
	}

	report.RowsOut = table.Len()
	return report, nil
}

func countUnexpected(values []string, expected string) int {
	n := 0
	for _, v := range values {
		if dataset.IsMissing(v) || v != expected {
			n++
		}
	}
	return n
}
