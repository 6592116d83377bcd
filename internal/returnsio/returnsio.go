// Package returnsio reads return and price series from CSV files of date,value rows.
package returnsio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/volforecast/go-volatility/errkind"
	"github.com/volforecast/go-volatility/timedataset"
)

const DefaultDateLayout = "2006-01-02"

var (
	ErrMissingColumn = fmt.Errorf("csv is missing a required column, %w", errkind.ErrInput)
	ErrInvalidRow    = fmt.Errorf("csv row cannot be parsed, %w", errkind.ErrInput)
)

var (
	dateHeaders  = []string{"date", "time", "timestamp", "datetime"}
	valueHeaders = []string{"value", "return", "returns", "adj close", "adj_close", "close", "price"}
)

// Options controls how a CSV file is parsed
type Options struct {
	// DateLayout is the time.Parse layout of the date column
	DateLayout string

	// Prices converts the value column from prices into log returns
	Prices bool
}

type row struct {
	t time.Time
	v float64
}

// Read parses date,value rows from r. A header row is detected when the first field of the first
// row is not a date, in which case the date and value columns are looked up by name. Rows with
// an empty or NaN value are dropped. Rows are sorted by date before the dataset is built.
func Read(r io.Reader, opt *Options) (*timedataset.TimeDataset, error) {
	layout := DefaultDateLayout
	var prices bool
	if opt != nil {
		if opt.DateLayout != "" {
			layout = opt.DateLayout
		}
		prices = opt.Prices
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	dateCol, valueCol := 0, 1
	var rows []row
	var dropped int
	for n := 1; ; n++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read csv, %w", err)
		}

		if n == 1 && len(rec) > 0 {
			if _, err := time.Parse(layout, strings.TrimSpace(rec[0])); err != nil {
				dateCol, valueCol, err = headerColumns(rec)
				if err != nil {
					return nil, err
				}
				continue
			}
		}

		if len(rec) <= dateCol || len(rec) <= valueCol {
			return nil, fmt.Errorf("row %d has %d fields, %w", n, len(rec), ErrInvalidRow)
		}
		t, err := time.Parse(layout, strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d date %q, %v, %w", n, rec[dateCol], err, ErrInvalidRow)
		}
		v, err := parseValue(rec[valueCol])
		if err != nil {
			return nil, fmt.Errorf("row %d value %q, %v, %w", n, rec[valueCol], err, ErrInvalidRow)
		}
		if math.IsNaN(v) {
			dropped++
			continue
		}
		rows = append(rows, row{t: t, v: v})
	}
	if dropped > 0 {
		slog.Debug("dropped rows without a value", "count", dropped)
	}
	if len(rows) == 0 {
		return nil, timedataset.ErrNoTrainingData
	}

	slices.SortStableFunc(rows, func(a, b row) int {
		return a.t.Compare(b.t)
	})
	t := make([]time.Time, len(rows))
	y := make([]float64, len(rows))
	for i, rw := range rows {
		t[i] = rw.t
		y[i] = rw.v
	}

	if prices {
		return timedataset.NewLogReturns(t, y)
	}
	return timedataset.NewUnivariateDataset(t, y)
}

// ReadFile opens path and parses it with Read
func ReadFile(path string, opt *Options) (*timedataset.TimeDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s, %w", path, err)
	}
	defer f.Close()

	td, err := Read(f, opt)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s, %w", path, err)
	}
	return td, nil
}

func headerColumns(header []string) (int, int, error) {
	dateCol, valueCol := -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if dateCol < 0 && slices.Contains(dateHeaders, name) {
			dateCol = i
		}
		if slices.Contains(valueHeaders, name) {
			// prefer the earliest alias in valueHeaders when several columns match
			if valueCol < 0 || slices.Index(valueHeaders, name) < slices.Index(valueHeaders, strings.ToLower(strings.TrimSpace(header[valueCol]))) {
				valueCol = i
			}
		}
	}
	if dateCol < 0 {
		return 0, 0, fmt.Errorf("no date column in header %v, %w", header, ErrMissingColumn)
	}
	if valueCol < 0 {
		return 0, 0, fmt.Errorf("no value column in header %v, %w", header, ErrMissingColumn)
	}
	return dateCol, valueCol, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "na":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, errors.New("value is infinite")
	}
	return v, nil
}
