// Package dataset loads the market indicator sources, merges them into one
// table of trading days and downsamples it.
package dataset

import (
	"errors"
	"math"
	"time"

	"github.com/sartorproj/marketcast/timeseries"
)

// Date layouts of the input files.
const (
	MarketDateLayout    = "01/02/2006"
	SentimentDateLayout = "2006-01-02"
)

// Column names of the merged table.
const (
	ColDate          = "Date"
	ColUSDJPY        = "USD.JPY"
	ColGoldPrice     = "Gold.Price"
	ColGoldVolume    = "Gold.Volume"
	ColVIXClose      = "VIX.Close"
	ColNextClose     = "Next.Close"
	ColNewsSentiment = "News.Sentiment"
	ColDay           = "Day"
)

// Columns lists the merged table columns in export order.
var Columns = []string{
	ColDate, ColUSDJPY, ColGoldPrice, ColGoldVolume, ColVIXClose, ColNextClose, ColNewsSentiment, ColDay,
}

// ErrInvalidStride is returned when the resample stride is smaller than 1.
var ErrInvalidStride = errors.New("resample stride must be at least 1")

// Record is one trading day of the merged table.
type Record struct {
	Date          time.Time
	USDJPY        float64
	GoldPrice     float64
	GoldVolume    float64
	VIXClose      float64
	NextClose     float64 // VIX close of the previous Day, NaN at Day 1
	NewsSentiment float64
	Day           int // 1-based rank after sorting by Date
}

// HasNextClose reports whether NextClose is defined.
func (r Record) HasNextClose() bool {
	return !math.IsNaN(r.NextClose)
}

// Complete reports whether every required field is present.
func (r Record) Complete() bool {
	for _, v := range []float64{r.USDJPY, r.GoldPrice, r.GoldVolume, r.VIXClose, r.NewsSentiment} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Value returns the numeric field named by one of the Col constants.
func (r Record) Value(column string) (float64, bool) {
	switch column {
	case ColUSDJPY:
		return r.USDJPY, true
	case ColGoldPrice:
		return r.GoldPrice, true
	case ColGoldVolume:
		return r.GoldVolume, true
	case ColVIXClose:
		return r.VIXClose, true
	case ColNextClose:
		return r.NextClose, true
	case ColNewsSentiment:
		return r.NewsSentiment, true
	case ColDay:
		return float64(r.Day), true
	}
	return math.NaN(), false
}

// Table is a Day-ordered sequence of records.
type Table struct {
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Days returns the Day value of every record.
func (t *Table) Days() []int {
	days := make([]int, len(t.Records))
	for i, r := range t.Records {
		days[i] = r.Day
	}
	return days
}

// LastDay returns the Day of the final record, or 0 for an empty table.
func (t *Table) LastDay() int {
	if len(t.Records) == 0 {
		return 0
	}
	return t.Records[len(t.Records)-1].Day
}

// Column extracts a numeric column as a dated series.
func (t *Table) Column(name string) (*timeseries.Series, error) {
	if _, ok := (Record{}).Value(name); !ok {
		return nil, errors.New("dataset: unknown column " + name)
	}
	values := make([]float64, len(t.Records))
	stamps := make([]time.Time, len(t.Records))
	for i, r := range t.Records {
		values[i], _ = r.Value(name)
		stamps[i] = r.Date
	}
	return timeseries.NewWithTimestamps(name, stamps, values)
}
