package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sartorproj/marketcast/timeseries"
)

// MergeStats counts rows through each cleaning step.
type MergeStats struct {
	Joined           int // rows after the outer join of the market sources
	DroppedMarket    int // rows missing a market field
	DroppedSentiment int // rows without a sentiment score
	Kept             int
}

// Merge joins the market sources on date, drops incomplete rows, attaches
// sentiment, sorts by date and assigns Day. The returned table contains only
// records with every required field present.
func Merge(raw *Raw) (*Table, MergeStats, error) {
	var stats MergeStats

	exCol := raw.sources.Exchange.Columns[0]
	goldPriceCol := raw.sources.Gold.Columns[0]
	goldVolCol := raw.sources.Gold.Columns[1]
	vixCol := raw.sources.VIX.Columns[0]

	keys := unionKeys(raw.Exchange, raw.Gold, raw.VIX)
	stats.Joined = len(keys)

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		rec := Record{
			USDJPY:        lookup(raw.Exchange, key, exCol),
			GoldPrice:     lookup(raw.Gold, key, goldPriceCol),
			GoldVolume:    lookup(raw.Gold, key, goldVolCol),
			VIXClose:      lookup(raw.VIX, key, vixCol),
			NextClose:     math.NaN(),
			NewsSentiment: math.NaN(),
		}
		if math.IsNaN(rec.USDJPY) || math.IsNaN(rec.GoldPrice) || math.IsNaN(rec.GoldVolume) || math.IsNaN(rec.VIXClose) {
			stats.DroppedMarket++
			continue
		}

		date, err := time.Parse(MarketDateLayout, key)
		if err != nil {
			return nil, stats, fmt.Errorf("dataset.Merge: %w", &timeseries.ParseError{
				Source: "merged",
				Column: ColDate,
				Value:  key,
				Err:    err,
			})
		}
		rec.Date = date

		score, ok := raw.Sentiment.At(date)
		if !ok || math.IsNaN(score) {
			stats.DroppedSentiment++
			continue
		}
		rec.NewsSentiment = score
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	for i := range records {
		records[i].Day = i + 1
		if i > 0 {
			records[i].NextClose = records[i-1].VIXClose
		}
	}

	stats.Kept = len(records)
	return &Table{Records: records}, stats, nil
}

// unionKeys returns every key of the frames once, in first-seen order.
func unionKeys(frames ...*timeseries.Frame) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, f := range frames {
		for _, k := range f.Keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func lookup(f *timeseries.Frame, key, column string) float64 {
	v, ok := f.Lookup(key, column)
	if !ok {
		return math.NaN()
	}
	return v
}
