package dataset

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sartorproj/marketcast/timeseries"
)

// Source describes one input CSV file.
type Source struct {
	Path       string
	DateColumn string
	Columns    []string // value columns, in the order the merger expects
}

// Sources names the four input files. Exchange and VIX read one close
// column, Gold reads price then volume, Sentiment reads the score.
type Sources struct {
	Exchange  Source
	Gold      Source
	VIX       Source
	Sentiment Source
}

// DefaultSources returns the usual column layout for files under dir.
func DefaultSources(dir string) Sources {
	return Sources{
		Exchange:  Source{Path: filepath.Join(dir, "usdjpy.csv"), DateColumn: "Date", Columns: []string{"Close"}},
		Gold:      Source{Path: filepath.Join(dir, "gold.csv"), DateColumn: "Date", Columns: []string{"Close", "Volume"}},
		VIX:       Source{Path: filepath.Join(dir, "vix.csv"), DateColumn: "Date", Columns: []string{"Close"}},
		Sentiment: Source{Path: filepath.Join(dir, "news_sentiment.csv"), DateColumn: "date", Columns: []string{"News.Sentiment"}},
	}
}

// Raw holds the four sources as loaded, before any joining.
type Raw struct {
	Exchange  *timeseries.Frame
	Gold      *timeseries.Frame
	VIX       *timeseries.Frame
	Sentiment *SentimentSeries
	sources   Sources
}

// SentimentSeries is the sentiment source keyed by calendar date.
type SentimentSeries struct {
	Dates  []time.Time
	Scores []float64
	byDate map[time.Time]float64
}

// Len returns the number of sentiment observations.
func (s *SentimentSeries) Len() int {
	return len(s.Dates)
}

// At returns the score for a calendar date.
func (s *SentimentSeries) At(date time.Time) (float64, bool) {
	v, ok := s.byDate[date]
	return v, ok
}

// Load reads all four sources. Any malformed numeric or sentiment date field
// stops the load with a *timeseries.ParseError.
func Load(src Sources) (*Raw, error) {
	exchange, err := loadSource(src.Exchange, 1)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load: exchange rate: %w", err)
	}
	gold, err := loadSource(src.Gold, 2)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load: gold: %w", err)
	}
	vix, err := loadSource(src.VIX, 1)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load: vix: %w", err)
	}
	sentFrame, err := loadSource(src.Sentiment, 1)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load: sentiment: %w", err)
	}
	sentiment, err := parseSentiment(sentFrame, src.Sentiment)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load: sentiment: %w", err)
	}

	return &Raw{
		Exchange:  exchange,
		Gold:      gold,
		VIX:       vix,
		Sentiment: sentiment,
		sources:   src,
	}, nil
}

func loadSource(s Source, want int) (*timeseries.Frame, error) {
	if len(s.Columns) != want {
		return nil, fmt.Errorf("%s: expected %d value columns, got %d", s.Path, want, len(s.Columns))
	}
	opts := timeseries.DefaultCSVOptions()
	opts.Source = filepath.Base(s.Path)
	opts.KeyColumn = s.DateColumn
	opts.ValueColumns = s.Columns
	return timeseries.LoadFrame(s.Path, opts)
}

// parseSentiment converts the sentiment frame keys to calendar dates.
func parseSentiment(frame *timeseries.Frame, src Source) (*SentimentSeries, error) {
	col := frame.Column(src.Columns[0])
	s := &SentimentSeries{
		Dates:  make([]time.Time, 0, frame.Len()),
		Scores: make([]float64, 0, frame.Len()),
		byDate: make(map[time.Time]float64, frame.Len()),
	}
	for i, key := range frame.Keys {
		date, err := time.Parse(SentimentDateLayout, key)
		if err != nil {
			return nil, &timeseries.ParseError{
				Source: filepath.Base(src.Path),
				Line:   frame.Lines[i],
				Column: src.DateColumn,
				Value:  key,
				Err:    err,
			}
		}
		if _, seen := s.byDate[date]; seen {
			continue
		}
		s.Dates = append(s.Dates, date)
		s.Scores = append(s.Scores, col[i])
		s.byDate[date] = col[i]
	}
	return s, nil
}
