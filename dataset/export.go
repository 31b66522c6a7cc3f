package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// WriteCSV writes the table with a header row. Missing values are written as NA.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range t.Records {
		row := []string{
			r.Date.Format(SentimentDateLayout),
			formatFloat(r.USDJPY),
			formatFloat(r.GoldPrice),
			formatFloat(r.GoldVolume),
			formatFloat(r.VIXClose),
			formatFloat(r.NextClose),
			formatFloat(r.NewsSentiment),
			strconv.Itoa(r.Day),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the table to filename.
func SaveCSV(filename string, t *Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("dataset.SaveCSV: %w", err)
	}
	if err := WriteCSV(file, t); err != nil {
		file.Close()
		return fmt.Errorf("dataset.SaveCSV: %s: %w", filename, err)
	}
	return file.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
