// Package timeseries provides time series data structures and CSV ingestion.
//
// # Creating a Series
//
//	series := timeseries.New("VIX.Close", []float64{17.2, 18.1, 19.4, 18.8})
//	diff := series.Diff()
//
// # Reading CSV sources
//
// A Frame is one CSV source read into named numeric columns keyed by the raw
// value of a key column (usually the date). Missing tags such as "NA" or "null"
// become NaN; any other malformed number stops the read with a *ParseError:
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumns = []string{"Close", "Volume"}
//	frame, err := timeseries.LoadFrame("gold.csv", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, ok := frame.Lookup("01/02/1990", "Close")
package timeseries
