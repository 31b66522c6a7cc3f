package timeseries

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldOptions() *CSVOptions {
	opts := DefaultCSVOptions()
	opts.Source = "gold.csv"
	opts.ValueColumns = []string{"Close", "Volume"}
	return opts
}

func TestReadFrame(t *testing.T) {
	csvData := `Date,Open,Close,Volume
01/02/1990,400.1,401.5,1200
01/03/1990,401.5,402.0,"1,350"
01/04/1990,402.0,null,900`

	frame, err := ReadFrame(strings.NewReader(csvData), goldOptions())
	require.NoError(t, err)

	require.Equal(t, 3, frame.Len())
	assert.Equal(t, []string{"01/02/1990", "01/03/1990", "01/04/1990"}, frame.Keys)
	assert.Equal(t, 401.5, frame.Column("Close")[0])
	assert.Equal(t, 1350.0, frame.Column("Volume")[1])
	assert.True(t, math.IsNaN(frame.Column("Close")[2]), "null must load as missing")
	assert.Equal(t, []int{2, 3, 4}, frame.Lines)

	v, ok := frame.Lookup("01/03/1990", "Close")
	assert.True(t, ok)
	assert.Equal(t, 402.0, v)

	_, ok = frame.Lookup("01/05/1990", "Close")
	assert.False(t, ok)
}

func TestReadFrameMalformedNumber(t *testing.T) {
	csvData := `Date,Close,Volume
01/02/1990,401.5,1200
01/03/1990,abc,1300`

	_, err := ReadFrame(strings.NewReader(csvData), goldOptions())
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "gold.csv", perr.Source)
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, "Close", perr.Column)
	assert.Equal(t, "abc", perr.Value)
}

func TestReadFrameMissingColumn(t *testing.T) {
	_, err := ReadFrame(strings.NewReader("Date,Close\n01/02/1990,1\n"), goldOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "Volume"`)
}

func TestReadFrameDuplicateKeysKeepFirst(t *testing.T) {
	csvData := `Date,Close,Volume
01/02/1990,1,10
01/02/1990,2,20`

	frame, err := ReadFrame(strings.NewReader(csvData), goldOptions())
	require.NoError(t, err)
	require.Equal(t, 1, frame.Len())
	assert.Equal(t, 1.0, frame.Column("Close")[0])
}

func TestReadFrameCustomKeyAndDelimiter(t *testing.T) {
	opts := DefaultCSVOptions()
	opts.KeyColumn = "date"
	opts.Delimiter = ';'
	opts.ValueColumns = []string{"News.Sentiment"}

	frame, err := ReadFrame(strings.NewReader("date;News.Sentiment\n1990-01-02;-0.12\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.12}, frame.Column("News.Sentiment"))
}

func TestLoadFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vix.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Close\n01/02/1990,17.24\n"), 0o644))

	opts := DefaultCSVOptions()
	opts.ValueColumns = []string{"Close"}
	frame, err := LoadFrame(path, opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{17.24}, frame.Column("Close"))

	_, err = LoadFrame(filepath.Join(t.TempDir(), "absent.csv"), opts)
	assert.Error(t, err)
}
