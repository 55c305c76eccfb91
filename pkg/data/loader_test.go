package data

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var textCols = []string{
	"CarName", "fueltype", "aspiration", "doornumber", "carbody", "drivewheel",
	"enginelocation", "enginetype", "cylindernumber", "fuelsystem",
}

func TestLoadCSVFixture(t *testing.T) {
	records, err := LoadCSV("testdata/cars.csv", textCols)
	require.NoError(t, err)
	require.Len(t, records, 20)

	first := records[0]
	assert.Equal(t, "alfa-romero giulia", first.Text["CarName"])
	assert.Equal(t, "four", first.Text["cylindernumber"])
	assert.Equal(t, 130.0, first.Values["enginesize"])
	assert.Equal(t, 13495.0, first.Values["price"])
	assert.Equal(t, 1.0, first.Values["car_ID"])
}

func TestReadCSVRejectsNonNumeric(t *testing.T) {
	in := "CarName,horsepower\ntoyota corolla,lots\n"
	_, err := ReadCSV(strings.NewReader(in), []string{"CarName"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "horsepower"`)
}

func TestRecordCloneDoesNotAlias(t *testing.T) {
	r := NewRecord()
	r.Text["a"] = "x"
	r.Values["b"] = 1

	c := r.Clone()
	c.Text["a"] = "y"
	c.Values["b"] = 2

	assert.Equal(t, "x", r.Text["a"])
	assert.Equal(t, 1.0, r.Values["b"])
	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("missing"))
	assert.Equal(t, []string{"a", "b"}, c.Columns())
}

func TestWriteCSV(t *testing.T) {
	r := NewRecord()
	r.Text["brand"] = "toyota"
	r.Values["horsepower"] = 111

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []string{"brand", "horsepower", "absent"}, []Record{r}))
	assert.Equal(t, "brand,horsepower,absent\ntoyota,111.000000,\n", buf.String())
}
