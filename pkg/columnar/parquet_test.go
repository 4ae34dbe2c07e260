package columnar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEncodeDecode(t *testing.T) {
	def, ok := healthdata.Lookup(healthdata.Step)
	require.True(t, ok)
	rows := []healthdata.DailyValue{
		{Date: day(2023, time.April, 1), Value: 8123},
		{Date: day(2023, time.April, 2), Value: 1500.5},
	}

	data, err := Encode(def, rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "PAR1", string(data[:4]))

	decoded, err := Decode(context.Background(), def, data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	for i := range rows {
		assert.True(t, rows[i].Date.Equal(decoded[i].Date), "row %d date", i)
		assert.Equal(t, rows[i].Value, decoded[i].Value)
	}
}

func TestDecodeWrongMetric(t *testing.T) {
	heart, _ := healthdata.Lookup(healthdata.Heart)
	sleep, _ := healthdata.Lookup(healthdata.Sleep)

	data, err := Encode(heart, []healthdata.DailyValue{{Date: day(2023, time.May, 3), Value: 70}})
	require.NoError(t, err)

	_, err = Decode(context.Background(), sleep, data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_sleep_minutes")
}

func TestSchemaColumns(t *testing.T) {
	def, _ := healthdata.Lookup(healthdata.Resp)
	schema := Schema(def)
	cols := CatalogColumns(def)
	require.Len(t, cols, len(schema.Fields()))
	for i, f := range schema.Fields() {
		assert.Equal(t, f.Name, cols[i].Name)
	}
}

func TestDatasetLayout(t *testing.T) {
	def, _ := healthdata.Lookup(healthdata.Sleep)
	assert.Equal(t, "transformed_parquet/sleep/", DatasetPrefix("transformed_parquet", def))
	assert.Equal(t, "transformed_parquet/sleep/sleep.parquet", DatasetKey("transformed_parquet", def))
	assert.Equal(t, "sleep/sleep.parquet", DatasetKey("", def))
}
