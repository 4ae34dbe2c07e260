package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregateHeart(t *testing.T) {
	tests := map[string]struct {
		records  []*healthdata.QuantityRecord
		expected []healthdata.DailyValue
	}{
		"mean-within-bounds": {
			records: []*healthdata.QuantityRecord{
				{CreatedAt: "2023-04-01 07:00:00 -0700", Value: "60"},
				{CreatedAt: "2023-04-01 23:30:00 -0700", Value: "80"},
				{CreatedAt: "2023-04-01 08:00:00 -0700", Value: "29.9"},
				{CreatedAt: "2023-04-01 09:00:00 -0700", Value: "221"},
				{CreatedAt: "2023-04-01 10:00:00 -0700", Value: "abc"},
			},
			expected: []healthdata.DailyValue{{Date: day(2023, time.April, 1), Value: 70}},
		},
		"inclusive-bounds": {
			records: []*healthdata.QuantityRecord{
				{CreatedAt: "2023-04-02 07:00:00 -0700", Value: "30"},
				{CreatedAt: "2023-04-02 07:00:00 -0700", Value: "220"},
			},
			expected: []healthdata.DailyValue{{Date: day(2023, time.April, 2), Value: 125}},
		},
		"non-finite-dropped": {
			records: []*healthdata.QuantityRecord{
				{CreatedAt: "2023-04-01 07:00:00 -0700", Value: "60"},
				{CreatedAt: "2023-04-01 08:00:00 -0700", Value: "NaN"},
				{CreatedAt: "2023-04-01 09:00:00 -0700", Value: "Inf"},
				{CreatedAt: "2023-04-01 10:00:00 -0700", Value: "-Inf"},
			},
			expected: []healthdata.DailyValue{{Date: day(2023, time.April, 1), Value: 60}},
		},
		"bad-timestamps-dropped": {
			records: []*healthdata.QuantityRecord{
				{CreatedAt: "", Value: "70"},
				{CreatedAt: "yesterday", Value: "70"},
			},
			expected: []healthdata.DailyValue{},
		},
		"sorted-by-day": {
			records: []*healthdata.QuantityRecord{
				{CreatedAt: "2023-04-03 07:00:00 -0700", Value: "70"},
				{CreatedAt: "2023-04-01 07:00:00 -0700", Value: "50"},
			},
			expected: []healthdata.DailyValue{
				{Date: day(2023, time.April, 1), Value: 50},
				{Date: day(2023, time.April, 3), Value: 70},
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AggregateHeart(tt.records))
		})
	}
}

func TestAggregateResp(t *testing.T) {
	records := []*healthdata.CountRecord{
		{CreatedAt: "2023-04-01 01:00:00 -0700", Count: "8"},
		{CreatedAt: "2023-04-01 02:00:00 -0700", Count: "16"},
		{CreatedAt: "2023-04-01 03:00:00 -0700", Count: "7.5"},
		{CreatedAt: "2023-04-01 04:00:00 -0700", Count: "41"},
		{CreatedAt: "2023-04-02 04:00:00 -0700", Count: "40"},
		{CreatedAt: "2023-04-02 05:00:00 -0700", Count: "NaN"},
	}
	assert.Equal(t, []healthdata.DailyValue{
		{Date: day(2023, time.April, 1), Value: 12},
		{Date: day(2023, time.April, 2), Value: 40},
	}, AggregateResp(records))
}

func TestAggregateSleep(t *testing.T) {
	records := []*healthdata.SleepRecord{
		{CreatedAt: "2023-04-02 07:00:00 -0700", StartDate: "2023-04-01 23:00:00 -0700", EndDate: "2023-04-02 06:30:00 -0700"},
		{CreatedAt: "2023-04-02 07:05:00 -0700", StartDate: "2023-04-02 06:40:00 -0700", EndDate: "2023-04-02 07:00:00 -0700"},
		// zero length and reversed sessions are dropped
		{CreatedAt: "2023-04-02 07:10:00 -0700", StartDate: "2023-04-02 06:40:00 -0700", EndDate: "2023-04-02 06:40:00 -0700"},
		{CreatedAt: "2023-04-02 07:10:00 -0700", StartDate: "2023-04-02 06:40:00 -0700", EndDate: "2023-04-02 05:00:00 -0700"},
		{CreatedAt: "2023-04-02 07:10:00 -0700", StartDate: "", EndDate: "2023-04-02 05:00:00 -0700"},
	}
	assert.Equal(t, []healthdata.DailyValue{
		{Date: day(2023, time.April, 2), Value: 470},
	}, AggregateSleep(records))
}

func TestAggregateSteps(t *testing.T) {
	records := []*healthdata.CountRecord{
		{CreatedAt: "2023-04-01 09:00:00 -0700", Count: "1200"},
		{CreatedAt: "2023-04-01 12:00:00 -0700", Count: "100000"},
		{CreatedAt: "2023-04-01 13:00:00 -0700", Count: "100001"},
		{CreatedAt: "2023-04-01 14:00:00 -0700", Count: "n/a"},
		{CreatedAt: "2023-04-01 15:00:00 -0700", Count: "NaN"},
		{CreatedAt: "2023-04-01 16:00:00 -0700", Count: "-Inf"},
	}
	assert.Equal(t, []healthdata.DailyValue{
		{Date: day(2023, time.April, 1), Value: 101200},
	}, AggregateSteps(records))
}
