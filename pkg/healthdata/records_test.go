package healthdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := map[string]struct {
		input       string
		expected    time.Time
		expectError bool
	}{
		"export-layout": {
			input:    "2023-04-01 23:31:12 -0700",
			expected: time.Date(2023, 4, 1, 23, 31, 12, 0, time.FixedZone("", -7*60*60)),
		},
		"rfc3339": {
			input:    "2023-04-01T10:00:00Z",
			expected: time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC),
		},
		"date-only": {
			input:    "2023-04-01",
			expected: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		"empty": {
			input:       "  ",
			expectError: true,
		},
		"garbage": {
			input:       "yesterday",
			expectError: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(ts), "expected %s, got %s", tt.expected, ts)
		})
	}
}

func TestDayOfKeepsLocalDate(t *testing.T) {
	// 23:31 at -0700 is already the next day in UTC; the record belongs to
	// the day the watch saw.
	ts, err := ParseTimestamp("2023-04-01 23:31:12 -0700")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), DayOf(ts))
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" Heart ")
	require.NoError(t, err)
	assert.Equal(t, Heart, m)

	_, err = ParseMetric("weight")
	assert.Error(t, err)

	def, ok := LookupRecordType("HKQuantityTypeIdentifierStepCount")
	require.True(t, ok)
	assert.Equal(t, Step, def.Metric)
	assert.Equal(t, "Step_Data.csv", def.CSVFile)
}
