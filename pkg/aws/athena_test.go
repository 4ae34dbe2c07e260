package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatch-health/health-pipeline/pkg/aws/awstest"
	"github.com/iwatch-health/health-pipeline/pkg/presto"
)

var heartColumns = []*athena.ColumnInfo{
	{Name: aws.String("created_at"), Label: aws.String("created_at"), Type: aws.String("timestamp")},
	{Name: aws.String("avg_heart_rate"), Label: aws.String("avg_heart_rate"), Type: aws.String("double")},
	{Name: aws.String("year"), Label: aws.String("year"), Type: aws.String("bigint")},
}

func TestAthenaQueryerQuery(t *testing.T) {
	mock := &awstest.MockAthena{
		States: []string{athena.QueryExecutionStateQueued, athena.QueryExecutionStateRunning, athena.QueryExecutionStateSucceeded},
		ResultPages: []*athena.GetQueryResultsOutput{
			awstest.ResultPage(heartColumns,
				[]*string{aws.String("created_at"), aws.String("avg_heart_rate"), aws.String("year")},
				[]*string{aws.String("2023-04-01 00:00:00.000"), aws.String("71.5"), aws.String("2023")},
			),
			awstest.ResultPage(heartColumns,
				[]*string{aws.String("2023-04-02 00:00:00.000"), nil, aws.String("2023")},
			),
		},
	}
	q := NewAthenaQueryer(mock, AthenaConfig{
		Database:       "health",
		Workgroup:      "primary",
		OutputLocation: "s3://athena-results/",
		PollInterval:   time.Millisecond,
	}, testLogger)

	rows, err := q.Query(context.Background(), "SELECT * FROM heart")
	require.NoError(t, err)
	assert.Equal(t, []presto.Row{
		{"created_at": time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), "avg_heart_rate": 71.5, "year": int64(2023)},
		{"created_at": time.Date(2023, 4, 2, 0, 0, 0, 0, time.UTC), "avg_heart_rate": nil, "year": int64(2023)},
	}, rows)

	require.Len(t, mock.Queries, 1)
	started := mock.Queries[0]
	assert.Equal(t, "SELECT * FROM heart", aws.StringValue(started.QueryString))
	assert.Equal(t, "health", aws.StringValue(started.QueryExecutionContext.Database))
	assert.Equal(t, "primary", aws.StringValue(started.WorkGroup))
	assert.Equal(t, "s3://athena-results/", aws.StringValue(started.ResultConfiguration.OutputLocation))
}

func TestAthenaQueryerFailedQuery(t *testing.T) {
	mock := &awstest.MockAthena{
		States: []string{athena.QueryExecutionStateFailed},
		Reason: "Table health.heart does not exist",
	}
	q := NewAthenaQueryer(mock, AthenaConfig{PollInterval: time.Millisecond}, testLogger)

	err := q.Exec(context.Background(), "SELECT * FROM heart")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestAthenaQueryerStopsOnCancel(t *testing.T) {
	mock := &awstest.MockAthena{
		States: []string{athena.QueryExecutionStateRunning},
	}
	q := NewAthenaQueryer(mock, AthenaConfig{PollInterval: time.Millisecond}, testLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Exec(ctx, "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, []string{"query-1"}, mock.Stopped)
}

func TestConvertAthenaValue(t *testing.T) {
	tests := map[string]struct {
		colType     string
		input       string
		expected    interface{}
		expectError bool
	}{
		"bigint":         {colType: "bigint", input: "42", expected: int64(42)},
		"double":         {colType: "double", input: "7.25", expected: 7.25},
		"boolean":        {colType: "boolean", input: "true", expected: true},
		"varchar":        {colType: "varchar", input: "heart", expected: "heart"},
		"date":           {colType: "date", input: "2023-04-01", expected: time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)},
		"timestamp-secs": {colType: "timestamp", input: "2023-04-01 10:11:12", expected: time.Date(2023, 4, 1, 10, 11, 12, 0, time.UTC)},
		"bad-integer":    {colType: "integer", input: "x", expectError: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			val, err := convertAthenaValue(tt.colType, tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, val)
		})
	}
}
