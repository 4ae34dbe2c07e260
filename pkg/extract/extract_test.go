package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatch-health/health-pipeline/pkg/aws"
	"github.com/iwatch-health/health-pipeline/pkg/aws/awstest"
	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
)

var testLogger = logrus.New()

const testExport = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="en_US">
 <ExportDate value="2023-04-02 10:00:00 -0700"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" creationDate="2023-04-01 07:31:12 -0700" startDate="2023-04-01 07:30:00 -0700" endDate="2023-04-01 07:30:00 -0700" value="62"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" creationDate="2023-04-01 08:00:00 -0700"/>
 <Record type="HKQuantityTypeIdentifierStepCount" creationDate="2023-04-01 09:00:00 -0700" value="1200">
  <MetadataEntry key="HKWasUserEntered" value="1"/>
 </Record>
 <Record type="HKCategoryTypeIdentifierSleepAnalysis" creationDate="2023-04-02 07:00:00 -0700" startDate="2023-04-01 23:00:00 -0700" endDate="2023-04-02 06:30:00 -0700" value="HKCategoryValueSleepAnalysisAsleep"/>
 <Record type="HKQuantityTypeIdentifierBodyMass" creationDate="2023-04-01 07:00:00 -0700" value="70"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeWalking"/>
</HealthData>
`

func TestParse(t *testing.T) {
	records, err := Parse(context.Background(), strings.NewReader(testExport), testLogger)
	require.NoError(t, err)

	assert.Equal(t, []*healthdata.QuantityRecord{
		{CreatedAt: "2023-04-01 07:31:12 -0700", Value: "62"},
		{CreatedAt: "2023-04-01 08:00:00 -0700", Value: "0"},
	}, records.Heart)
	assert.Equal(t, []*healthdata.CountRecord{
		{CreatedAt: "2023-04-01 09:00:00 -0700", Count: "1200"},
	}, records.Step)
	assert.Equal(t, []*healthdata.SleepRecord{
		{CreatedAt: "2023-04-02 07:00:00 -0700", StartDate: "2023-04-01 23:00:00 -0700", EndDate: "2023-04-02 06:30:00 -0700"},
	}, records.Sleep)
	assert.Empty(t, records.Resp)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader(`<HealthData><Record type="x"></HealthData>`), testLogger)
	require.Error(t, err)
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := Parse(ctx, strings.NewReader(testExport), testLogger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, records)
}

func TestMarshalCSVEmptyWritesHeader(t *testing.T) {
	tests := map[string]struct {
		metric   healthdata.Metric
		expected string
	}{
		"heart": {metric: healthdata.Heart, expected: "created_at,value\n"},
		"sleep": {metric: healthdata.Sleep, expected: "created_at,start_date,end_date\n"},
		"step":  {metric: healthdata.Step, expected: "created_at,count\n"},
		"resp":  {metric: healthdata.Resp, expected: "created_at,count\n"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := MarshalCSV(tt.metric, &Records{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func newTestExtractor(mock *awstest.MockS3) *Extractor {
	return New(testLogger, aws.NewS3Store(mock, testLogger), Config{
		RawBucket:       DefaultRawBucket,
		RawKey:          DefaultRawKey,
		ProcessedBucket: DefaultProcessedBucket,
		ProcessedPrefix: DefaultProcessedPrefix,
	})
}

func TestExtractorRun(t *testing.T) {
	mock := awstest.NewMockS3()
	mock.NewBucket(DefaultRawBucket)
	mock.NewBucket(DefaultProcessedBucket)
	mock.Put(DefaultRawBucket, DefaultRawKey, []byte(testExport))

	require.NoError(t, newTestExtractor(mock).Run(context.Background()))

	heart, ok := mock.Object(DefaultProcessedBucket, "processed/Heart_Data.csv")
	require.True(t, ok)
	assert.Equal(t, "created_at,value\n2023-04-01 07:31:12 -0700,62\n2023-04-01 08:00:00 -0700,0\n", string(heart))

	steps, ok := mock.Object(DefaultProcessedBucket, "processed/Step_Data.csv")
	require.True(t, ok)
	assert.Equal(t, "created_at,count\n2023-04-01 09:00:00 -0700,1200\n", string(steps))

	resp, ok := mock.Object(DefaultProcessedBucket, "processed/Resp_Data.csv")
	require.True(t, ok)
	assert.Equal(t, "created_at,count\n", string(resp))

	_, ok = mock.Object(DefaultProcessedBucket, "processed/Sleep_Data.csv")
	assert.True(t, ok)
}

func TestExtractorRunMissingExport(t *testing.T) {
	mock := awstest.NewMockS3()
	mock.NewBucket(DefaultRawBucket)
	mock.NewBucket(DefaultProcessedBucket)

	err := newTestExtractor(mock).Run(context.Background())
	require.Error(t, err)
	_, ok := mock.Object(DefaultProcessedBucket, "processed/Heart_Data.csv")
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{RawKey: DefaultRawKey, ProcessedBucket: DefaultProcessedBucket}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RawBucket")
}
