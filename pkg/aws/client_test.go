package aws

import (
	"context"
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatch-health/health-pipeline/pkg/aws/awstest"
)

var testLogger = logrus.New()

func TestS3StoreRoundTrip(t *testing.T) {
	mock := awstest.NewMockS3()
	mock.NewBucket("processed")
	store := NewS3Store(mock, testLogger)
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "processed", "processed/Heart_Data.csv", "text/csv", []byte("created_at,value\n")))
	require.NoError(t, store.PutObject(ctx, "processed", "processed/Step_Data.csv", "text/csv", []byte("created_at,count\n")))
	require.NoError(t, store.PutObject(ctx, "processed", "other/file", "", []byte("x")))

	body, err := store.GetObject(ctx, "processed", "processed/Heart_Data.csv")
	require.NoError(t, err)
	defer body.Close()
	data, err := ioutil.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "created_at,value\n", string(data))

	keys, err := store.ListKeys(ctx, "processed", "processed/")
	require.NoError(t, err)
	assert.Equal(t, []string{"processed/Heart_Data.csv", "processed/Step_Data.csv"}, keys)
}

func TestS3StoreMissingObject(t *testing.T) {
	mock := awstest.NewMockS3()
	mock.NewBucket("raw")
	store := NewS3Store(mock, testLogger)

	_, err := store.GetObject(context.Background(), "raw", "export.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.xml")
}

func TestURI(t *testing.T) {
	assert.Equal(t, "s3://bucket/transformed_parquet/heart/", URI("bucket", "/transformed_parquet/heart/"))
}
