package hive

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mockpresto "github.com/iwatch-health/health-pipeline/pkg/presto/mock"
)

func TestGenerateCreateTableSQL(t *testing.T) {
	tests := map[string]struct {
		params       TableParameters
		ignoreExists bool
		expected     string
	}{
		"external-parquet": {
			params: TableParameters{
				Database: "health",
				Name:     "heart",
				Columns: []Column{
					{Name: "created_at", Type: "timestamp"},
					{Name: "avg_heart_rate", Type: "double"},
				},
				Location:        "s3://bucket/transformed_parquet/heart/",
				FileFormat:      "PARQUET",
				TableProperties: map[string]string{"parquet.compression": "SNAPPY", "classification": "parquet"},
				External:        true,
			},
			ignoreExists: true,
			expected:     "CREATE EXTERNAL TABLE IF NOT EXISTS `health`.`heart` (`created_at` timestamp, `avg_heart_rate` double) STORED AS PARQUET LOCATION 's3://bucket/transformed_parquet/heart/' TBLPROPERTIES ('classification'='parquet', 'parquet.compression'='SNAPPY')",
		},
		"managed-partitioned": {
			params: TableParameters{
				Name:          "step",
				Columns:       []Column{{Name: "total_steps", Type: "double"}},
				PartitionedBy: []Column{{Name: "year", Type: "bigint"}},
			},
			expected: "CREATE TABLE `step` (`total_steps` double) PARTITIONED BY (`year` bigint)",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, generateCreateTableSQL(tt.params, tt.ignoreExists))
		})
	}
}

func TestGenerateDatabaseAndDropSQL(t *testing.T) {
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS `health`", generateCreateDatabaseSQL(DatabaseParameters{Name: "health"}, true))
	assert.Equal(t, "CREATE DATABASE `health` LOCATION 's3://b/'", generateCreateDatabaseSQL(DatabaseParameters{Name: "health", Location: "s3://b/"}, false))
	assert.Equal(t, "DROP TABLE IF EXISTS `health`.`heart`", generateDropTableSQL("health", "heart", true))
}

func TestS3Location(t *testing.T) {
	tests := map[string]struct {
		bucket, prefix string
		expected       string
		expectError    bool
	}{
		"prefix":         {bucket: "bucket", prefix: "transformed_parquet/heart", expected: "s3://bucket/transformed_parquet/heart/"},
		"trailing-slash": {bucket: "bucket", prefix: "transformed_parquet/heart/", expected: "s3://bucket/transformed_parquet/heart/"},
		"no-prefix":      {bucket: "bucket", expected: "s3://bucket/"},
		"missing-bucket": {prefix: "x", expectError: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			loc, err := S3Location(tt.bucket, tt.prefix)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, loc)
		})
	}
}

func TestExecuteCreateTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	execer := mockpresto.NewMockExecQueryer(ctrl)
	ctx := context.Background()
	execer.EXPECT().Exec(ctx, "CREATE EXTERNAL TABLE IF NOT EXISTS `health`.`resp` (`avg_resp_rate` double) STORED AS PARQUET LOCATION 's3://b/resp/'").Return(nil)

	err := ExecuteCreateTable(ctx, execer, TableParameters{
		Database:   "health",
		Name:       "resp",
		Columns:    []Column{{Name: "avg_resp_rate", Type: "double"}},
		Location:   "s3://b/resp/",
		FileFormat: "PARQUET",
		External:   true,
	}, true)
	require.NoError(t, err)
}
