package hive

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/iwatch-health/health-pipeline/pkg/presto"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type TableParameters struct {
	Database      string   `json:"database,omitempty"`
	Name          string   `json:"name"`
	Columns       []Column `json:"columns"`
	PartitionedBy []Column `json:"partitionedBy,omitempty"`

	Location        string            `json:"location,omitempty"`
	FileFormat      string            `json:"fileFormat,omitempty"`
	TableProperties map[string]string `json:"tableProperties,omitempty"`
	External        bool              `json:"external,omitempty"`
}

type DatabaseParameters struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// ExecuteCreateDatabase runs CREATE DATABASE IF NOT EXISTS through execer,
// which is expected to accept Hive DDL (Athena does).
func ExecuteCreateDatabase(ctx context.Context, execer presto.Execer, params DatabaseParameters) error {
	return execer.Exec(ctx, generateCreateDatabaseSQL(params, true))
}

func ExecuteCreateTable(ctx context.Context, execer presto.Execer, params TableParameters, ignoreExists bool) error {
	return execer.Exec(ctx, generateCreateTableSQL(params, ignoreExists))
}

func ExecuteDropTable(ctx context.Context, execer presto.Execer, dbName, tableName string, ignoreNotExists bool) error {
	return execer.Exec(ctx, generateDropTableSQL(dbName, tableName, ignoreNotExists))
}

// S3Location returns the s3:// table location for a bucket and prefix, always
// with a trailing slash.
func S3Location(bucket, prefix string) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("bucket cannot be empty")
	}
	bucket = path.Join(bucket, prefix)
	// Ensure the bucket URL has a trailing slash
	if bucket[len(bucket)-1] != '/' {
		bucket = bucket + "/"
	}
	location := "s3://" + bucket

	locationURL, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return locationURL.String(), nil
}
