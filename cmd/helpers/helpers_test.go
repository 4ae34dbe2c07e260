package helpers

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setenv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("raw-bucket", "iwatch-healthdata-raw", "")
	fs.String("aws-endpoint", "", "")
	fs.Duration("cache-ttl", 0, "")
	return fs
}

func TestSetFlagsFromEnv(t *testing.T) {
	setenv(t, "HEALTH_PIPELINE_RAW_BUCKET", "from-env")
	setenv(t, "HEALTH_PIPELINE_AWS_ENDPOINT", "http://localhost:4566")
	setenv(t, "HEALTH_PIPELINE_CACHE_TTL", "5m")

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--aws-endpoint=http://minio:9000"}))
	require.NoError(t, SetFlagsFromEnv(fs, "HEALTH_PIPELINE"))

	bucket, _ := fs.GetString("raw-bucket")
	assert.Equal(t, "from-env", bucket)
	endpoint, _ := fs.GetString("aws-endpoint")
	assert.Equal(t, "http://minio:9000", endpoint, "flags on the command line win")
	ttl, _ := fs.GetDuration("cache-ttl")
	assert.Equal(t, "5m0s", ttl.String())
}

func TestSetFlagsFromEnvInvalidValue(t *testing.T) {
	setenv(t, "HEALTH_PIPELINE_CACHE_TTL", "soon")

	err := SetFlagsFromEnv(newFlagSet(), "HEALTH_PIPELINE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEALTH_PIPELINE_CACHE_TTL")
}

func TestMapEnvVarToFlag(t *testing.T) {
	setenv(t, "AWS_ENDPOINT_URL", "http://localhost:4566")

	fs := newFlagSet()
	require.NoError(t, MapEnvVarToFlag(map[string]string{"AWS_ENDPOINT_URL": "aws-endpoint"}, fs))
	endpoint, _ := fs.GetString("aws-endpoint")
	assert.Equal(t, "http://localhost:4566", endpoint)

	err := MapEnvVarToFlag(map[string]string{"AWS_ENDPOINT_URL": "no-such-flag"}, fs)
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	logger, err := SetupLogger("debug", log.Fields{"app": "health-pipeline"})
	require.NoError(t, err)
	entry, ok := logger.(*log.Entry)
	require.True(t, ok)
	assert.Equal(t, log.DebugLevel, entry.Logger.Level)
	assert.Equal(t, "health-pipeline", entry.Data["app"])

	_, err = SetupLogger("loud", nil)
	assert.Error(t, err)
}
