package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/glue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwatch-health/health-pipeline/pkg/aws/awstest"
)

func TestCrawlerCrawl(t *testing.T) {
	tests := map[string]struct {
		mock        *awstest.MockGlue
		crawler     string
		expectError string
		starts      int
	}{
		"succeeds": {
			mock:    &awstest.MockGlue{Name: "health-crawler", RunningPolls: 3},
			crawler: "health-crawler",
			starts:  1,
		},
		"already-running": {
			mock:    &awstest.MockGlue{Name: "health-crawler", RunningPolls: 1, AlreadyRunning: true},
			crawler: "health-crawler",
			starts:  0,
		},
		"crawl-failed": {
			mock:        &awstest.MockGlue{Name: "health-crawler", FinalStatus: glue.LastCrawlStatusFailed, ErrorMessage: "access denied"},
			crawler:     "health-crawler",
			expectError: "access denied",
			starts:      1,
		},
		"unknown-crawler": {
			mock:        &awstest.MockGlue{Name: "health-crawler"},
			crawler:     "missing",
			expectError: "unable to get crawler missing",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := NewCrawler(tt.mock, tt.crawler, time.Millisecond, testLogger)
			err := c.Crawl(context.Background())
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.starts, tt.mock.Starts)
		})
	}
}
