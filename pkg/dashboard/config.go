package dashboard

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	QueryEngineAthena = "athena"
	QueryEnginePresto = "presto"
	QueryEngineS3     = "s3"

	DefaultListenAddr = ":8501"
	DefaultCacheTTL   = 10 * time.Minute
)

type Config struct {
	ListenAddr  string
	QueryEngine string
	// Database holds the catalog tables read by the athena and presto
	// engines.
	Database          string
	TransformedBucket string
	TransformedPrefix string
	CacheTTL          time.Duration
	ShutdownTimeout   time.Duration
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.QueryEngine, validation.Required, validation.In(QueryEngineAthena, QueryEnginePresto, QueryEngineS3)),
		validation.Field(&c.Database, validation.When(c.QueryEngine != QueryEngineS3, validation.Required)),
		validation.Field(&c.TransformedBucket, validation.When(c.QueryEngine == QueryEngineS3, validation.Required)),
		validation.Field(&c.CacheTTL, validation.Min(time.Duration(0))),
	)
}
