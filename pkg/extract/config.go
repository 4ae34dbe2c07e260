package extract

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultRawBucket       = "iwatch-healthdata-raw"
	DefaultRawKey          = "iwatch_health_export/export.xml"
	DefaultProcessedBucket = "iwatch-healthdata-csv"
	DefaultProcessedPrefix = "processed"
)

// Config locates the raw export and the processed zone.
type Config struct {
	RawBucket       string
	RawKey          string
	ProcessedBucket string
	ProcessedPrefix string
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RawBucket, validation.Required),
		validation.Field(&c.RawKey, validation.Required),
		validation.Field(&c.ProcessedBucket, validation.Required),
	)
}
