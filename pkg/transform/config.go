package transform

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultProcessedBucket   = "iwatch-healthdata-csv"
	DefaultProcessedPrefix   = "processed"
	DefaultTransformedBucket = "iwatch-healthdatatransform-parquet"
	DefaultTransformedPrefix = "transformed_parquet"

	CatalogGlue   = "glue"
	CatalogAthena = "athena"
	CatalogNone   = "none"
)

type Config struct {
	ProcessedBucket   string
	ProcessedPrefix   string
	TransformedBucket string
	TransformedPrefix string

	Catalog string
	// CrawlerName is the Glue crawler indexing the transformed zone.
	CrawlerName string
	// Database is the Athena database the tables are created in.
	Database string
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ProcessedBucket, validation.Required),
		validation.Field(&c.TransformedBucket, validation.Required),
		validation.Field(&c.Catalog, validation.Required, validation.In(CatalogGlue, CatalogAthena, CatalogNone).Error(
			fmt.Sprintf("must be one of %s, %s, %s", CatalogGlue, CatalogAthena, CatalogNone))),
		validation.Field(&c.CrawlerName, validation.When(c.Catalog == CatalogGlue, validation.Required)),
		validation.Field(&c.Database, validation.When(c.Catalog == CatalogAthena, validation.Required)),
	)
}
