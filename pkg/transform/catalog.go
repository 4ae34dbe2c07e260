package transform

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/iwatch-health/health-pipeline/pkg/columnar"
	"github.com/iwatch-health/health-pipeline/pkg/healthdata"
	"github.com/iwatch-health/health-pipeline/pkg/hive"
	"github.com/iwatch-health/health-pipeline/pkg/presto"
)

// Catalog makes the datasets in the transformed zone queryable.
type Catalog interface {
	Register(ctx context.Context, defs []healthdata.Definition) error
}

// Crawler is satisfied by *aws.Crawler.
type Crawler interface {
	Crawl(ctx context.Context) error
}

type crawlerCatalog struct {
	crawler Crawler
	logger  log.FieldLogger
}

// NewCrawlerCatalog registers datasets by running a crawler over the whole
// transformed zone.
func NewCrawlerCatalog(crawler Crawler, logger log.FieldLogger) Catalog {
	return &crawlerCatalog{crawler: crawler, logger: logger}
}

func (c *crawlerCatalog) Register(ctx context.Context, defs []healthdata.Definition) error {
	c.logger.Infof("crawling transformed zone for %d datasets", len(defs))
	if err := c.crawler.Crawl(ctx); err != nil {
		return fmt.Errorf("catalog crawl failed: %v", err)
	}
	return nil
}

type ddlCatalog struct {
	execer   presto.Execer
	database string
	bucket   string
	prefix   string
	logger   log.FieldLogger
}

// NewDDLCatalog registers datasets by creating an external Parquet table per
// metric through execer.
func NewDDLCatalog(execer presto.Execer, database, bucket, prefix string, logger log.FieldLogger) Catalog {
	return &ddlCatalog{
		execer:   execer,
		database: database,
		bucket:   bucket,
		prefix:   prefix,
		logger:   logger,
	}
}

func (c *ddlCatalog) Register(ctx context.Context, defs []healthdata.Definition) error {
	if err := hive.ExecuteCreateDatabase(ctx, c.execer, hive.DatabaseParameters{Name: c.database}); err != nil {
		return fmt.Errorf("unable to create database %s: %v", c.database, err)
	}
	for _, def := range defs {
		params, err := TableParameters(c.database, c.bucket, c.prefix, def)
		if err != nil {
			return err
		}
		c.logger.Infof("creating table %s.%s at %s", c.database, params.Name, params.Location)
		if err := hive.ExecuteCreateTable(ctx, c.execer, params, true); err != nil {
			return fmt.Errorf("unable to create table %s.%s: %v", c.database, params.Name, err)
		}
	}
	return nil
}

// TableParameters describes the external table over the dataset of def.
func TableParameters(database, bucket, prefix string, def healthdata.Definition) (hive.TableParameters, error) {
	location, err := hive.S3Location(bucket, columnar.DatasetPrefix(prefix, def))
	if err != nil {
		return hive.TableParameters{}, err
	}
	var columns []hive.Column
	for _, col := range columnar.CatalogColumns(def) {
		columns = append(columns, hive.Column{Name: col.Name, Type: col.Type})
	}
	return hive.TableParameters{
		Database:   database,
		Name:       string(def.Metric),
		Columns:    columns,
		Location:   location,
		FileFormat: "PARQUET",
		TableProperties: map[string]string{
			"classification":      "parquet",
			"parquet.compression": "SNAPPY",
		},
		External: true,
	}, nil
}

type noopCatalog struct {
	logger log.FieldLogger
}

func (c noopCatalog) Register(context.Context, []healthdata.Definition) error {
	c.logger.Infof("catalog registration disabled")
	return nil
}
