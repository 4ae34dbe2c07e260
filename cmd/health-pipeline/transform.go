package main

import (
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iwatch-health/health-pipeline/pkg/aws"
	"github.com/iwatch-health/health-pipeline/pkg/transform"
)

const (
	defaultCrawlerName = "iwatch-healthdata-crawler"
	defaultAthenaDB    = "iwatch_health"
	defaultAthenaPoll  = 500 * time.Millisecond
	defaultCrawlerPoll = 10 * time.Second
)

var (
	transformCfg      transform.Config
	crawlPollInterval time.Duration
	athenaCfg         aws.AthenaConfig
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "aggregates the CSV files into daily Parquet datasets and registers them with the catalog",
	Args:  cobra.NoArgs,
	Run:   runTransform,
}

func addAthenaFlags(fs *pflag.FlagSet) {
	fs.StringVar(&athenaCfg.Database, "athena-database", defaultAthenaDB, "Athena/Glue database holding the metric tables")
	fs.StringVar(&athenaCfg.Workgroup, "athena-workgroup", "", "Athena workgroup, the primary workgroup when empty")
	fs.StringVar(&athenaCfg.OutputLocation, "athena-output-location", "", "s3:// prefix for Athena query results, may be empty if the workgroup sets one")
	fs.DurationVar(&athenaCfg.PollInterval, "athena-poll-interval", defaultAthenaPoll, "how often running Athena queries are polled")
}

func init() {
	transformCmd.Flags().StringVar(&transformCfg.ProcessedBucket, "processed-bucket", transform.DefaultProcessedBucket, "bucket holding the CSV files")
	transformCmd.Flags().StringVar(&transformCfg.ProcessedPrefix, "processed-prefix", transform.DefaultProcessedPrefix, "key prefix of the CSV files")
	transformCmd.Flags().StringVar(&transformCfg.TransformedBucket, "transformed-bucket", transform.DefaultTransformedBucket, "bucket the Parquet datasets are written to")
	transformCmd.Flags().StringVar(&transformCfg.TransformedPrefix, "transformed-prefix", transform.DefaultTransformedPrefix, "key prefix of the Parquet datasets")
	transformCmd.Flags().StringVar(&transformCfg.Catalog, "catalog", transform.CatalogGlue, "how datasets are registered: glue, athena or none")
	transformCmd.Flags().StringVar(&transformCfg.CrawlerName, "crawler-name", defaultCrawlerName, "Glue crawler indexing the transformed zone")
	transformCmd.Flags().DurationVar(&crawlPollInterval, "crawler-poll-interval", defaultCrawlerPoll, "how often the Glue crawler state is polled")
	addAthenaFlags(transformCmd.Flags())
}

func runTransform(cmd *cobra.Command, _ []string) {
	logger := newLogger("transform")
	transformCfg.Database = athenaCfg.Database
	if err := transformCfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.Debugf("transform config: %s", spew.Sdump(transformCfg))

	sess, err := aws.NewSession(sessionCfg)
	if err != nil {
		logger.WithError(err).Fatal("unable to setup AWS")
	}
	store := aws.NewS3StoreFromSession(sess, logger)

	var catalog transform.Catalog
	switch transformCfg.Catalog {
	case transform.CatalogGlue:
		crawler := aws.NewCrawlerFromSession(sess, transformCfg.CrawlerName, crawlPollInterval, logger)
		catalog = transform.NewCrawlerCatalog(crawler, logger)
	case transform.CatalogAthena:
		cfg := athenaCfg
		cfg.LogQueries = logQueries
		queryer := aws.NewAthenaQueryerFromSession(sess, cfg, logger)
		catalog = transform.NewDDLCatalog(queryer, transformCfg.Database, transformCfg.TransformedBucket, transformCfg.TransformedPrefix, logger)
	}

	ctx := setupSignals(logger)
	if err := transform.New(logger, store, catalog, transformCfg).Run(ctx); err != nil {
		logger.WithError(err).Fatal("transform failed")
	}
}
