package main

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/iwatch-health/health-pipeline/pkg/aws"
	"github.com/iwatch-health/health-pipeline/pkg/extract"
)

var extractCfg extract.Config

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "parses the raw export.xml into per-metric CSV files",
	Args:  cobra.NoArgs,
	Run:   runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractCfg.RawBucket, "raw-bucket", extract.DefaultRawBucket, "bucket holding the raw export")
	extractCmd.Flags().StringVar(&extractCfg.RawKey, "raw-key", extract.DefaultRawKey, "key of the raw export.xml")
	extractCmd.Flags().StringVar(&extractCfg.ProcessedBucket, "processed-bucket", extract.DefaultProcessedBucket, "bucket the CSV files are written to")
	extractCmd.Flags().StringVar(&extractCfg.ProcessedPrefix, "processed-prefix", extract.DefaultProcessedPrefix, "key prefix of the CSV files")
}

func runExtract(cmd *cobra.Command, _ []string) {
	logger := newLogger("extract")
	if err := extractCfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.Debugf("extract config: %s", spew.Sdump(extractCfg))

	sess, err := aws.NewSession(sessionCfg)
	if err != nil {
		logger.WithError(err).Fatal("unable to setup AWS")
	}
	store := aws.NewS3StoreFromSession(sess, logger)

	ctx := setupSignals(logger)
	if err := extract.New(logger, store, extractCfg).Run(ctx); err != nil {
		logger.WithError(err).Fatal("extract failed")
	}
}
