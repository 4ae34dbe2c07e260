package main

import (
	"math/rand"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/iwatch-health/health-pipeline/pkg/aws"
	"github.com/iwatch-health/health-pipeline/pkg/dashboard"
	"github.com/iwatch-health/health-pipeline/pkg/presto"
	"github.com/iwatch-health/health-pipeline/pkg/transform"
)

var (
	dashboardCfg dashboard.Config
	prestoCfg    presto.ConnConfig
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "serves the monthly health trends dashboard until interrupted",
	Args:  cobra.NoArgs,
	Run:   runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardCfg.ListenAddr, "listen", dashboard.DefaultListenAddr, "host:port the dashboard listens on")
	dashboardCmd.Flags().StringVar(&dashboardCfg.QueryEngine, "query-engine", dashboard.QueryEngineS3, "where datasets are read from: s3, athena or presto")
	dashboardCmd.Flags().StringVar(&dashboardCfg.TransformedBucket, "transformed-bucket", transform.DefaultTransformedBucket, "bucket holding the Parquet datasets, for the s3 engine")
	dashboardCmd.Flags().StringVar(&dashboardCfg.TransformedPrefix, "transformed-prefix", transform.DefaultTransformedPrefix, "key prefix of the Parquet datasets, for the s3 engine")
	dashboardCmd.Flags().DurationVar(&dashboardCfg.CacheTTL, "cache-ttl", dashboard.DefaultCacheTTL, "how long loaded datasets are reused, zero reloads on every request")
	dashboardCmd.Flags().DurationVar(&dashboardCfg.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "how long in-flight requests may take after an interrupt")

	dashboardCmd.Flags().StringVar(&prestoCfg.Host, "presto-host", "presto:8080", "the hostname:port for connecting to Presto")
	dashboardCmd.Flags().StringVar(&prestoCfg.User, "presto-user", "health-pipeline", "Presto user")
	dashboardCmd.Flags().StringVar(&prestoCfg.Catalog, "presto-catalog", "hive", "Presto catalog holding the metric tables")
	dashboardCmd.Flags().BoolVar(&prestoCfg.UseTLS, "presto-use-tls", false, "connect to Presto over HTTPS")
	addAthenaFlags(dashboardCmd.Flags())
}

func runDashboard(cmd *cobra.Command, _ []string) {
	logger := newLogger("dashboard")
	dashboardCfg.Database = athenaCfg.Database
	if err := dashboardCfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger.Debugf("dashboard config: %s", spew.Sdump(dashboardCfg))

	var source dashboard.Source
	switch dashboardCfg.QueryEngine {
	case dashboard.QueryEngineS3, dashboard.QueryEngineAthena:
		sess, err := aws.NewSession(sessionCfg)
		if err != nil {
			logger.WithError(err).Fatal("unable to setup AWS")
		}
		if dashboardCfg.QueryEngine == dashboard.QueryEngineS3 {
			store := aws.NewS3StoreFromSession(sess, logger)
			source = dashboard.NewParquetSource(store, dashboardCfg.TransformedBucket, dashboardCfg.TransformedPrefix)
			break
		}
		cfg := athenaCfg
		cfg.LogQueries = logQueries
		source = dashboard.NewQuerySource(aws.NewAthenaQueryerFromSession(sess, cfg, logger), dashboardCfg.Database, logger)
	case dashboard.QueryEnginePresto:
		prestoCfg.Schema = dashboardCfg.Database
		db, err := presto.NewPrestoConn(logger, prestoCfg, logQueries)
		if err != nil {
			logger.WithError(err).Fatal("unable to setup Presto")
		}
		defer db.Close()
		source = dashboard.NewQuerySource(db, dashboardCfg.Database, logger)
	}

	cache := dashboard.NewCache(source, dashboardCfg.CacheTTL, logger)
	router := dashboard.NewRouter(logger, rand.New(rand.NewSource(time.Now().UnixNano())), cache)

	ctx := setupSignals(logger)
	if err := dashboard.Serve(ctx, logger, dashboardCfg.ListenAddr, router, dashboardCfg.ShutdownTimeout); err != nil {
		logger.WithError(err).Fatal("dashboard server failed")
	}
	logger.Infof("dashboard has stopped")
}
