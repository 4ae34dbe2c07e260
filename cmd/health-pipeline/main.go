package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iwatch-health/health-pipeline/cmd/helpers"
	"github.com/iwatch-health/health-pipeline/pkg/aws"
)

const envPrefix = "HEALTH_PIPELINE"

var (
	logLevelStr string
	logQueries  bool
	sessionCfg  aws.SessionConfig
)

// envAliases maps conventional environment variables onto flags.
var envAliases = map[string]string{
	"AWS_ENDPOINT_URL": "aws-endpoint",
}

var rootCmd = &cobra.Command{
	Use:           "health-pipeline",
	Short:         "moves an Apple Health export through extract, transform and the dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := helpers.SetFlagsFromEnv(cmd.Flags(), envPrefix); err != nil {
			return err
		}
		return helpers.MapEnvVarToFlag(envAliases, cmd.Flags())
	},
	Args: cobra.NoArgs,
	Run:  runPipeline,
}

func AddCommands() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(versionCmd)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelStr, "log-level", log.InfoLevel.String(), "log level")
	rootCmd.PersistentFlags().BoolVar(&logQueries, "log-queries", false, "log every SQL statement sent to Athena or Presto")
	rootCmd.PersistentFlags().StringVar(&sessionCfg.Region, "aws-region", "", "AWS region, defaults to the shared config or us-east-1")
	rootCmd.PersistentFlags().StringVar(&sessionCfg.Endpoint, "aws-endpoint", "", "override the AWS endpoint, for S3 compatible stores such as MinIO or LocalStack")
	rootCmd.PersistentFlags().BoolVar(&sessionCfg.ForcePathStyle, "s3-force-path-style", false, "use path style S3 URLs")
}

func main() {
	// a missing .env file is fine
	_ = godotenv.Load()

	AddCommands()

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatalf("error executing command: %v", err)
	}
}

func newLogger(component string) log.FieldLogger {
	logger, err := helpers.SetupLogger(logLevelStr, log.Fields{
		"app":       "health-pipeline",
		"component": component,
	})
	if err != nil {
		log.WithError(err).Fatal("unable to setup logger")
	}
	return logger
}

func setupSignals(logger log.FieldLogger) context.Context {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-sigs
		logger.Infof("got signal %s, performing shutdown", sig)
		cancel()
	}()
	return ctx
}
