package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iwatch-health/health-pipeline/pkg/pipeline"
)

var pipelineCfg pipeline.Config

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "runs extract, transform and the dashboard in order, stopping at the first failure",
	Args:  cobra.NoArgs,
	Run:   runPipeline,
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.StringVar(&pipelineCfg.LogFile, "log-file", pipeline.DefaultLogFile, "file the output of every run is appended to")
	fs.StringVar(&pipelineCfg.PushgatewayURL, "pushgateway-url", "", "if set, stage metrics are pushed to this Prometheus Pushgateway at the end of the run")
}

func init() {
	addRunFlags(rootCmd.Flags())
	addRunFlags(runCmd.Flags())
}

// forwardedFlags returns the global flags set for this invocation so every
// stage sees the same settings.
func forwardedFlags(cmd *cobra.Command) []string {
	var args []string
	global := cmd.Root().PersistentFlags()
	// cobra parses into the merged flag set, so only it knows what was set
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if global.Lookup(f.Name) == nil {
			return
		}
		args = append(args, fmt.Sprintf("--%s=%s", f.Name, f.Value.String()))
	})
	return args
}

func runPipeline(cmd *cobra.Command, _ []string) {
	logger := newLogger("orchestrator")

	executable, err := os.Executable()
	if err != nil {
		logger.WithError(err).Fatal("unable to locate the health-pipeline executable")
	}
	cfg := pipelineCfg
	cfg.Stages = pipeline.DefaultStages(executable, forwardedFlags(cmd)...)
	logger.Debugf("pipeline config: %s", spew.Sdump(cfg))

	ctx := setupSignals(logger)
	o := pipeline.New(&pipeline.ExecRunner{Logger: logger}, cfg, os.Stdout)
	if err := o.Run(ctx); err != nil {
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			os.Exit(1)
		}
		logger.WithError(err).Fatal("pipeline did not complete")
	}
}
