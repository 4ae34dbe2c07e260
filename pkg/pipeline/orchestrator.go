package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const DefaultLogFile = "pipeline.log"

type Config struct {
	// LogFile receives a copy of everything the run prints. It is opened
	// for appending and never truncated.
	LogFile string
	// PushgatewayURL, if set, receives the run's metrics once it ends.
	PushgatewayURL string
	Stages         []Stage
}

// Orchestrator runs the stages of a pipeline in order and stops at the
// first one that fails.
type Orchestrator struct {
	runner   Runner
	cfg      Config
	stdout   io.Writer
	newRunID func() string
}

func New(runner Runner, cfg Config, stdout io.Writer) *Orchestrator {
	return &Orchestrator{
		runner:   runner,
		cfg:      cfg,
		stdout:   stdout,
		newRunID: func() string { return uuid.New().String() },
	}
}

func newStatusLogger(out io.Writer, runID string) log.FieldLogger {
	logger := log.New()
	logger.Out = out
	logger.Formatter = &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	}
	logger.Level = log.InfoLevel
	return logger.WithField("run", runID)
}

// Run executes every stage. It returns a *StageError for the first stage
// that does not exit successfully, without running the stages after it.
// Errors opening the log file are returned before any stage runs.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	logFile, err := os.OpenFile(o.cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %v", err)
	}
	defer logFile.Close()

	out := newSink()
	out.add("stdout", o.stdout)
	out.add(o.cfg.LogFile, logFile)

	runID := o.newRunID()
	logger := newStatusLogger(out, runID)
	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
		}
		runsTotal.WithLabelValues(result).Inc()
		if o.cfg.PushgatewayURL == "" {
			return
		}
		if pushErr := pushMetrics(o.cfg.PushgatewayURL); pushErr != nil {
			logger.WithError(pushErr).Warn("unable to push metrics")
		}
	}()

	for _, stage := range o.cfg.Stages {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Warnf("Pipeline interrupted before %s", stage.Name)
			return ctxErr
		}
		if err := o.runStage(ctx, logger, out, stage); err != nil {
			return err
		}
	}

	logger.Info("Pipeline completed successfully")
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, logger log.FieldLogger, out *sink, stage Stage) error {
	logger = logger.WithFields(log.Fields{
		"stage":   stage.Name,
		"command": stage.Command(),
	})
	logger.Infof("Running %s", stage.Name)

	start := time.Now()
	runErr := o.runner.Run(ctx, stage, out)
	elapsed := time.Since(start)
	stageDurationSeconds.WithLabelValues(stage.Name).Observe(elapsed.Seconds())

	for _, e := range out.newErrors() {
		logger.WithError(e.Err).Warnf("output to %s failed", e.Dest)
	}

	if runErr != nil {
		stageErr := newStageError(stage.Name, runErr)
		stageFailuresTotal.WithLabelValues(stage.Name).Inc()
		logger.WithFields(log.Fields{
			"exitCode": stageErr.ExitCode,
			"elapsed":  elapsed.Round(time.Millisecond),
		}).WithError(runErr).Errorf("%s failed", stage.Name)
		return stageErr
	}
	logger.WithField("elapsed", elapsed.Round(time.Millisecond)).Infof("%s completed", stage.Name)
	return nil
}
