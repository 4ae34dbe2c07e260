package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const (
	ExtractStage   = "extract_data"
	TransformStage = "transform_data"
	DashboardStage = "health_dashboard"
)

// Stage is one step of the pipeline, run as its own process.
type Stage struct {
	Name string
	Path string
	Args []string
}

// Command is the program name and subcommand the stage runs, as shown in
// status lines.
func (s Stage) Command() string {
	name := filepath.Base(s.Path)
	if len(s.Args) == 0 {
		return name
	}
	return name + " " + s.Args[0]
}

// DefaultStages returns the extract, transform and dashboard stages, each
// running executable with its stage subcommand followed by extraArgs.
func DefaultStages(executable string, extraArgs ...string) []Stage {
	stage := func(name, subcommand string) Stage {
		args := append([]string{subcommand}, extraArgs...)
		return Stage{Name: name, Path: executable, Args: args}
	}
	return []Stage{
		stage(ExtractStage, "extract"),
		stage(TransformStage, "transform"),
		stage(DashboardStage, "dashboard"),
	}
}

// Runner runs a stage to completion, writing its stdout and stderr to out.
// A nil error means the stage exited successfully.
type Runner interface {
	Run(ctx context.Context, stage Stage, out io.Writer) error
}

// ExecRunner runs stages as child processes. The outcome of a stage is
// the child's own exit status. Cancelling ctx interrupts the child, which
// decides how to exit.
type ExecRunner struct {
	// Env is appended to the orchestrator's environment.
	Env []string
	// Logger, if set, receives problems forwarding the interrupt.
	Logger log.FieldLogger
}

func (r *ExecRunner) Run(ctx context.Context, stage Stage, out io.Writer) error {
	cmd := exec.Command(stage.Path, stage.Args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	exited := make(chan struct{})
	defer close(exited)
	go r.interruptOnCancel(ctx, stage, cmd.Process, exited)
	return cmd.Wait()
}

type signaler interface {
	Signal(os.Signal) error
}

func (r *ExecRunner) interruptOnCancel(ctx context.Context, stage Stage, proc signaler, exited <-chan struct{}) {
	select {
	case <-ctx.Done():
		if err := proc.Signal(os.Interrupt); err != nil && r.Logger != nil {
			r.Logger.WithError(err).WithField("stage", stage.Name).Debug("unable to interrupt stage")
		}
	case <-exited:
	}
}

// StageError reports a stage that did not exit successfully.
type StageError struct {
	Stage string
	// ExitCode is the stage's exit status, or -1 when the stage could not
	// be started or was terminated by a signal.
	ExitCode int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed with exit code %d: %v", e.Stage, e.ExitCode, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(stage string, err error) *StageError {
	code := -1
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &StageError{Stage: stage, ExitCode: code, Err: err}
}
