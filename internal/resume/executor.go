package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Executor runs a Plan. The process spawn is the only side
// effect of resuming, so it lives behind this interface.
type Executor interface {
	Execute(ctx context.Context, p Plan) error
}

// ProcessExecutor starts the assistant as a child process with
// the plan's working directory and the given stdio.
type ProcessExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Execute runs the plan and waits for the assistant to exit.
// Failures are returned as-is; nothing is retried.
func (e ProcessExecutor) Execute(ctx context.Context, p Plan) error {
	if len(p.Argv) == 0 {
		return errors.New("empty resume command")
	}
	cmd := exec.CommandContext(ctx, p.Argv[0], p.Argv[1:]...)
	cmd.Dir = p.WorkDir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", p.Argv[0], err)
	}
	return nil
}
