package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/tupyy/taskpool/pkg/pool"
)

// WorkerEnv is set in the environment of every command to the id of the
// worker running it.
const WorkerEnv = "TASKPOOL_WORKER"

type CommandOutput struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// NewCommand wraps a shell line into a pool task.
func NewCommand(line string) pool.Task[string, CommandOutput] {
	return pool.NewTask(line, Command)
}

// Command runs line with "sh -c". A non-zero exit status is reported in the
// output; only a command that cannot be started returns an error.
func Command(ctx context.Context, wc *pool.WorkerContext, line string) (CommandOutput, error) {
	out := CommandOutput{Command: line}

	cmd := exec.CommandContext(ctx, "sh", "-c", line)
	cmd.Env = append(os.Environ(), WorkerEnv+"="+wc.ID)
	if ws, ok := wc.Data.(*Workspace); ok {
		cmd.Dir = ws.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out.Duration = time.Since(start)
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()

	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("failed to start %q: %w", line, err)
	}

	return out, nil
}
