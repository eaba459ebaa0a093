// Package remediate holds the automated fixes applied to pull requests with
// known CI failures.
package remediate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result is the captured outcome of a shell command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs a shell command line in a directory.
type Runner interface {
	Run(ctx context.Context, dir, command string) (Result, error)
}

// ShellRunner runs commands through `sh -c`.
type ShellRunner struct {
	// Shell overrides the interpreter. Defaults to "sh".
	Shell string
}

// Run executes command in dir. A non-zero exit status is reported in
// Result.ExitCode, not as an error; errors mean the command could not run.
func (r ShellRunner) Run(ctx context.Context, dir, command string) (Result, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("running %q: %w", command, err)
	}
	return res, nil
}
