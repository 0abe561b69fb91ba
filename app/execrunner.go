package app

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/crucible-build/crucible/compilator"
)

// ExecRunner implements compilator.ProcessRunner over os/exec — the
// concrete collaborator standing in for the abstract process runner
// contract in a real invocation (tests use an in-memory fake instead,
// per compilator_test.go's fakeRunner).
type ExecRunner struct{}

// Run starts command in cwd and waits for it to exit, capturing
// combined stdout/stderr. A non-zero exit status is reported through
// ProcessResult.ExitCode, never as a returned error: the error return
// is reserved for the runner's own inability to start the process.
func (ExecRunner) Run(ctx context.Context, command []string, cwd string) (compilator.ProcessResult, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = cwd

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		return compilator.ProcessResult{}, err
	}

	return compilator.ProcessResult{ExitCode: exitCode, StdoutStderr: out.String(), Elapsed: elapsed}, nil
}
