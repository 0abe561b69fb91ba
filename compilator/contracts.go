// Package compilator implements the incremental execution engine
// component: a fingerprint-aware, parallel task runner that compiles,
// archives, and links the tasks a BuildPlan describes, skipping
// up-to-date work per the should-run predicate.
//
// Grounded on compilator.Compilator.Compile (worker-pool setup,
// doneCh/killCh synchronizer), run here as three sequential phases
// (compile, archive, link) instead of a dependency-ordered queue,
// adapted from "BOSH package compilation via Docker" to "translation-
// unit compilation via a toolchain-rendered subprocess".
package compilator

import (
	"context"
	"time"
)

// ProcessRunner is the external process contract. It
// must never return an error for a non-zero exit — failures surface
// through ProcessResult.ExitCode, not the error return, which is reserved for
// the runner's own inability to start the process at all.
type ProcessRunner interface {
	Run(ctx context.Context, command []string, cwd string) (ProcessResult, error)
}

// ProcessResult is one subprocess invocation's outcome.
type ProcessResult struct {
	ExitCode     int
	StdoutStderr string
	Elapsed      time.Duration
}

// CommandRecord is one `commands` table row.
type CommandRecord struct {
	QuotedCommand string
	Output        string
	ToolchainHash uint64
	DurationMS    int64
}

// InputRecord is one `inputs` table row: an input file path and the
// mtime observed the last time the command that consumes it ran
// successfully.
type InputRecord struct {
	Path      string
	PrevMtime time.Time
}

// FingerprintStore is the fingerprint-store contract.
type FingerprintStore interface {
	LoadCommand(outputPath string) (CommandRecord, bool, error)
	LoadInputs(outputPath string) ([]InputRecord, error)
	BeginTransaction() (Transaction, error)
	Forget(outputPath string) error
}

// Transaction is one fingerprint-database write: replace the commands
// row, delete then re-insert all inputs rows, committed or rolled back
// as a unit.
type Transaction interface {
	Save(outputPath string, cmd CommandRecord, inputs []InputRecord) error
	Commit() error
	Rollback() error
}

// CancellationSource is the cancellation contract, polled cooperatively
// by the worker loop between task dispatches.
type CancellationSource interface {
	IsCancelled() bool
}
