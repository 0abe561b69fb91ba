package compilator

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"

	workerLib "github.com/jimmysawczuk/worker"

	"github.com/crucible-build/crucible/planner"
	"github.com/crucible-build/crucible/toolchain"
)

// TaskFailure reports one failed compile/archive/link task, carrying
// enough context to diagnose it: output path, command vector, exit
// status, and captured output.
type TaskFailure struct {
	OutputPath string
	Command    []string
	ExitCode   int
	Output     string
	Err        error
}

func (f TaskFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.OutputPath, f.Err)
	}
	return fmt.Sprintf("%s: exit %d: %s", f.OutputPath, f.ExitCode, f.Output)
}

// PhaseError is the structured phase-failed error compile_all/
// archive_all/link_all raise.
type PhaseError struct {
	Phase    string
	Failures []TaskFailure
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %d task(s)", e.Phase, len(e.Failures))
}

// PhaseResult records, for one phase, which output paths succeeded
// and which failed (including quarantined-and-skipped outputs) — the
// next phase consults Failed to implement failure quarantine.
type PhaseResult struct {
	Succeeded map[string]bool
	Failed    map[string]bool
}

func newPhaseResult() *PhaseResult {
	return &PhaseResult{Succeeded: map[string]bool{}, Failed: map[string]bool{}}
}

// Engine runs a BuildPlan's compile/archive/link tasks against the
// process-runner, fingerprint-store, and cancellation contracts,
// skipping up-to-date tasks per the should-run predicate.
//
// Grounded on compilator.Compilator.Compile: the doneCh/killCh
// synchronizer (a single consumer draining a worker pool's results,
// closing killCh on the first failure so no new task starts) is kept
// verbatim, generalized from one BOSH-package-per-job to one
// compile/archive/link-task-per-job, and keyed by task output path
// instead of package fingerprint.
type Engine struct {
	Runner      ProcessRunner
	Store       FingerprintStore
	Cancel      CancellationSource
	Toolchain   *toolchain.Toolchain
	WarningsOn  bool
	WorkerCount int
}

// New returns an Engine wired to the given collaborators.
func New(runner ProcessRunner, store FingerprintStore, cancel CancellationSource, tc *toolchain.Toolchain) *Engine {
	return &Engine{Runner: runner, Store: store, Cancel: cancel, Toolchain: tc}
}

// workerCount defaults to hardware_concurrency + 2 when unset.
func (e *Engine) workerCount() int {
	if e.WorkerCount >= 1 {
		return e.WorkerCount
	}
	return runtime.NumCPU() + 2
}

type phaseOutcome struct {
	outputPath string
	failure    *TaskFailure
}

// runPhase owns the worker pool, doneCh/killCh synchronizer shared by
// all three phases.
func (e *Engine) runPhase(name string, addJobs func(doneCh chan<- phaseOutcome, killCh chan struct{}, w *workerLib.Worker)) (*PhaseResult, error) {
	result := newPhaseResult()

	doneCh := make(chan phaseOutcome)
	killCh := make(chan struct{})

	workerLib.MaxJobs = e.workerCount()
	w := workerLib.NewWorker()
	addJobs(doneCh, killCh, w)

	go func() {
		w.RunUntilDone()
		close(doneCh)
	}()

	var failures []TaskFailure
	killed := false
	for outcome := range doneCh {
		if outcome.failure != nil {
			result.Failed[outcome.failure.OutputPath] = true
			failures = append(failures, *outcome.failure)
			if !killed {
				close(killCh)
				killed = true
			}
			continue
		}
		result.Succeeded[outcome.outputPath] = true
	}

	if len(failures) > 0 {
		return result, &PhaseError{Phase: name, Failures: failures}
	}
	return result, nil
}

func (e *Engine) cancelled(killCh <-chan struct{}) bool {
	select {
	case <-killCh:
		return true
	default:
	}
	return e.Cancel != nil && e.Cancel.IsCancelled()
}

// CompileAll runs every compile task in plan, skipping up-to-date
// tasks per the should-run predicate.
func (e *Engine) CompileAll(plan *planner.BuildPlan) (*PhaseResult, error) {
	var tasks []planner.CompileTask
	for _, pkgPlan := range plan.Packages {
		for _, libPlan := range pkgPlan.Libraries {
			tasks = append(tasks, libPlan.Compiles...)
		}
	}
	if len(tasks) == 0 {
		return newPhaseResult(), nil
	}

	return e.runPhase("compile", func(doneCh chan<- phaseOutcome, killCh chan struct{}, w *workerLib.Worker) {
		for _, t := range tasks {
			w.Add(compileJob{task: t, engine: e, doneCh: doneCh, killCh: killCh})
		}
	})
}

// ArchiveAll runs every library's archive task, skipping (quarantining)
// any whose object paths include a failed compile output.
func (e *Engine) ArchiveAll(plan *planner.BuildPlan, compiled *PhaseResult) (*PhaseResult, error) {
	var tasks []planner.ArchiveTask
	quarantined := map[string]bool{}

	for _, pkgPlan := range plan.Packages {
		for _, libPlan := range pkgPlan.Libraries {
			if libPlan.Archive == nil {
				continue
			}
			blocked := false
			for _, obj := range libPlan.Archive.ObjectPaths {
				if compiled != nil && compiled.Failed[obj] {
					blocked = true
					break
				}
			}
			if blocked {
				quarantined[libPlan.Archive.OutputPath] = true
				continue
			}
			tasks = append(tasks, *libPlan.Archive)
		}
	}

	var result *PhaseResult
	var err error
	if len(tasks) == 0 {
		result, err = newPhaseResult(), nil
	} else {
		result, err = e.runPhase("archive", func(doneCh chan<- phaseOutcome, killCh chan struct{}, w *workerLib.Worker) {
			for _, t := range tasks {
				w.Add(archiveJob{task: t, engine: e, doneCh: doneCh, killCh: killCh})
			}
		})
	}

	for q := range quarantined {
		result.Failed[q] = true
	}
	return result, err
}

// LinkAll runs every library's executable link tasks, skipping any
// whose entry object or archive inputs include a failed or quarantined
// upstream output.
func (e *Engine) LinkAll(plan *planner.BuildPlan, compiled, archived *PhaseResult) (*PhaseResult, error) {
	var tasks []planner.LinkTask
	quarantined := map[string]bool{}

	for _, pkgPlan := range plan.Packages {
		for _, libPlan := range pkgPlan.Libraries {
			for _, link := range libPlan.Executables {
				if compiled != nil && compiled.Failed[link.EntryObject] {
					quarantined[link.OutputPath] = true
					continue
				}
				blocked := false
				if archived != nil {
					for _, a := range link.ArchiveInputs {
						if archived.Failed[a] {
							blocked = true
							break
						}
					}
				}
				if blocked {
					quarantined[link.OutputPath] = true
					continue
				}
				tasks = append(tasks, link)
			}
		}
	}

	var result *PhaseResult
	var err error
	if len(tasks) == 0 {
		result, err = newPhaseResult(), nil
	} else {
		result, err = e.runPhase("link", func(doneCh chan<- phaseOutcome, killCh chan struct{}, w *workerLib.Worker) {
			for _, t := range tasks {
				w.Add(linkJob{task: t, engine: e, doneCh: doneCh, killCh: killCh})
			}
		})
	}

	for q := range quarantined {
		result.Failed[q] = true
	}
	return result, err
}

type compileJob struct {
	task   planner.CompileTask
	engine *Engine
	doneCh chan<- phaseOutcome
	killCh <-chan struct{}
}

func (j compileJob) Run() {
	if j.engine.cancelled(j.killCh) {
		j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
		return
	}

	args := j.engine.Toolchain.RenderCompile(toolchain.CompileRequest{
		Source:               j.task.Source.AbsPath,
		IncludeRoots:         j.task.IncludeRoots,
		ExternalIncludeRoots: j.task.ExternalIncludeRoots,
		Defines:              j.task.Defines,
		Language:             j.task.Language,
		WarningsOn:           j.engine.WarningsOn,
		ObjectPath:           j.task.OutputPath,
	})

	run, err := shouldRun(j.engine.Store, j.task.OutputPath, args, j.engine.Toolchain.Hash())
	if err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}
	if !run {
		j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
		return
	}

	result, err := j.engine.Runner.Run(context.Background(), args, filepath.Dir(j.task.OutputPath))
	if err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}

	report := toolchain.ParseDependencyReport(j.engine.Toolchain.DepsMode(), j.task.Source.AbsPath, result.StdoutStderr, j.engine.Toolchain.MSVCDepsPrefix())

	if result.ExitCode != 0 {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{
			OutputPath: j.task.OutputPath,
			Command:    args,
			ExitCode:   result.ExitCode,
			Output:     report.CleanedOutput,
		}}
		return
	}

	if j.engine.Toolchain.DepsMode() == toolchain.DepsGNUMakefile && report.Target == "" {
		log.Printf("compilator: %s: malformed dependency report; recording no inputs", j.task.OutputPath)
	}

	if err := commit(j.engine.Store, j.task.OutputPath, args, report.CleanedOutput, j.engine.Toolchain.Hash(), result.Elapsed, report.Inputs); err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}

	j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
}

type archiveJob struct {
	task   planner.ArchiveTask
	engine *Engine
	doneCh chan<- phaseOutcome
	killCh <-chan struct{}
}

func (j archiveJob) Run() {
	if j.engine.cancelled(j.killCh) {
		j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
		return
	}

	args := j.engine.Toolchain.RenderArchive(toolchain.ArchiveRequest{
		ObjectPaths: j.task.ObjectPaths,
		OutputPath:  j.task.OutputPath,
	})

	run, err := shouldRun(j.engine.Store, j.task.OutputPath, args, j.engine.Toolchain.Hash())
	if err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}
	if !run {
		j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
		return
	}

	result, err := j.engine.Runner.Run(context.Background(), args, filepath.Dir(j.task.OutputPath))
	if err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}
	if result.ExitCode != 0 {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, ExitCode: result.ExitCode, Output: result.StdoutStderr}}
		return
	}

	if err := commit(j.engine.Store, j.task.OutputPath, args, result.StdoutStderr, j.engine.Toolchain.Hash(), result.Elapsed, j.task.ObjectPaths); err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}

	j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
}

type linkJob struct {
	task   planner.LinkTask
	engine *Engine
	doneCh chan<- phaseOutcome
	killCh <-chan struct{}
}

func (j linkJob) Run() {
	if j.engine.cancelled(j.killCh) {
		j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
		return
	}

	args := j.engine.Toolchain.RenderLink(toolchain.LinkRequest{
		EntryObject:   j.task.EntryObject,
		ArchiveInputs: j.task.ArchiveInputs,
		RuntimeInputs: j.task.RuntimeInputs,
		OutputPath:    j.task.OutputPath,
	})

	run, err := shouldRun(j.engine.Store, j.task.OutputPath, args, j.engine.Toolchain.Hash())
	if err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}
	if !run {
		j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
		return
	}

	result, err := j.engine.Runner.Run(context.Background(), args, filepath.Dir(j.task.OutputPath))
	if err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}
	if result.ExitCode != 0 {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, ExitCode: result.ExitCode, Output: result.StdoutStderr}}
		return
	}

	inputs := append([]string{j.task.EntryObject}, j.task.ArchiveInputs...)
	if err := commit(j.engine.Store, j.task.OutputPath, args, result.StdoutStderr, j.engine.Toolchain.Hash(), result.Elapsed, inputs); err != nil {
		j.doneCh <- phaseOutcome{failure: &TaskFailure{OutputPath: j.task.OutputPath, Command: args, Err: err}}
		return
	}

	j.doneCh <- phaseOutcome{outputPath: j.task.OutputPath}
}
