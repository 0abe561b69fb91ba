// Command crucible is the entry point binding the cmd/ CLI surface to
// the app.Engine orchestrator: construct the orchestrator, hand it to
// cmd.Execute, and translate the returned error into a process exit
// code.
package main

import (
	"fmt"
	"os"

	"github.com/SUSE/termui"
	"github.com/fatih/color"

	"github.com/crucible-build/crucible/app"
	"github.com/crucible-build/crucible/cmd"
)

// version is stamped at release build time via -ldflags; left as
// "dev" for local builds.
var version = "dev"

// Exit codes: 0 success, 1 generic failure, 2 user-cancelled.
const (
	exitSuccess = 0
	exitFailure = 1
	exitCancel  = 2
)

func main() {
	ui := termui.New(os.Stdin, os.Stdout, os.Stderr)
	engine := app.New(ui)

	err := cmd.Execute(engine, version)

	cancelled := engine.Cancel != nil && engine.Cancel.IsCancelled()
	if engine.Store != nil {
		engine.Close()
	}

	if err == nil {
		os.Exit(exitSuccess)
	}

	fmt.Fprintln(os.Stderr, color.RedString("crucible: %v", err))
	if cancelled {
		os.Exit(exitCancel)
	}
	os.Exit(exitFailure)
}
