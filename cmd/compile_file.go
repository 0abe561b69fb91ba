package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucible-build/crucible/planner"
)

// compileFileCmd plans the whole project but runs just the single
// compile task whose source matches the given path, for fast
// edit/compile/inspect iteration on one translation unit.
var compileFileCmd = &cobra.Command{
	Use:   "compile-file <path>",
	Short: "Compile a single source file from the current project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]

		if err := engine.LoadProject(); err != nil {
			return err
		}
		if len(engine.Manifest.Dependencies) > 0 {
			if _, err := engine.Resolve(); err != nil {
				return err
			}
		}

		plan, _, err := engine.Plan(nil)
		if err != nil {
			return err
		}

		single, err := isolateCompileTask(plan, target)
		if err != nil {
			return err
		}

		result, err := engine.CompileAll(single)
		if err != nil {
			return err
		}
		if !result.Succeeded[single.Packages[0].Libraries[0].Compiles[0].OutputPath] {
			return fmt.Errorf("cmd: compiling %s failed", target)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(compileFileCmd)
}

// isolateCompileTask returns a BuildPlan containing only the single
// compile task (and its owning, otherwise-empty library/package
// shell) whose source path matches target.
func isolateCompileTask(plan *planner.BuildPlan, target string) (*planner.BuildPlan, error) {
	for _, pkg := range plan.Packages {
		for _, lib := range pkg.Libraries {
			for _, task := range lib.Compiles {
				if task.Source.AbsPath != target {
					continue
				}
				return &planner.BuildPlan{
					Packages: []planner.PackagePlan{{
						Identity: pkg.Identity,
						Libraries: []planner.LibraryPlan{{
							Identity: lib.Identity,
							Compiles: []planner.CompileTask{task},
						}},
					}},
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("cmd: no compile task found for source %s", target)
}
