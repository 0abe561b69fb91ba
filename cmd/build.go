package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// buildCmd runs the full pipeline: load the project manifest, resolve
// its dependencies against the package index, lower the result into a
// build plan, and execute compile/archive/link in order.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Resolve dependencies and build the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := engine.LoadProject(); err != nil {
			return err
		}
		if len(engine.Manifest.Dependencies) > 0 {
			if _, err := engine.Resolve(); err != nil {
				return err
			}
		}

		plan, diags, err := engine.Plan(nil)
		if err != nil {
			return err
		}
		for _, d := range diags {
			engine.UI.Printf("warning: %s: %s\n", d.Path, d.Message)
		}

		if out := viper.GetString("compile-commands-out"); out != "" {
			if err := engine.EmitCompileCommands(plan, out); err != nil {
				return err
			}
		}

		compiled, err := engine.CompileAll(plan)
		if err != nil {
			return err
		}
		archived, err := engine.ArchiveAll(plan, compiled)
		if err != nil {
			return err
		}
		_, err = engine.LinkAll(plan, compiled, archived)
		return err
	},
}

func init() {
	RootCmd.AddCommand(buildCmd)

	buildCmd.PersistentFlags().String(
		"compile-commands-out",
		"",
		"If set, also write a compile_commands.json database to this path.",
	)
	viper.BindPFlags(buildCmd.PersistentFlags())
}
