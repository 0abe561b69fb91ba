package cmd

import (
	"github.com/spf13/cobra"
)

// repoInitCmd seeds a new local package index directory. Engine.Open
// already creates the configured index directory if it is missing, so
// this command is a thin confirmation wrapper with no core-engine
// logic of its own.
var repoInitCmd = &cobra.Command{
	Use:   "repo-init",
	Short: "Create (or confirm) the local package index directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine.UI.Printf("package index ready at %s\n", engine.Index.Root)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(repoInitCmd)
}
