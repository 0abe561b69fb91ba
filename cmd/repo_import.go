package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// repoImportCmd ingests a local source-distribution tarball into the
// package index.
var repoImportCmd = &cobra.Command{
	Use:   "repo-import <sdist.tar.gz>",
	Short: "Import a package source distribution into the local index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := engine.Index.Import(args[0])
		if err != nil {
			return err
		}
		engine.UI.Println(color.GreenString("imported %s", id))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(repoImportCmd)
}
