package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crucible-build/crucible/model"
)

// pkgGetCmd fetches and prints one exact package from the local index
// by its package-ID string (name@version[~revision]).
var pkgGetCmd = &cobra.Command{
	Use:   "pkg-get <name@version[~revision]>",
	Short: "Fetch a single package from the local index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := model.ParsePackageID(args[0])
		if err != nil {
			return err
		}

		pkg, err := engine.Index.Fetch(id)
		if err != nil {
			return err
		}

		engine.UI.Printf("%s\n", pkg.Identity)
		for _, lib := range pkg.Libraries {
			engine.UI.Printf("  library %s\n", lib.Identity)
		}
		if len(pkg.Dependencies) > 0 {
			engine.UI.Println("  dependencies:")
			for _, d := range pkg.Dependencies {
				engine.UI.Printf("    %s\n", d)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(pkgGetCmd)
}
