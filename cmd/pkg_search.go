package cmd

import (
	"github.com/spf13/cobra"
)

// pkgSearchCmd searches the local package index for names containing
// the given substring.
var pkgSearchCmd = &cobra.Command{
	Use:   "pkg-search <query>",
	Short: "Search the local package index by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, suggestion, err := engine.Index.Search(args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			if suggestion != "" {
				engine.UI.Printf("no matches; did you mean %q?\n", suggestion)
			} else {
				engine.UI.Println("no matches")
			}
			return nil
		}
		for _, m := range matches {
			engine.UI.Println(m)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(pkgSearchCmd)
}
