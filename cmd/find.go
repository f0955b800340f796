package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy-find registered services by name",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.close()

		matches, err := a.mgr.Find(strings.Join(args, " "))
		exitOnError(err)

		if len(matches) == 0 {
			fmt.Println("No matching services.")
			return
		}
		for _, m := range matches {
			fmt.Printf("%d: [%s] %s\n", m.Index, m.Record.Tag(), m.Record.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
