package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"svcman/internal/services"
)

var removeCmd = &cobra.Command{
	Use:     "remove [index]",
	Aliases: []string{"rm"},
	Short:   "Remove a service from the registry",
	Long: `Remove the service at the given index, or every service matching --name
(case-insensitive, surrounding whitespace ignored).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")

		a := newApp()
		defer a.close()

		if name != "" {
			if len(args) != 0 {
				exitOnError(fmt.Errorf("use either an index or --name"))
			}
			exitOnError(a.mgr.RemoveByName(name))
			fmt.Printf("🗑️  Removed %s\n", name)
			return
		}

		if len(args) != 1 {
			exitOnError(fmt.Errorf("an index or --name is required"))
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			exitOnError(services.IndexOutOfRangeError{Index: -1})
		}

		rec, err := a.mgr.RemoveAt(index)
		exitOnError(err)
		fmt.Printf("🗑️  Removed [%s] %s\n", rec.Tag(), rec.Name)
	},
}

func init() {
	removeCmd.Flags().StringP("name", "n", "", "Remove by service name instead of index")
	rootCmd.AddCommand(removeCmd)
}
