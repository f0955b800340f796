package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"svcman/internal/services"
)

var operateCmd = &cobra.Command{
	Use:   "operate [index]",
	Short: "Stop or restart a registered service",
	Long: `Stop or restart the service at the given index (see 'svcman list').
The operation is stop (0) or restart (1).`,
	Example: `  svcman operate 0 --op stop
  svcman operate 2 --op 1 --dry-run
  svcman operate --all --op restart`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opFlag, _ := cmd.Flags().GetString("op")
		all, _ := cmd.Flags().GetBool("all")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		op, err := services.ParseOperation(opFlag)
		exitOnError(err)

		a := newApp()
		defer a.close()

		if all {
			if len(args) != 0 {
				exitOnError(fmt.Errorf("--all does not take an index"))
			}
			runAll(a, cmd, op, dryRun)
			return
		}

		if len(args) != 1 {
			exitOnError(fmt.Errorf("an index or --all is required"))
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			exitOnError(services.IndexOutOfRangeError{Index: -1})
		}

		if dryRun {
			c, err := a.mgr.CommandAt(index, op)
			exitOnError(err)
			printCommand(c)
			return
		}

		exitOnError(a.mgr.ExecuteOperationAt(cmd.Context(), index, op))
		fmt.Printf("✅ %s done\n", op)
	},
}

func runAll(a *app, cmd *cobra.Command, op services.Operation, dryRun bool) {
	if dryRun {
		records, err := a.mgr.List()
		exitOnError(err)
		for i := range records {
			c, err := a.mgr.CommandAt(i, op)
			if err != nil {
				fmt.Printf("%d: error: %v\n", i, err)
				continue
			}
			fmt.Printf("%d: ", i)
			printCommand(c)
		}
		return
	}

	results, err := a.mgr.ExecuteAll(cmd.Context(), op)
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("❌ %d: %s: %v\n", r.Index, r.Record.Name, r.Err)
			continue
		}
		fmt.Printf("✅ %d: %s %s\n", r.Index, r.Record.Name, op)
	}
	if err != nil {
		exitOnError(fmt.Errorf("%s failed for some services", op))
	}
}

func printCommand(c services.Command) {
	if c.Dir != "" {
		fmt.Printf("(cd %s) %s\n", c.Dir, c.String())
		return
	}
	fmt.Println(c.String())
}

func init() {
	operateCmd.Flags().String("op", "", "Operation: stop|restart or 0|1 (required)")
	_ = operateCmd.MarkFlagRequired("op")
	operateCmd.Flags().Bool("all", false, "Operate on every registered service")
	operateCmd.Flags().Bool("dry-run", false, "Print the command instead of running it")
	rootCmd.AddCommand(operateCmd)
}
