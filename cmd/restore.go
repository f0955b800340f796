package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"svcman/internal/registry"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the registry from its last backup",
	Long: `Replace the registry with the backup taken before the last change. The
current file becomes the new backup, so running restore twice undoes it.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := newApp()
		defer a.close()

		entries, err := a.repo.Restore()
		if errors.Is(err, registry.ErrNoBackup) {
			fmt.Printf("No backup found at %s\n", a.repo.BackupPath())
			os.Exit(1)
		}
		exitOnError(err)

		fmt.Printf("✅ Restored %d services from %s\n", len(entries), a.repo.BackupPath())
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
