package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <sys|docker> <name>",
	Short: "Register a systemd or docker compose service",
	Long: `Register a service under a tag. System services are controlled by name
through systemctl; docker services need --path pointing at the compose
project directory.`,
	Example: `  svcman register sys nginx
  svcman register docker gitea --path ~/web/giteaService`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("path")

		a := newApp()
		defer a.close()

		rec, err := a.mgr.Register(args[0], args[1], path)
		exitOnError(err)

		fmt.Printf("✅ Registered [%s] %s\n", rec.Tag(), rec.Name)
	},
}

func init() {
	registerCmd.Flags().StringP("path", "p", "", "Compose project directory (docker services only)")
	rootCmd.AddCommand(registerCmd)
}
