package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"svcman/internal/bundle"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Manage Servicefile manifests",
	Long:  `Register services from or dump the registry to a Servicefile.`,
}

var bundleInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Register every service listed in a Servicefile",
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		sf := parseServicefile(file)

		a := newApp()
		defer a.close()

		result, err := bundle.NewInstaller(a.mgr, a.log).Install(sf, bundle.InstallOptions{DryRun: dryRun})
		if result == nil {
			exitOnError(err)
		}

		verb := "Registered"
		if dryRun {
			verb = "Would register"
		}
		for _, ref := range result.Registered {
			fmt.Printf("  %s [%s] %s\n", verb, ref.Record.Tag(), ref.Record.Name)
		}
		for _, ref := range result.Skipped {
			fmt.Printf("  Skipped [%s] %s (already registered)\n", ref.Record.Tag(), ref.Record.Name)
		}
		for _, f := range result.Failed {
			fmt.Printf("  ❌ %v\n", f)
		}

		if len(result.Failed) > 0 {
			fmt.Printf("Error: %d of %d services failed\n", len(result.Failed), len(sf.References()))
			os.Exit(1)
		}
	},
}

var bundleDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Generate a Servicefile from registered services",
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		force, _ := cmd.Flags().GetBool("force")
		noHeader, _ := cmd.Flags().GetBool("no-header")

		a := newApp()
		defer a.close()

		opts := bundle.DefaultDumpOptions()
		opts.Header = !noHeader

		sf, err := bundle.NewDumper(a.mgr).Dump(opts)
		exitOnError(err)

		if file == "" || file == "-" {
			exitOnError(bundle.Write(os.Stdout, sf))
			return
		}

		if _, err := os.Stat(file); err == nil && !force {
			fmt.Printf("File %s already exists. Use --force to overwrite.\n", file)
			os.Exit(1)
		}

		f, err := os.Create(file)
		if err != nil {
			fmt.Printf("Error creating file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		if err := bundle.Write(f, sf); err != nil {
			fmt.Printf("Error writing Servicefile: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Servicefile written to %s\n", file)
	},
}

var bundleCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a Servicefile parses and report what it lists",
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		sf := parseServicefile(file)
		fmt.Printf("%s contains %d sys and %d docker services\n",
			sf.Path,
			len(sf.GetSystemServices()),
			len(sf.GetComposeServices()),
		)
	},
}

func parseServicefile(file string) *bundle.Servicefile {
	if file == "" {
		file = findServicefile()
	}
	if file == "" {
		fmt.Println("Error: No Servicefile found. Use --file to specify one.")
		os.Exit(1)
	}

	sf, err := bundle.SimpleParser().ParseFile(file)
	switch {
	case err == nil:
	case bundle.IsUnsupportedCommand(err):
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Only sys and docker lines are supported.")
		os.Exit(1)
	case bundle.IsSyntaxError(err):
		fmt.Printf("Syntax error in %s: %v\n", file, err)
		os.Exit(1)
	default:
		fmt.Printf("Error parsing Servicefile: %v\n", err)
		os.Exit(1)
	}
	return sf
}

func findServicefile() string {
	candidates := []string{
		"Servicefile",
		".Servicefile",
	}

	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".svcman", "Servicefile"))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

func init() {
	bundleInstallCmd.Flags().String("file", "", "Path to Servicefile")
	bundleInstallCmd.Flags().Bool("dry-run", false, "Show what would be registered")

	bundleDumpCmd.Flags().String("file", "", "Output file (default: stdout)")
	bundleDumpCmd.Flags().Bool("force", false, "Overwrite existing file")
	bundleDumpCmd.Flags().Bool("no-header", false, "Omit the generated header comment")

	bundleCheckCmd.Flags().String("file", "", "Path to Servicefile")

	bundleCmd.AddCommand(bundleInstallCmd)
	bundleCmd.AddCommand(bundleDumpCmd)
	bundleCmd.AddCommand(bundleCheckCmd)
	rootCmd.AddCommand(bundleCmd)
}
