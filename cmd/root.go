package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"svcman/internal/config"
	"svcman/internal/logger"
	"svcman/internal/manager"
	"svcman/internal/registry"
	"svcman/internal/services"
	"svcman/internal/tui"
)

var (
	registryFlag string
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "svcman",
	Short: "Register and control systemd and docker compose services",
	Long: `svcman keeps a small registry of services and stops or restarts them
through systemctl or docker compose. Run without a command to open the
interactive picker.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := buildApp(true)
		defer a.close()

		if err := tui.Start(cmd.Context(), a.mgr, a.repo.Path(), a.log); err != nil {
			fmt.Printf("Error running TUI: %v\n", err)
			os.Exit(1)
		}
	},
}

// app holds the components every command shares.
type app struct {
	cfg  *config.Config
	log  logger.Logger
	repo *registry.Repository
	mgr  *manager.Manager
}

func newApp() *app {
	return buildApp(false)
}

// buildApp wires the components. An interactive app keeps the console free
// for the picker and only logs to the configured file.
func buildApp(interactive bool) *app {
	cfg := config.Get()

	logOpts := cfg.LoggerOptions()
	logOpts.Quiet = interactive
	if verboseFlag {
		logOpts.Level = "debug"
	}
	log := logger.New(logOpts)

	path := cfg.GetRegistryPath()
	if registryFlag != "" {
		path = registryFlag
		if expanded, err := homedir.Expand(path); err == nil {
			path = expanded
		}
	}

	factory := services.NewFactory(cfg.Toolchain(), services.NewDefaultCommandRunner(), log)
	repo := registry.NewRepository(path, log, registry.WithBackup(cfg.Backup))
	mgr := manager.New(repo, factory, log, manager.WithParallel(cfg.GetParallel()))

	return &app{cfg: cfg, log: log, repo: repo, mgr: mgr}
}

func (a *app) close() {
	_ = a.log.Sync()
}

// exitOnError prints err the way every command reports failures and exits 1.
func exitOnError(err error) {
	if err == nil {
		return
	}
	var idxErr services.IndexOutOfRangeError
	if errors.As(err, &idxErr) {
		fmt.Println("Error: invalid index")
		os.Exit(1)
	}
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&registryFlag, "registry", "", "Registry file to use instead of the configured one")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}
