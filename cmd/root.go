package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rwscout/internal/catalog"
	"rwscout/internal/ui"
)

// Set at build time via -ldflags.
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// cli carries state shared by every command.
type cli struct {
	v          *viper.Viper
	configFile string
}

func (c *cli) config() (*Config, error) {
	return loadConfig(c.v, c.configFile)
}

// NewRootCmd builds the command tree. The root command runs the TUI.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "rwscout",
		Short: "Browse restaurant week restaurants and check which have open tables",
		Long: `rwscout lists the restaurants taking part in restaurant week, narrows them
by name, neighborhood, borough, cuisine and meal type, and checks each one's
reservation platform for open tables on a chosen date.

Configuration is read from ~/.rwscout/config.yaml, RWSCOUT_* environment
variables (also from .env and .env.local) and flags, in rising precedence.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default ~/.rwscout/config.yaml)")
	addConfigFlags(flags)
	bindConfigFlags(c.v, flags)

	root.AddCommand(newVersionCmd())
	root.AddCommand(c.newCheckCmd())
	root.AddCommand(c.newSlotsCmd())

	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (c *cli) runTUI(ctx context.Context) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	if shouldRunOnboarding(cfg) {
		path, err := runOnboarding(cfg.ConfigDir)
		if err != nil {
			return fmt.Errorf("failed to run onboarding: %w", err)
		}
		if path == "" {
			return errors.New("no catalog source configured; pass --api-url or --catalog-file")
		}
		c.configFile = path
		if cfg, err = c.config(); err != nil {
			return err
		}
	}

	// The terminal belongs to the TUI, so logs always go to a file.
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(cfg.ConfigDir, "rwscout.log")
	}
	svc, err := newServices(cfg, logPath)
	if err != nil {
		return err
	}
	defer svc.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc.serveMetrics(ctx)

	orch := svc.orchestrator()
	defer orch.Cancel()

	m := ui.New(ctx, ui.Options{
		Load: func(ctx context.Context) (*catalog.Store, error) {
			return svc.loadCatalog(ctx, catalog.Query{})
		},
		Runner:    orch,
		Policy:    cfg.FailedPolicy,
		PartySize: cfg.PartySize,
		Logger:    svc.logger,
		PrefsPath: filepath.Join(cfg.ConfigDir, "ui_prefs.json"),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running app: %w", err)
	}
	return nil
}
