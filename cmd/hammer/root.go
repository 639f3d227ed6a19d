// Command hammer parses the subcommand, validates root privilege for
// mutating operations, and routes to internal/engine, mapping its
// typed errors to an exit code and a single "Error: <message>" line on
// stderr.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HackerOS-Linux-System/hammer/internal/config"
	"github.com/HackerOS-Linux-System/hammer/internal/engine"
	"github.com/HackerOS-Linux-System/hammer/internal/hammerlog"
	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
)

var (
	flagVerbose bool
	flagJSON    bool

	cfg *config.Config
	log *zap.Logger
	eng *engine.Engine
)

var rootCmd = &cobra.Command{
	Use:           "hammer",
	Short:         "Transactional, image-based deployment manager for btrfs-rooted systems",
	Long:          "hammer creates, promotes, and rolls back read-only snapshot deployments of a btrfs-rooted system, never mutating the currently running root.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log = hammerlog.New(flagVerbose, cfg.LogFile)
		eng = engine.New(cfg, procrunner.New(), log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print debug messages to the console")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Serialize output in JSON when applicable")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// requireRoot rejects mutating subcommands unless the effective user
// is the superuser.
func requireRoot(*cobra.Command, []string) error {
	if os.Geteuid() != 0 {
		return &herr.EnvError{Reason: "must be run as root"}
	}
	return nil
}
