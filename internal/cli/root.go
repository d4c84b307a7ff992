// Package cli implements the repoman command tree.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/smartlegionlab/smart-repository-manager-core/config"
	"github.com/smartlegionlab/smart-repository-manager-core/layout"
)

// Globals carries the flags shared by every subcommand.
type Globals struct {
	ConfigPath string
	BaseDir    string
	Verbose    bool

	log *logrus.Logger
}

// Log returns the process logger, configured from the global flags.
func (g *Globals) Log() *logrus.Logger {
	if g.log == nil {
		g.log = logrus.New()
		g.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if g.Verbose {
			g.log.SetLevel(logrus.DebugLevel)
		}
	}
	return g.log
}

// Store returns the config store for the selected config path.
func (g *Globals) Store() *config.Store {
	var opts []config.Option
	if g.ConfigPath != "" {
		opts = append(opts, config.WithPath(g.ConfigPath))
	}
	return config.NewStore(opts...)
}

// Layout returns the layout manager for the selected base directory.
func (g *Globals) Layout() *layout.Manager {
	var opts []layout.Option
	if g.BaseDir != "" {
		opts = append(opts, layout.WithBaseDir(g.BaseDir))
	}
	return layout.New(opts...)
}

// resolveUser picks the explicit --user value or falls back to the
// active account.
func (g *Globals) resolveUser(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	active, err := g.Store().ActiveUser()
	if err != nil {
		return "", err
	}
	if active == "" {
		return "", errNoActiveUser
	}
	return active, nil
}

// NewRootCmd builds the repoman command tree.
func NewRootCmd() *cobra.Command {
	globals := &Globals{}

	cmd := &cobra.Command{
		Use:           "repoman",
		Short:         "Keep local mirrors of your git repositories healthy and current",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&globals.BaseDir, "base-dir", "", "base directory for repository storage")
	cmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		NewSyncCmd(globals),
		NewHealthCmd(globals),
		NewArchiveCmd(globals),
		NewKeysCmd(globals),
		NewUserCmd(globals),
		NewCleanupCmd(globals),
		NewNetworkCmd(globals),
	)
	return cmd
}
