package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartlegionlab/smart-repository-manager-core/catalog"
	"github.com/smartlegionlab/smart-repository-manager-core/gitcmd"
	"github.com/smartlegionlab/smart-repository-manager-core/gitrepo"
	"github.com/smartlegionlab/smart-repository-manager-core/netcheck"
	"github.com/smartlegionlab/smart-repository-manager-core/syncer"
)

var errNoActiveUser = errors.New("no active user: run 'repoman user add' first")

// NewSyncCmd builds the sync command: fetch the account's repository
// catalog and bring every local mirror to a healthy, current state.
func NewSyncCmd(globals *Globals) *cobra.Command {
	var (
		user         string
		intent       string
		noAutoRepair bool
		noHealth     bool
		noNetCheck   bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize all repositories of the active account",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := globals.Log()

			owner, err := globals.resolveUser(user)
			if err != nil {
				return err
			}

			if !noNetCheck {
				check := netcheck.New()
				ok, detail := check.GitConnectivity(cmd.Context())
				if !ok {
					for _, hint := range check.Check(cmd.Context()).Recommendations {
						log.Warn(hint)
					}
					return fmt.Errorf("connectivity check failed: %s", detail)
				}
				log.Debug(detail)
			}

			store := globals.Store()
			cfg, err := store.Config()
			if err != nil {
				return err
			}
			token, err := store.UserToken(owner)
			if err != nil {
				return err
			}

			client, err := catalog.NewClient(token)
			if err != nil {
				return err
			}

			log.WithField("user", owner).Info("fetching repository catalog")
			repos, err := client.Repositories(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch repository catalog: %w", err)
			}
			log.WithField("count", len(repos)).Info("catalog fetched")

			git := gitcmd.New(gitcmd.WithTimeout(time.Duration(cfg.Sync.TimeoutSeconds) * time.Second))
			orch, err := syncer.New(syncer.Options{
				Transport:   git,
				Prober:      git,
				Inspector:   gitrepo.NewInspector(),
				Provisioner: globals.Layout(),
				MaxRetries:  cfg.Sync.MaxRetries,
				Log:         log,
			})
			if err != nil {
				return err
			}
			attachObservers(orch.Bus(), log)

			result, _ := orch.Run(cmd.Context(), owner, repos, syncer.RunOptions{
				Intent:      syncer.Intent(intent),
				AutoRepair:  !noAutoRepair,
				HealthCheck: !noHealth,
			})

			printResult(cmd, result)
			if result.Failed > 0 {
				return fmt.Errorf("%d of %d repositories failed", result.Failed, result.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "account to sync (defaults to the active user)")
	cmd.Flags().StringVar(&intent, "intent", string(syncer.IntentAuto), "operation intent: sync, clone, or update")
	cmd.Flags().BoolVar(&noAutoRepair, "no-auto-repair", false, "disable the repair escalation on failures")
	cmd.Flags().BoolVar(&noHealth, "no-health-check", false, "skip the up-front health pass")
	cmd.Flags().BoolVar(&noNetCheck, "no-network-check", false, "skip the connectivity pre-check")
	return cmd
}

func printResult(cmd *cobra.Command, result *syncer.Result) {
	cmd.Printf("\nSynchronized %d repositories in %s\n",
		result.Total, result.Duration.Round(time.Millisecond))
	cmd.Printf("  successful: %d\n", result.Successful)
	cmd.Printf("  repaired:   %d\n", result.Repaired)
	cmd.Printf("  skipped:    %d\n", result.Skipped)
	cmd.Printf("  failed:     %d\n", result.Failed)

	for name, reason := range result.FailedRepos {
		cmd.Printf("  FAILED %s: %s\n", name, reason)
	}
	for name, detail := range result.RepairedRepos {
		cmd.Printf("  repaired %s: %s\n", name, detail)
	}
}
