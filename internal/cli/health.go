package cli

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/smartlegionlab/smart-repository-manager-core/gitcmd"
	"github.com/smartlegionlab/smart-repository-manager-core/syncer"
)

// NewHealthCmd builds the health command: classify every local clone
// without touching the network.
func NewHealthCmd(globals *Globals) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the health of all local repository clones",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := globals.resolveUser(user)
			if err != nil {
				return err
			}

			paths, err := globals.Layout().EnsureLayout(owner)
			if err != nil {
				return err
			}
			reposRoot := paths[syncer.LayoutRepositories]

			entries, err := os.ReadDir(reposRoot)
			if err != nil {
				return err
			}

			inspector := syncer.NewHealthInspector(gitcmd.New())
			histogram := map[syncer.HealthState]int{}

			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}
				report := inspector.Inspect(cmd.Context(), entry.Name(), filepath.Join(reposRoot, entry.Name()))
				histogram[report.State]++

				cmd.Printf("%-16s %s (%d/%d probes)\n", report.State, report.Name, report.Passed, report.Total)
				for _, rec := range report.Recommendations {
					cmd.Printf("                 - %s\n", rec)
				}
			}

			states := make([]string, 0, len(histogram))
			for state := range histogram {
				states = append(states, string(state))
			}
			sort.Strings(states)

			cmd.Println()
			for _, state := range states {
				cmd.Printf("%s: %d\n", state, histogram[syncer.HealthState(state)])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "account to inspect (defaults to the active user)")
	return cmd
}
