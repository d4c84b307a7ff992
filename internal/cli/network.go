package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartlegionlab/smart-repository-manager-core/netcheck"
)

// NewNetworkCmd builds the network command: probe the well-known
// endpoints and report whether the machine can reach a git server.
func NewNetworkCmd(globals *Globals) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "network",
		Short: "Check internet and git server connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			check := netcheck.New(netcheck.WithTimeout(timeout))

			report := check.Check(cmd.Context())
			for _, probe := range report.Probes {
				status := "ok"
				if !probe.Success {
					status = "FAILED"
					if probe.Error != "" {
						status = "FAILED: " + probe.Error
					}
				}
				cmd.Printf("  %-16s %s\n", probe.Name, status)
			}

			if report.Online {
				cmd.Printf("\nOnline (checked in %s)\n", report.Duration.Round(time.Millisecond))
			} else {
				cmd.Printf("\nOffline (checked in %s)\n", report.Duration.Round(time.Millisecond))
				for _, hint := range report.Recommendations {
					cmd.Printf("  - %s\n", hint)
				}
			}

			ok, detail := check.GitConnectivity(cmd.Context())
			cmd.Printf("%s\n", detail)

			if !report.Online || !ok {
				return errors.New("network check failed")
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", netcheck.DefaultTimeout, "per-endpoint probe deadline")
	return cmd
}
