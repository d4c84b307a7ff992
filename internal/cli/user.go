package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartlegionlab/smart-repository-manager-core/catalog"
)

// NewUserCmd builds the user command group for account management.
func NewUserCmd(globals *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the accounts whose repositories are mirrored",
	}

	var token string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Register an account and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("--token is required")
			}

			// Validate the token before persisting it.
			client, err := catalog.NewClient(token)
			if err != nil {
				return err
			}
			account, err := client.Viewer(cmd.Context())
			if err != nil {
				return fmt.Errorf("token validation failed: %w", err)
			}

			store := globals.Store()
			if err := store.AddUser(args[0], token); err != nil {
				return err
			}
			cmd.Printf("Registered %s (authenticated as %s)\n", args[0], account.Login)
			return nil
		},
	}
	add.Flags().StringVarP(&token, "token", "t", "", "API token for the account")

	remove := &cobra.Command{
		Use:   "remove <username>",
		Short: "Remove a registered account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return globals.Store().RemoveUser(args[0])
		},
	}

	use := &cobra.Command{
		Use:   "use <username>",
		Short: "Switch the active account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return globals.Store().SetActiveUser(args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := globals.Store()
			cfg, err := store.Config()
			if err != nil {
				return err
			}
			if !cfg.HasUsers() {
				cmd.Println("No accounts registered.")
				return nil
			}
			for _, name := range cfg.UserNames() {
				marker := " "
				if name == cfg.ActiveUser {
					marker = "*"
				}
				cmd.Printf("%s %s\n", marker, name)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, use, list)
	return cmd
}
