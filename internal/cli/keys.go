package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/smartlegionlab/smart-repository-manager-core/sshkey"
)

func defaultSSHDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ssh"
	}
	return filepath.Join(home, ".ssh")
}

// NewKeysCmd builds the keys command group for SSH key management.
func NewKeysCmd(globals *Globals) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the SSH keys used for repository transport",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", defaultSSHDir(), "SSH key directory")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the SSH keys present on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := sshkey.Discover(dir)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				cmd.Println("No SSH keys found. Generate one with 'repoman keys generate'.")
				return nil
			}
			for _, key := range keys {
				perms := "ok"
				if !key.PermissionsOK {
					perms = "LOOSE PERMISSIONS"
				}
				cmd.Printf("%-8s %s  %s  [%s]\n", key.Type, key.PrivatePath, key.Fingerprint, perms)
			}
			return nil
		},
	}

	var comment string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new ed25519 key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := sshkey.Generate(dir, comment)
			if err != nil {
				return err
			}
			cmd.Printf("Generated %s key: %s\n", key.Type, key.PrivatePath)
			cmd.Printf("Fingerprint: %s\n", key.Fingerprint)
			cmd.Printf("Public key:  %s\n", key.PublicPath)
			return nil
		},
	}
	generate.Flags().StringVarP(&comment, "comment", "C", "", "key comment, typically an email address")

	fix := &cobra.Command{
		Use:   "fix-permissions",
		Short: "Restore the expected permissions on the key directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return sshkey.FixPermissions(dir)
		},
	}

	cmd.AddCommand(list, generate, fix)
	return cmd
}
