package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/spf13/cobra"

	"github.com/smartlegionlab/smart-repository-manager-core/archive"
	"github.com/smartlegionlab/smart-repository-manager-core/layout"
)

// NewArchiveCmd builds the archive command: snapshot a local clone into
// the owner's archives area.
func NewArchiveCmd(globals *Globals) *cobra.Command {
	var (
		user   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "archive <repository>",
		Short: "Create a backup archive of a local repository clone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := globals.resolveUser(user)
			if err != nil {
				return err
			}

			parsed, err := archive.ParseFormat(format)
			if err != nil {
				return err
			}

			manager := globals.Layout()
			paths, err := manager.EnsureLayout(owner)
			if err != nil {
				return err
			}

			repoPath := manager.RepositoryPath(owner, args[0])
			created, err := archive.Create(billy.NewBaseOSFS(), repoPath, parsed)
			if err != nil {
				return fmt.Errorf("failed to archive %s: %w", args[0], err)
			}

			// The archive is written next to the clone; move it into the
			// archives area.
			target := filepath.Join(paths[layout.KeyArchives], filepath.Base(created))
			if err := os.Rename(created, target); err != nil {
				return fmt.Errorf("failed to move archive: %w", err)
			}

			cmd.Printf("Archive created: %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "account owning the repository (defaults to the active user)")
	cmd.Flags().StringVarP(&format, "format", "f", "zip", "archive format: zip, tar, or tar.gz")
	return cmd
}

// NewCleanupCmd builds the cleanup command for the owner's temp area.
func NewCleanupCmd(globals *Globals) *cobra.Command {
	var (
		user    string
		maxDays int
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale files from the temp area",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := globals.resolveUser(user)
			if err != nil {
				return err
			}
			return globals.Layout().CleanTemp(owner, time.Duration(maxDays)*24*time.Hour)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "account to clean (defaults to the active user)")
	cmd.Flags().IntVar(&maxDays, "max-age-days", 7, "remove temp entries older than this many days")
	return cmd
}
