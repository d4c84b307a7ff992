// Package layout manages the per-owner on-disk directory structure:
// the repositories root the sync engine operates on plus the archive,
// log, backup, and temp areas around it.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adrg/xdg"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
)

// Directory keys in the mapping returned by EnsureLayout.
const (
	KeyRoot         = "root"
	KeyRepositories = "repositories"
	KeyArchives     = "archives"
	KeyLogs         = "logs"
	KeyBackups      = "backups"
	KeyTemp         = "temp"
)

// subdirs are created under the owner root, in this order.
var subdirs = []string{KeyRepositories, KeyArchives, KeyLogs, KeyBackups, KeyTemp}

// dirPerm keeps the tree private to the owning account.
const dirPerm = 0o700

// Options configures a Manager.
type Options struct {
	// BaseDir is the directory that holds one subtree per owner.
	// Defaults to smart-repo-manager under the XDG data home.
	BaseDir string

	// FS is the filesystem the manager operates on. Defaults to the
	// native filesystem.
	FS fs.Filesystem
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithBaseDir overrides the base directory.
func WithBaseDir(dir string) Option {
	return func(o *Options) { o.BaseDir = dir }
}

// WithFS overrides the backing filesystem.
func WithFS(fsys fs.Filesystem) Option {
	return func(o *Options) { o.FS = fsys }
}

// Manager creates and maintains owner directory trees.
type Manager struct {
	baseDir string
	fs      fs.Filesystem
	now     func() time.Time
}

// New creates a layout manager.
func New(opts ...Option) *Manager {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.BaseDir == "" {
		options.BaseDir = filepath.Join(xdg.DataHome, "smart-repo-manager")
	}
	if options.FS == nil {
		options.FS = billy.NewBaseOSFS()
	}
	return &Manager{
		baseDir: options.BaseDir,
		fs:      options.FS,
		now:     time.Now,
	}
}

// EnsureLayout creates the directory tree for owner and returns the
// path of every area. The tree is idempotent to recreate; the README is
// seeded only once.
func (m *Manager) EnsureLayout(owner string) (map[string]string, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner is required")
	}

	root := filepath.Join(m.baseDir, owner)
	paths := map[string]string{KeyRoot: root}

	if err := m.fs.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create owner root: %w", err)
	}
	for _, name := range subdirs {
		path := filepath.Join(root, name)
		if err := m.fs.MkdirAll(path, dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", name, err)
		}
		paths[name] = path
	}

	if err := m.seedReadme(owner, root); err != nil {
		return nil, fmt.Errorf("failed to seed README: %w", err)
	}
	return paths, nil
}

// RepositoryPath returns where a repository clone lives for owner. It
// does not create anything.
func (m *Manager) RepositoryPath(owner, repoName string) string {
	return filepath.Join(m.baseDir, owner, KeyRepositories, repoName)
}

// CleanTemp removes entries in the owner's temp area older than maxAge.
// Removal is best effort: an entry that cannot be removed is skipped.
func (m *Manager) CleanTemp(owner string, maxAge time.Duration) error {
	temp := filepath.Join(m.baseDir, owner, KeyTemp)

	exists, err := m.fs.Exists(temp)
	if err != nil {
		return fmt.Errorf("failed to check temp directory: %w", err)
	}
	if !exists {
		return nil
	}

	entries, err := m.fs.ReadDir(temp)
	if err != nil {
		return fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := m.now().Add(-maxAge)
	for _, entry := range entries {
		if entry.ModTime().After(cutoff) {
			continue
		}
		_ = m.removeAll(filepath.Join(temp, entry.Name()))
	}
	return nil
}

// AreaUsage describes one area of an owner's tree.
type AreaUsage struct {
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	FileCount int    `json:"item_count"`
	SizeBytes int64  `json:"size_bytes"`
}

// Usage reports per-area file counts and sizes for owner.
func (m *Manager) Usage(owner string) (map[string]AreaUsage, error) {
	root := filepath.Join(m.baseDir, owner)
	usage := make(map[string]AreaUsage, len(subdirs)+1)

	areas := append([]string{KeyRoot}, subdirs...)
	for _, name := range areas {
		path := root
		if name != KeyRoot {
			path = filepath.Join(root, name)
		}

		exists, err := m.fs.Exists(path)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", name, err)
		}
		area := AreaUsage{Path: path, Exists: exists}
		if exists {
			area.FileCount, area.SizeBytes = m.measure(path)
		}
		usage[name] = area
	}
	return usage, nil
}

func (m *Manager) measure(root string) (int, int64) {
	count := 0
	var size int64
	_ = m.fs.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		count++
		size += info.Size()
		return nil
	})
	return count, size
}

// removeAll removes path recursively through the fs abstraction,
// deleting children before their parents.
func (m *Manager) removeAll(path string) error {
	var paths []string
	err := m.fs.Walk(path, func(p string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return err
	}

	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	for _, p := range paths {
		if err := m.fs.Remove(p); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) seedReadme(owner, root string) error {
	path := filepath.Join(root, "README.md")
	exists, err := m.fs.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	content := fmt.Sprintf(`# Git Repositories - %s

Created: %s
User: %s

## Directory Structure
%s/
|-- repositories/  Local clones of git repositories
|-- archives/      Backup archives and snapshots
|-- logs/          Operation logs
|-- backups/       Manual backups
'-- temp/          Temporary files (auto-cleaned)

## Managed by Smart Repository Manager
`, owner, m.now().Format("2006-01-02 15:04:05"), owner, owner)

	return m.fs.WriteFile(path, []byte(content), 0o600)
}
