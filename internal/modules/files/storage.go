package files

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
	"github.com/reshetovitsme/channel-autoposter/internal/shared/metrics"
)

const tempDirName = ".tmp"

// Paths are the directories of one channel tree.
type Paths struct {
	Root   string
	Source string
	Done   string
	Except string
}

// Dir returns the directory of the given folder.
func (p Paths) Dir(f Folder) string {
	switch f {
	case FolderSource:
		return p.Source
	case FolderDone:
		return p.Done
	case FolderExcept:
		return p.Except
	}
	return ""
}

// Store manages channel directory trees under a base directory
type Store struct {
	baseDir string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewStore creates the base directory if needed and returns a store rooted there
func NewStore(baseDir string, logger *slog.Logger, m *metrics.Metrics) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, oops.With("base_dir", baseDir, "context", "failed to create base directory").Wrap(err)
	}
	return &Store{baseDir: baseDir, logger: logger, metrics: m}, nil
}

// BaseDir returns the root of all channel trees.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Paths returns the directory layout of a channel.
func (s *Store) Paths(name string) Paths {
	root := filepath.Join(s.baseDir, name)
	return Paths{
		Root:   root,
		Source: filepath.Join(root, string(FolderSource)),
		Done:   filepath.Join(root, string(FolderDone)),
		Except: filepath.Join(root, string(FolderExcept)),
	}
}

// SourcePath returns the full path of a file in the channel's source folder.
func (s *Store) SourcePath(name, filename string) string {
	return filepath.Join(s.Paths(name).Source, filename)
}

// Check verifies that the channel tree is complete.
// It returns errors.ErrNotFound when the root is absent and a
// *errors.BrokenError when a subdirectory is.
func (s *Store) Check(name string) error {
	p := s.Paths(name)
	if !isDir(p.Root) {
		return oops.With("channel", name, "path", p.Root).Wrap(errors.ErrNotFound)
	}
	for _, f := range FolderNames() {
		if !isDir(p.Dir(Folder(f))) {
			return &errors.BrokenError{Channel: name, Missing: f}
		}
	}
	return nil
}

// ListSource returns the files staged in the channel's source folder,
// sorted by name. Directories and hidden files are ignored.
func (s *Store) ListSource(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Check(name); err != nil {
		return nil, err
	}
	return s.list(s.Paths(name).Source)
}

// Listing returns the contents of all three folders.
func (s *Store) Listing(name string) (map[Folder][]string, error) {
	if err := s.Check(name); err != nil {
		return nil, err
	}

	p := s.Paths(name)
	out := make(map[Folder][]string, 3)
	for _, f := range FolderNames() {
		names, err := s.list(p.Dir(Folder(f)))
		if err != nil {
			return nil, err
		}
		out[Folder(f)] = names
	}
	return out, nil
}

func (s *Store) list(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.With("dir", dir).Wrap(errors.ErrNotFound)
		}
		return nil, oops.With("dir", dir, "context", "failed to read directory").Wrap(err)
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && !strings.HasPrefix(e.Name(), ".")
	})
	sort.Strings(names)
	return names, nil
}

// Move relocates one file from source into dest.
func (s *Store) Move(name, filename string, dest Folder) error {
	p := s.Paths(name)
	from := filepath.Join(p.Source, filename)
	to := filepath.Join(p.Dir(dest), filename)

	if dest == FolderSource || !dest.IsValid() {
		return oops.With("channel", name, "file", filename, "dest", dest).Wrap(errors.ErrIOFailure)
	}

	if err := os.Rename(from, to); err != nil {
		s.metrics.RecordMove(dest.String(), false)
		return oops.
			With("channel", name, "file", filename, "dest", dest.String()).
			Wrap(errors.Join(errors.ErrIOFailure, err))
	}

	s.metrics.RecordMove(dest.String(), true)
	return nil
}

// MoveAll moves every file to dest. Failures are logged and skipped;
// the number of files actually moved is returned.
func (s *Store) MoveAll(name string, filenames []string, dest Folder) int {
	moved := 0
	for _, f := range filenames {
		if err := s.Move(name, f, dest); err != nil {
			s.logger.Error("Failed to move file", "channel", name, "file", f, "dest", dest.String(), "error", err)
			continue
		}
		s.logger.Info("File moved", "channel", name, "file", f, "dest", dest.String())
		moved++
	}
	return moved
}

// Create provisions the channel tree. Existing directories are kept.
func (s *Store) Create(name string) (Paths, error) {
	p := s.Paths(name)
	for _, dir := range []string{p.Root, p.Source, p.Done, p.Except} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return p, oops.With("channel", name, "dir", dir, "context", "failed to create channel directory").Wrap(err)
		}
	}
	s.logger.Info("Channel directories created", "channel", name, "path", p.Root)
	return p, nil
}

// Delete removes the channel tree. Missing paths are not an error.
func (s *Store) Delete(name string) error {
	p := s.Paths(name)
	if err := os.RemoveAll(p.Root); err != nil {
		return oops.With("channel", name, "path", p.Root, "context", "failed to delete channel directory").Wrap(err)
	}
	s.logger.Info("Channel directories removed", "channel", name)
	return nil
}

// Rename moves the channel tree to a new name. A missing tree is created
// under the new name instead.
func (s *Store) Rename(oldName, newName string) (Paths, error) {
	from, to := s.Paths(oldName), s.Paths(newName)
	if oldName == newName {
		return s.Create(newName)
	}
	if isDir(to.Root) {
		return to, oops.With("channel", newName, "path", to.Root).Errorf("channel directory already exists")
	}
	if !isDir(from.Root) {
		return s.Create(newName)
	}
	if err := os.Rename(from.Root, to.Root); err != nil {
		return to, oops.With("from", from.Root, "to", to.Root, "context", "failed to rename channel directory").Wrap(err)
	}
	s.logger.Info("Channel directories renamed", "from", oldName, "to", newName)
	return s.Create(newName)
}

// Repair recreates a missing subdirectory. The channel root must exist.
func (s *Store) Repair(name string, missing Folder) error {
	p := s.Paths(name)
	if !isDir(p.Root) {
		return oops.With("channel", name).Wrap(errors.ErrNotFound)
	}
	dir := p.Dir(missing)
	if dir == "" {
		return oops.With("channel", name, "folder", missing).Errorf("unknown folder %q", missing)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return oops.With("channel", name, "dir", dir, "context", "failed to repair channel directory").Wrap(err)
	}
	s.logger.Warn("Channel directory repaired", "channel", name, "folder", missing.String())
	return nil
}

// TempDir returns a scratch directory inside the channel tree for
// intermediate files such as compressed images.
func (s *Store) TempDir(name string) (string, error) {
	dir := filepath.Join(s.Paths(name).Root, tempDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", oops.With("channel", name, "dir", dir).Wrap(err)
	}
	return dir, nil
}

// Clear removes every channel tree under the base directory.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return oops.With("base_dir", s.baseDir).Wrap(err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := s.Delete(e.Name()); err != nil {
			return err
		}
	}
	s.logger.Warn("All channel directories cleared", "base_dir", s.baseDir)
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
