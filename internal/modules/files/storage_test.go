package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshetovitsme/channel-autoposter/internal/shared/errors"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), nil, nil)
	require.NoError(t, err)
	return s
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestListSourceStates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.ListSource(ctx, "News")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	p, err := s.Create("News")
	require.NoError(t, err)

	names, err := s.ListSource(ctx, "News")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, os.Remove(p.Done))
	_, err = s.ListSource(ctx, "News")
	require.ErrorIs(t, err, errors.ErrBroken)

	var broken *errors.BrokenError
	require.True(t, errors.As(err, &broken))
	assert.Equal(t, "done", broken.Missing)

	require.NoError(t, s.Repair("News", Folder(broken.Missing)))
	_, err = s.ListSource(ctx, "News")
	assert.NoError(t, err)
}

func TestListSourceSortedAndFiltered(t *testing.T) {
	s := newStore(t)
	p, err := s.Create("News")
	require.NoError(t, err)

	touch(t, filepath.Join(p.Source, "002.txt"))
	touch(t, filepath.Join(p.Source, "001_b.jpg"))
	touch(t, filepath.Join(p.Source, "001.txt"))
	touch(t, filepath.Join(p.Source, ".DS_Store"))
	require.NoError(t, os.Mkdir(filepath.Join(p.Source, "nested"), 0o755))

	names, err := s.ListSource(context.Background(), "News")
	require.NoError(t, err)
	assert.Equal(t, []string{"001.txt", "001_b.jpg", "002.txt"}, names)
}

func TestMoveAndMoveAll(t *testing.T) {
	s := newStore(t)
	p, err := s.Create("News")
	require.NoError(t, err)

	touch(t, filepath.Join(p.Source, "001.txt"))
	touch(t, filepath.Join(p.Source, "001_a.jpg"))

	require.NoError(t, s.Move("News", "001.txt", FolderDone))
	assert.FileExists(t, filepath.Join(p.Done, "001.txt"))
	assert.NoFileExists(t, filepath.Join(p.Source, "001.txt"))

	err = s.Move("News", "missing.txt", FolderDone)
	assert.ErrorIs(t, err, errors.ErrIOFailure)

	err = s.Move("News", "001_a.jpg", FolderSource)
	assert.ErrorIs(t, err, errors.ErrIOFailure)

	moved := s.MoveAll("News", []string{"gone.jpg", "001_a.jpg"}, FolderExcept)
	assert.Equal(t, 1, moved)
	assert.FileExists(t, filepath.Join(p.Except, "001_a.jpg"))
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore(t)
	p, err := s.Create("News")
	require.NoError(t, err)
	touch(t, filepath.Join(p.Source, "001.txt"))

	require.NoError(t, s.Delete("News"))
	assert.NoDirExists(t, p.Root)
	require.NoError(t, s.Delete("News"))
}

func TestRepairWithoutRoot(t *testing.T) {
	s := newStore(t)
	assert.ErrorIs(t, s.Repair("Ghost", FolderSource), errors.ErrNotFound)
}

func TestListingAndClear(t *testing.T) {
	s := newStore(t)
	p, err := s.Create("A")
	require.NoError(t, err)
	_, err = s.Create("B")
	require.NoError(t, err)
	touch(t, filepath.Join(p.Done, "001.txt"))

	listing, err := s.Listing("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"001.txt"}, listing[FolderDone])
	assert.Empty(t, listing[FolderSource])

	require.NoError(t, s.Clear())
	entries, err := os.ReadDir(s.BaseDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRename(t *testing.T) {
	s := newStore(t)
	p, err := s.Create("Old")
	require.NoError(t, err)
	touch(t, filepath.Join(p.Source, "001.txt"))

	np, err := s.Rename("Old", "New")
	require.NoError(t, err)
	assert.NoDirExists(t, p.Root)
	assert.FileExists(t, filepath.Join(np.Source, "001.txt"))

	_, err = s.Create("Taken")
	require.NoError(t, err)
	_, err = s.Rename("New", "Taken")
	assert.Error(t, err)

	// A missing tree is provisioned under the new name.
	gp, err := s.Rename("Ghost", "Found")
	require.NoError(t, err)
	assert.DirExists(t, gp.Except)
}
