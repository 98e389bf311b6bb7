package testutil

import (
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryRepo(t *testing.T) {
	t.Run("creates valid repository", func(t *testing.T) {
		e, fs, err := NewMemoryRepo()
		require.NoError(t, err)
		require.NotNil(t, e)
		require.NotNil(t, fs)

		head, err := e.Underlying().Storer.Reference(plumbing.HEAD)
		require.NoError(t, err)
		assert.Equal(t, plumbing.Main, head.Target())
	})

	t.Run("filesystem is usable", func(t *testing.T) {
		_, fs, err := NewMemoryRepo()
		require.NoError(t, err)

		require.NoError(t, CreateTestFile(fs, "test.txt", "test content"))

		info, err := fs.Stat("test.txt")
		require.NoError(t, err)
		assert.Equal(t, "test.txt", info.Name())
	})
}

func TestNewDiskRepo(t *testing.T) {
	e, fs, err := NewDiskRepo(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Stat(".git/HEAD")
	require.NoError(t, err)
	assert.NotNil(t, e.Underlying())
}

func TestCreateTestCommitWithFile(t *testing.T) {
	e, fs, err := NewMemoryRepo()
	require.NoError(t, err)

	hash, err := CreateTestCommitWithFile(e, fs, "README.md", TestFileContent, "Add README")
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	commit, err := e.Underlying().CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	assert.Equal(t, "Add README", commit.Message)
	assert.Equal(t, TestAuthor, commit.Author.Name)
	assert.Equal(t, TestEmail, commit.Author.Email)

	file, err := commit.File("README.md")
	require.NoError(t, err)
	content, err := file.Contents()
	require.NoError(t, err)
	assert.Equal(t, TestFileContent, content)
}

func TestCreateTestCommitWithTimestamp(t *testing.T) {
	e, fs, err := NewMemoryRepo()
	require.NoError(t, err)

	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	hash, err := CreateTestCommitWithTimestamp(e, fs, "a.txt", "a", "first", when)
	require.NoError(t, err)

	commit, err := e.Underlying().CommitObject(plumbing.NewHash(hash))
	require.NoError(t, err)
	assert.True(t, when.Equal(commit.Committer.When))
	assert.True(t, when.Equal(commit.Author.When))
}
