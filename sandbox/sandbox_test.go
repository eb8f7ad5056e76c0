package sandbox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand(t *testing.T) {
	sb, err := New("heyfun-sandbox-acme-t1", func(o *Options) {
		o.WorkDir = t.TempDir()
	})
	require.NoError(t, err)

	t.Run("captures stdout", func(t *testing.T) {
		out, err := sb.RunCommand(context.Background(), "echo hello", 0)
		require.NoError(t, err)
		assert.Equal(t, "hello\n", out)
	})

	t.Run("runs in the workspace directory", func(t *testing.T) {
		out, err := sb.RunCommand(context.Background(), "pwd", 0)
		require.NoError(t, err)
		assert.Contains(t, out, sb.WorkDir())
	})

	t.Run("nonzero exit returns output and error", func(t *testing.T) {
		out, err := sb.RunCommand(context.Background(), "echo oops >&2; exit 3", 0)
		assert.Error(t, err)
		assert.Contains(t, out, "oops")
	})

	t.Run("timeout cancels the command", func(t *testing.T) {
		start := time.Now()
		_, err := sb.RunCommand(context.Background(), "sleep 5", 100*time.Millisecond)
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 3*time.Second)
	})
}

func TestFileHelpers(t *testing.T) {
	sb, err := New("heyfun-sandbox-acme-t2", func(o *Options) {
		o.WorkDir = t.TempDir()
	})
	require.NoError(t, err)

	require.NoError(t, sb.WriteFile("/workspace/a.txt", "content"))

	got, err := sb.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", got)

	exists, err := sb.Exists("a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = sb.Exists("missing.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	isDir, err := sb.IsDirectory("/workspace")
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = sb.IsDirectory("a.txt")
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestCleanupRemovesOnlyEphemeralDirs(t *testing.T) {
	t.Run("ephemeral sandbox removes its temp dir", func(t *testing.T) {
		sb, err := New("heyfun-sandbox-acme-t3")
		require.NoError(t, err)

		dir := sb.WorkDir()
		require.NoError(t, sb.Cleanup())

		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("provided work dir survives cleanup", func(t *testing.T) {
		dir := t.TempDir()

		sb, err := New("heyfun-sandbox-acme-t4", func(o *Options) {
			o.WorkDir = dir
		})
		require.NoError(t, err)
		require.NoError(t, sb.Cleanup())

		_, statErr := os.Stat(dir)
		assert.NoError(t, statErr)
	})
}

func TestManager(t *testing.T) {
	m := NewManager(func(o *ManagerOptions) {
		o.BaseDir = t.TempDir()
	})

	t.Run("key format", func(t *testing.T) {
		assert.Equal(t, "heyfun-sandbox-acme-t5", Key("acme", "t5"))
	})

	t.Run("acquire is idempotent per task", func(t *testing.T) {
		first, err := m.Acquire("acme", "t5")
		require.NoError(t, err)

		second, err := m.Acquire("acme", "t5")
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("get unknown key fails", func(t *testing.T) {
		_, err := m.Get("heyfun-sandbox-acme-nope")

		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("release forgets the sandbox", func(t *testing.T) {
		_, err := m.Acquire("acme", "t6")
		require.NoError(t, err)

		require.NoError(t, m.Release(Key("acme", "t6")))

		_, err = m.Get(Key("acme", "t6"))
		assert.Error(t, err)
	})

	t.Run("release of unknown key is a no-op", func(t *testing.T) {
		assert.NoError(t, m.Release("heyfun-sandbox-acme-ghost"))
	})

	require.NoError(t, m.Cleanup())
}
