package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVirtualPaths(t *testing.T) {
	root := t.TempDir()

	ws, err := New(root)
	require.NoError(t, err)

	t.Run("virtual root maps to the host root", func(t *testing.T) {
		host, err := ws.Resolve("/workspace")
		require.NoError(t, err)
		assert.Equal(t, root, host)
	})

	t.Run("virtual child maps under the host root", func(t *testing.T) {
		host, err := ws.Resolve("/workspace/sub/file.txt")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "sub", "file.txt"), host)
	})

	t.Run("relative paths resolve against the root", func(t *testing.T) {
		host, err := ws.Resolve("notes.md")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "notes.md"), host)
	})

	t.Run("escape via dotdot is rejected", func(t *testing.T) {
		_, err := ws.Resolve("/workspace/../outside")

		var pathErr *PathError
		assert.ErrorAs(t, err, &pathErr)
	})

	t.Run("absolute path outside the root is rejected", func(t *testing.T) {
		_, err := ws.Resolve("/etc/passwd")

		var pathErr *PathError
		assert.ErrorAs(t, err, &pathErr)
	})
}

func TestVirtualRoundTrip(t *testing.T) {
	root := t.TempDir()

	ws, err := New(root)
	require.NoError(t, err)

	host, err := ws.Resolve("/workspace/a/b.txt")
	require.NoError(t, err)

	assert.Equal(t, "/workspace/a/b.txt", ws.Virtual(host))
}

func TestReadWriteAndStat(t *testing.T) {
	ws, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, ws.WriteFile("/workspace/dir/hello.txt", "hello"))

	content, err := ws.ReadFile("dir/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	info, err := ws.Stat("dir/hello.txt")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.False(t, info.IsDir())

	info, err = ws.Stat("missing.txt")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestSaveScreenshot(t *testing.T) {
	ws, err := New(t.TempDir())
	require.NoError(t, err)

	virtual, err := ws.SaveScreenshot(4, []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)

	assert.Contains(t, virtual, "/workspace/screenshots/step_4_")

	content, err := ws.ReadFile(virtual)
	require.NoError(t, err)
	assert.Len(t, content, 4)
}
