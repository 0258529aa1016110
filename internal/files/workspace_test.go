package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportclean/internal/shared/testutil"
)

func TestWorkspace_Lifecycle(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	root := filepath.Join(t.TempDir(), "work")

	ws, err := NewWorkspace(root, logger)
	require.NoError(t, err)
	assert.DirExists(t, ws.Dir())
	assert.Equal(t, root, filepath.Dir(ws.Dir()))

	path, n, err := ws.WriteFile("../../upload.zip", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, ws.Path("upload.zip"), path)

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Dir())
	assert.NoError(t, ws.Close(), "second close is a no-op")
}

func TestWorkspace_Isolated(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	root := t.TempDir()

	a, err := NewWorkspace(root, logger)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewWorkspace(root, logger)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Dir(), b.Dir())

	_, _, err = a.WriteFile("upload.zip", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = os.Stat(b.Path("upload.zip"))
	assert.True(t, os.IsNotExist(err))
}
