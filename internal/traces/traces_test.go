package traces

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gotrs-io/pwharness/harness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestList(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	id := harness.Identity{Package: "com.acme", Class: "LoginTest", Method: "testHappyPath"}
	admin := harness.TracePath(root, id, "admin", 2)
	customer := harness.TracePath(root, id, "customer", 2)
	writeTrace(t, admin, now.Add(-time.Hour))
	writeTrace(t, customer, now)
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("not a trace"), 0o644))

	got, err := List(root)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, customer, got[0].Path)
	assert.Equal(t, "com.acme", got[0].Package)
	assert.Equal(t, "LoginTest", got[0].Class)
	assert.Equal(t, "testHappyPath-customer", got[0].Method)
	assert.EqualValues(t, 4, got[0].Size)
	assert.Equal(t, admin, got[1].Path)
}

func TestListMissingRoot(t *testing.T) {
	got, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	old := filepath.Join(root, "com.acme", "OldTest", "testGone.zip")
	fresh := filepath.Join(root, "com.acme", "NewTest", "testKept.zip")
	writeTrace(t, old, now.Add(-48*time.Hour))
	writeTrace(t, fresh, now)

	removed, err := Prune(root, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, old, removed[0].Path)

	assert.NoFileExists(t, old)
	assert.NoDirExists(t, filepath.Join(root, "com.acme", "OldTest"))
	assert.FileExists(t, fresh)
	assert.DirExists(t, root)
}
