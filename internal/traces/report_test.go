package traces

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAge(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, Age(Trace{ModTime: now.Add(-3 * time.Hour)}, now), "hours ago")
	assert.Contains(t, Age(Trace{ModTime: now.Add(-40 * 24 * time.Hour)}, now), "ago")
}

func TestMarkdownAndHTML(t *testing.T) {
	now := time.Now()
	all := []Trace{{
		Path:    "traces/com.acme/LoginTest/testHappyPath-admin.zip",
		Package: "com.acme",
		Class:   "LoginTest",
		Method:  "testHappyPath-admin",
		ModTime: now.Add(-3 * time.Hour),
	}}

	md := Markdown(all, now)
	assert.Contains(t, md, "| Modified | Package | Class | Method | Trace |")
	assert.Contains(t, md, "| com.acme | LoginTest | testHappyPath-admin | [traces/com.acme/LoginTest/testHappyPath-admin.zip](traces/com.acme/LoginTest/testHappyPath-admin.zip) |")

	html, err := HTML(all, now)
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `<a href="traces/com.acme/LoginTest/testHappyPath-admin.zip">`)
	assert.Contains(t, html, "<td>LoginTest</td>")
}

func TestWatcher(t *testing.T) {
	root := filepath.Join(t.TempDir(), "traces")
	w, err := NewWatcher(root, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Trace, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(tr Trace) { got <- tr }) }()

	path := filepath.Join(root, "com.acme", "LoginTest", "testHappyPath.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04"), 0o644))

	select {
	case tr := <-got:
		assert.Equal(t, path, tr.Path)
		assert.Equal(t, "LoginTest", tr.Class)
		assert.Equal(t, "testHappyPath", tr.Method)
	case <-time.After(5 * time.Second):
		t.Fatal("trace was not reported")
	}

	cancel()
	require.NoError(t, <-done)
}
