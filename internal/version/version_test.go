package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.NotEmpty(t, info.Playwright)
}

func TestStrings(t *testing.T) {
	old := []string{Version, GitCommit, BuildDate}
	t.Cleanup(func() { Version, GitCommit, BuildDate = old[0], old[1], old[2] })
	Version, GitCommit, BuildDate = "v0.3.0", "abc1234", "2026-10-01"

	assert.Equal(t, "v0.3.0 (abc1234)", String())
	assert.Contains(t, Full(), "v0.3.0 (abc1234) built 2026-10-01 with "+runtime.Version())
}
