package compileinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBuildInfo(t *testing.T) {
	ci := FromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.24.11",
		Path:      "github.com/carbocation/varmatrix/cmd/vmstats",
		Main:      debug.Module{Path: "github.com/carbocation/varmatrix", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, "vmstats", ci.Tool)
	assert.True(t, ci.Modified)
	assert.Equal(t, "vmstats devel from github.com/carbocation/varmatrix, commit 0123456789ab (modified) 2026-10-01T00:00:00Z, go1.24.11", ci.String())
}

func TestEmptyBuildInfo(t *testing.T) {
	assert.Equal(t, CompileInfo{}, FromBuildInfo(nil))
	assert.Equal(t, "No build information is available for this binary.", CompileInfo{}.String())
}
