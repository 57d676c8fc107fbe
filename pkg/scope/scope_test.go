package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"removes dot components", "/a/./b", "/a/b"},
		{"collapses dot-dot pairs", "/a/b/../c", "/a/c"},
		{"dot-dot at root is absorbed", "/../a", "/a"},
		{"trailing dot-dot keeps no trailing separator", "/a/b/..", "/a"},
		{"empty yields dot", "", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.input))
		})
	}
}

func TestFilter_Shutdown(t *testing.T) {
	f := New(ModeDefault)
	assert.True(t, f.Tracked("/home/user/data.bin"))

	f.Shutdown()
	assert.True(t, f.IsShutdown())
	assert.False(t, f.Tracked("/home/user/data.bin"))
}

func TestFilter_FlushExclusionWins(t *testing.T) {
	f := New(ModeDefault)
	f.SetInclusions([]string{"/home/"})
	f.AddFlushExclusion("/home/user/busy.bin")

	assert.False(t, f.Tracked("/home/user/busy.bin"))
	assert.True(t, f.Tracked("/home/user/other.bin"))

	f.RemoveFlushExclusion("/home/user/busy.bin")
	assert.True(t, f.Tracked("/home/user/busy.bin"))
}

func TestFilter_InclusionsOverrideSystemAndExclusions(t *testing.T) {
	f := New(ModeDefault)
	f.SetInclusions([]string{"/proc/custom/"})

	// an inclusion prefix wins even over the hard-coded system list
	assert.True(t, f.Tracked("/proc/custom/file"))
	// a path outside the inclusion set falls through to the remaining
	// checks, and /home is neither a system path nor excluded
	assert.True(t, f.Tracked("/home/user/data.bin"))
}

func TestFilter_SystemPaths(t *testing.T) {
	f := New(ModeDefault)

	for _, p := range []string{"/bin/ls", "/dev/null", "/proc/1/stat", "/sys/class", "/usr/lib/x", "/var/log/a"} {
		assert.False(t, f.Tracked(p), "expected %s to be untracked", p)
	}
}

func TestFilter_UserExclusions(t *testing.T) {
	f := New(ModeDefault)
	f.SetExclusions([]string{"/tmp/scratch/"})

	assert.False(t, f.Tracked("/tmp/scratch/file.bin"))
	assert.True(t, f.Tracked("/tmp/other/file.bin"))
}

func TestFilter_BypassMode(t *testing.T) {
	f := New(ModeBypass)

	assert.False(t, f.Tracked("/home/user/data.bin"))

	f.AddOverride(Canonicalize("/home/user/data.bin"))
	assert.True(t, f.Tracked("/home/user/data.bin"))
}

func TestFilter_ScratchAndWorkflowModesDefaultTracked(t *testing.T) {
	for _, mode := range []AdapterMode{ModeScratch, ModeWorkflow} {
		f := New(mode)
		assert.True(t, f.Tracked("/home/user/data.bin"))
	}
}
