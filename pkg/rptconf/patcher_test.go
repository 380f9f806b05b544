package rptconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/allstar-tools/asl-addons/pkg/addons"
)

const baseConf = `[node-main]
rxchannel = SimpleUSB/usb_1000
duplex = 2
`

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rpt.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func listBackups(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + ".bak.*")
	require.NoError(t, err)
	return matches
}

func TestApply_AppendsMissingBlock(t *testing.T) {
	path := writeConf(t, baseConf)
	patches := []addons.ConfPatch{
		{
			Guard: "statpost_url",
			Lines: []string{
				"statpost_url = http://stats.allstarlink.org/uhandler",
			},
		},
	}

	p := New(path, zap.NewNop(), false)
	result, err := p.Apply(patches)
	require.NoError(t, err)

	assert.Equal(t, []string{"statpost_url"}, result.Applied)
	assert.Empty(t, result.Skipped)
	require.NotEmpty(t, result.BackupPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "statpost_url = http://stats.allstarlink.org/uhandler")
	assert.True(t, strings.HasPrefix(string(data), baseConf), "original content must be preserved")

	backup, err := os.ReadFile(result.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, baseConf, string(backup), "backup must hold pre-patch content")
}

func TestApply_SecondRunIsIdempotent(t *testing.T) {
	path := writeConf(t, baseConf)
	patches := []addons.ConfPatch{
		{Guard: "SkyControl.py", Lines: []string{"831 = cmd,/usr/local/bin/SkywarnPlus/SkyControl.py enable toggle"}},
		{Guard: "statpost_url", Lines: []string{"statpost_url = http://stats.allstarlink.org/uhandler"}},
	}

	first := New(path, zap.NewNop(), false)
	_, err := first.Apply(patches)
	require.NoError(t, err)

	patched, err := os.ReadFile(path)
	require.NoError(t, err)

	second := New(path, zap.NewNop(), false)
	result, err := second.Apply(patches)
	require.NoError(t, err)

	assert.Empty(t, result.Applied)
	assert.Equal(t, []string{"SkyControl.py", "statpost_url"}, result.Skipped)
	assert.Empty(t, result.BackupPath, "no write means no backup")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, patched, after, "second run must not change the file")

	assert.Len(t, listBackups(t, path), 1, "second run must not add a backup")
}

func TestApply_SharedBackupAcrossCalls(t *testing.T) {
	path := writeConf(t, baseConf)

	p := New(path, zap.NewNop(), false)
	first, err := p.Apply([]addons.ConfPatch{
		{Guard: "statpost_url", Lines: []string{"statpost_url = http://stats.allstarlink.org/uhandler"}},
	})
	require.NoError(t, err)

	second, err := p.Apply([]addons.ConfPatch{
		{Guard: "SkyControl.py", Lines: []string{"831 = cmd,/usr/local/bin/SkywarnPlus/SkyControl.py enable toggle"}},
	})
	require.NoError(t, err)

	assert.Equal(t, first.BackupPath, second.BackupPath)
	assert.Len(t, listBackups(t, path), 1, "one run takes at most one backup")

	backup, err := os.ReadFile(first.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, baseConf, string(backup), "backup restores the pre-run state, not an intermediate one")
}

func TestApply_GuardAlreadyPresentTakesNoBackup(t *testing.T) {
	content := baseConf + "\nstatpost_url = http://stats.allstarlink.org/uhandler\n"
	path := writeConf(t, content)

	p := New(path, zap.NewNop(), false)
	result, err := p.Apply([]addons.ConfPatch{
		{Guard: "statpost_url", Lines: []string{"statpost_url = http://stats.allstarlink.org/uhandler"}},
	})
	require.NoError(t, err)

	assert.Empty(t, result.Applied)
	assert.Equal(t, []string{"statpost_url"}, result.Skipped)
	assert.Empty(t, result.BackupPath)
	assert.Empty(t, listBackups(t, path))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(after))
}

func TestApply_DryRunLeavesFileUntouched(t *testing.T) {
	path := writeConf(t, baseConf)

	p := New(path, zap.NewNop(), true)
	result, err := p.Apply([]addons.ConfPatch{
		{Guard: "statpost_url", Lines: []string{"statpost_url = http://stats.allstarlink.org/uhandler"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"statpost_url"}, result.Applied, "dry run still reports what would change")
	assert.Empty(t, result.BackupPath)
	assert.Empty(t, listBackups(t, path))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, baseConf, string(after))
}

func TestApply_MissingFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rpt.conf")

	p := New(path, zap.NewNop(), false)
	_, err := p.Apply([]addons.ConfPatch{
		{Guard: "statpost_url", Lines: []string{"statpost_url = x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AllStarLink appliance")
}

func TestApply_AddsNewlineBeforeBlock(t *testing.T) {
	path := writeConf(t, "[node-main]\nduplex = 2") // no trailing newline

	p := New(path, zap.NewNop(), false)
	_, err := p.Apply([]addons.ConfPatch{
		{Guard: "telemdefault", Lines: []string{"telemdefault = 1"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[node-main]\nduplex = 2\n\ntelemdefault = 1\n", string(data))
}

func TestApply_PreservesModeOnBackup(t *testing.T) {
	path := writeConf(t, baseConf)
	require.NoError(t, os.Chmod(path, 0600))

	p := New(path, zap.NewNop(), false)
	result, err := p.Apply([]addons.ConfPatch{
		{Guard: "telemdefault", Lines: []string{"telemdefault = 1"}},
	})
	require.NoError(t, err)

	info, err := os.Stat(result.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestApply_MultiLineBlockStaysTogether(t *testing.T) {
	path := writeConf(t, baseConf)
	patches := []addons.ConfPatch{
		{
			Guard: "USRP/127.0.0.1",
			Lines: []string{
				"[1999]",
				"rxchannel = USRP/127.0.0.1:34001:32001",
				"duplex = 0",
				"hangtime = 0",
				"telemdefault = 0",
			},
		},
	}

	p := New(path, zap.NewNop(), false)
	_, err := p.Apply(patches)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "\n[1999]\nrxchannel = USRP/127.0.0.1:34001:32001\nduplex = 0\nhangtime = 0\ntelemdefault = 0\n"
	assert.True(t, strings.HasSuffix(string(data), want), "block must be appended verbatim:\n%s", string(data))
}
