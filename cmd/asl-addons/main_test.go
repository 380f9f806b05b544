package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd, err := newRootCmd()
	require.NoError(t, err)

	assert.Equal(t, "asl-addons", cmd.Use)
	assert.Equal(t, "AllStarLink add-on installer", cmd.Short)
	assert.True(t, cmd.HasSubCommands())
}

func TestRootCmdFlags(t *testing.T) {
	cmd, err := newRootCmd()
	require.NoError(t, err)

	tests := []struct {
		name      string
		shorthand string
	}{
		{"allscan", "a"},
		{"supermon", "s"},
		{"skywarnplus", "w"},
		{"dvswitch", "d"},
	}

	for _, tt := range tests {
		flag := cmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "flag --%s should exist", tt.name)
		assert.Equal(t, tt.shorthand, flag.Shorthand, "flag --%s", tt.name)
	}

	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("dry-run"))
}

func TestRootCmdHelp(t *testing.T) {
	cmd, err := newRootCmd()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "asl-addons")
	assert.Contains(t, output, "list")
	assert.Contains(t, output, "doctor")
	assert.Contains(t, output, "status")
	assert.Contains(t, output, "--skywarnplus")
}

func TestRootCmdVersion(t *testing.T) {
	cmd, err := newRootCmd()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "dev")
}

func TestSubcommandHelp(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"list help", []string{"list", "--help"}, "grouped by category"},
		{"doctor help", []string{"doctor", "--help"}, "Exits non-zero"},
		{"status help", []string{"status", "--help"}, "receipts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := newRootCmd()
			require.NoError(t, err)

			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestListCmd(t *testing.T) {
	cmd, err := newRootCmd()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, name := range []string{"allscan", "supermon", "skywarnplus", "dvswitch"} {
		assert.Contains(t, output, name)
	}
	assert.Contains(t, output, "Web Dashboards")
}

func TestRootRequiresSelection(t *testing.T) {
	// Test processes have no terminal attached, so instead of the picker
	// the command asks for flags.
	cmd, err := newRootCmd()
	require.NoError(t, err)
	cmd.SilenceUsage = true

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no add-ons selected")
}

func TestDryRunInstall(t *testing.T) {
	dir := t.TempDir()
	rptConf := filepath.Join(dir, "rpt.conf")
	original := "[1999]\nrxchannel = dahdi/pseudo\n"
	require.NoError(t, os.WriteFile(rptConf, []byte(original), 0o644))

	t.Setenv("ASL_ADDONS_RPT_CONF", rptConf)
	t.Setenv("ASL_ADDONS_LOG_FILE", filepath.Join(dir, "run.log"))
	t.Setenv("ASL_ADDONS_WEB_ROOT", dir)
	t.Setenv("ASL_ADDONS_STATE_DIR", filepath.Join(dir, "state"))
	t.Setenv("ASL_ADDONS_DEFAULTS", filepath.Join(dir, "no-such-defaults"))

	cmd, err := newRootCmd()
	require.NoError(t, err)
	cmd.SilenceUsage = true

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--dry-run", "--allscan"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Would download")
	assert.Contains(t, output, "Dry run: would install allscan")

	// The node is untouched: same rpt.conf, no receipts.
	content, err := os.ReadFile(rptConf)
	require.NoError(t, err)
	assert.Equal(t, original, string(content))
	_, err = os.Stat(filepath.Join(dir, "state"))
	assert.True(t, os.IsNotExist(err))
}

func TestStatusCmdWithNoReceipts(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASL_ADDONS_STATE_DIR", dir)
	t.Setenv("ASL_ADDONS_DEFAULTS", filepath.Join(dir, "no-such-defaults"))

	cmd, err := newRootCmd()
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"status"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "allscan")
	assert.Contains(t, output, "not installed")
}
