package installer

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineWriter_SplitsLines(t *testing.T) {
	var lines []string
	w := &lineWriter{emit: func(line string) { lines = append(lines, line) }}

	_, err := w.Write([]byte("first\nsec"))
	require.NoError(t, err)
	_, err = w.Write([]byte("ond\nthird"))
	require.NoError(t, err)
	w.flush()

	assert.Equal(t, []string{"first", "second", "third"}, lines)
	assert.Equal(t, "third", w.lastLine())
}

func TestLineWriter_StripsCarriageReturns(t *testing.T) {
	var lines []string
	w := &lineWriter{emit: func(line string) { lines = append(lines, line) }}

	_, err := w.Write([]byte("progress 50%\r\nprogress 100%\r\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"progress 50%", "progress 100%"}, lines)
}

func TestLineWriter_LastLineSkipsBlanks(t *testing.T) {
	w := &lineWriter{}

	_, err := w.Write([]byte("E: Unable to locate package foo\n\n   \n"))
	require.NoError(t, err)

	assert.Equal(t, "E: Unable to locate package foo", w.lastLine())
}

func TestLineWriter_NilEmitIsSafe(t *testing.T) {
	w := &lineWriter{}

	_, err := w.Write([]byte("anything\n"))
	require.NoError(t, err)
	w.flush()

	assert.Equal(t, "anything", w.lastLine())
}

func TestRunScript_EmptyCommand(t *testing.T) {
	err := ExecScriptRunner{}.RunScript(context.Background(), ScriptSpec{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty installer command")
}

func TestRunScript_StreamsOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	var lines []string
	spec := ScriptSpec{
		Command:  []string{"sh", "-c", "echo one; echo two"},
		Dir:      t.TempDir(),
		OnOutput: func(line string) { lines = append(lines, line) },
	}

	err := ExecScriptRunner{}.RunScript(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestRunScript_FailureSurfacesLastLine(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	spec := ScriptSpec{
		Command: []string{"sh", "-c", "echo started; echo fatal: no such node >&2; exit 3"},
		Dir:     t.TempDir(),
	}

	err := ExecScriptRunner{}.RunScript(context.Background(), spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fatal: no such node")
}
