package installer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ScriptSpec describes one installer script invocation.
type ScriptSpec struct {
	// Command is the full argv, interpreter first (e.g. ["bash", "/tmp/x/swp-install"]).
	Command []string

	// Dir is the working directory for the script.
	Dir string

	// OnOutput receives each output line as the script produces it.
	// May be nil.
	OnOutput func(line string)
}

// ScriptRunner executes a downloaded installer script.
type ScriptRunner interface {
	RunScript(ctx context.Context, spec ScriptSpec) error
}

// ExecScriptRunner runs installer scripts as real subprocesses.
type ExecScriptRunner struct{}

// RunScript executes the script, streaming combined stdout and stderr
// line by line to spec.OnOutput. Installers get a noninteractive apt
// frontend since they run unattended.
func (ExecScriptRunner) RunScript(ctx context.Context, spec ScriptSpec) error {
	if len(spec.Command) == 0 {
		return fmt.Errorf("empty installer command")
	}

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")

	out := &lineWriter{emit: spec.OnOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	out.flush()

	if err != nil {
		if last := out.lastLine(); last != "" {
			return fmt.Errorf("installer failed: %s", last)
		}
		return fmt.Errorf("installer failed: %w", err)
	}
	return nil
}

// lineWriter splits a byte stream into lines and hands each one to emit.
// exec.Cmd serializes writes when stdout and stderr share a writer, so no
// locking is needed.
type lineWriter struct {
	emit func(string)
	buf  bytes.Buffer
	last string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line, keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}
		w.emitLine(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// flush emits any trailing output that did not end in a newline.
func (w *lineWriter) flush() {
	if w.buf.Len() > 0 {
		w.emitLine(strings.TrimRight(w.buf.String(), "\r\n"))
		w.buf.Reset()
	}
}

func (w *lineWriter) emitLine(line string) {
	if strings.TrimSpace(line) != "" {
		w.last = line
	}
	if w.emit != nil {
		w.emit(line)
	}
}

// lastLine returns the final non-empty output line, useful for error
// context when a script dies.
func (w *lineWriter) lastLine() string {
	return w.last
}
