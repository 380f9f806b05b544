// Package apt wraps the Debian package tooling the appliance ships with.
// Installs are idempotent: packages already present are skipped, and
// apt-get update runs at most once per process.
package apt

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes package tool commands and returns combined output.
// Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host with a non-interactive frontend.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	return cmd.CombinedOutput()
}

// Manager installs Debian packages.
type Manager struct {
	run     Runner
	log     *zap.Logger
	dryRun  bool
	updated bool
}

// New creates a Manager backed by the host's apt tooling.
func New(log *zap.Logger, dryRun bool) *Manager {
	return NewWithRunner(ExecRunner{}, log, dryRun)
}

// NewWithRunner creates a Manager with a custom runner.
func NewWithRunner(run Runner, log *zap.Logger, dryRun bool) *Manager {
	return &Manager{run: run, log: log, dryRun: dryRun}
}

// Installed reports whether pkg is already installed, per dpkg's database.
func (m *Manager) Installed(ctx context.Context, pkg string) bool {
	_, err := m.run.Run(ctx, "dpkg", "-s", pkg)
	return err == nil
}

// EnsureInstalled installs whichever of pkgs are missing. The package
// lists are refreshed once per process, and only when an install is
// actually needed. In dry-run mode the missing set is logged and nothing
// is executed.
func (m *Manager) EnsureInstalled(ctx context.Context, pkgs []string) error {
	var missing []string
	for _, pkg := range pkgs {
		if m.Installed(ctx, pkg) {
			m.log.Debug("package already installed", zap.String("package", pkg))
			continue
		}
		missing = append(missing, pkg)
	}

	if len(missing) == 0 {
		return nil
	}

	if m.dryRun {
		m.log.Info("dry run: would install packages", zap.Strings("packages", missing))
		return nil
	}

	if !m.updated {
		m.log.Info("updating package lists")
		if out, err := m.run.Run(ctx, "apt-get", "update"); err != nil {
			return commandError("apt-get update failed", out, err)
		}
		m.updated = true
	}

	m.log.Info("installing packages", zap.Strings("packages", missing))
	args := append([]string{"install", "-y"}, missing...)
	if out, err := m.run.Run(ctx, "apt-get", args...); err != nil {
		return commandError(fmt.Sprintf("apt-get install failed for %s", strings.Join(missing, " ")), out, err)
	}

	return nil
}

// commandError surfaces apt's error summary, which sits on the last
// non-empty output line.
func commandError(what string, out []byte, err error) error {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return fmt.Errorf("%s: %s", what, l)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
