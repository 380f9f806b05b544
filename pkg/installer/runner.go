// Package installer orchestrates add-on installation on an AllStarLink
// node: prerequisite packages, installer download and execution, rpt.conf
// patching, and install receipts. Work is sequential and fail-fast so a
// broken step never leaves later add-ons half-installed on top of it.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allstar-tools/asl-addons/pkg/addons"
	"github.com/allstar-tools/asl-addons/pkg/apt"
	"github.com/allstar-tools/asl-addons/pkg/config"
	"github.com/allstar-tools/asl-addons/pkg/download"
	"github.com/allstar-tools/asl-addons/pkg/rptconf"
	"github.com/allstar-tools/asl-addons/pkg/state"
)

// FetchFunc downloads one installer. It matches download.Fetch and is a
// field so tests can substitute a fake.
type FetchFunc func(ctx context.Context, opts download.Options) error

// ReceiptWriter records completed installs.
type ReceiptWriter interface {
	Record(r state.Receipt) error
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	Installed  []string
	BackupPath string
	Duration   time.Duration
}

// Runner installs a selection of add-ons.
type Runner struct {
	Config   *config.Config
	Registry *addons.Registry
	Apt      *apt.Manager
	Scripts  ScriptRunner
	Fetch    FetchFunc
	Receipts ReceiptWriter
	Log      *zap.Logger
	DryRun   bool
	RunID    string
}

// Run installs the selected add-ons in order, stopping at the first
// failure. Progress events are delivered to cb; pass nil to run quietly.
func (r *Runner) Run(ctx context.Context, selected []addons.Addon, cb ProgressCallback) (*Result, error) {
	if cb == nil {
		cb = NoOpProgress
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no add-ons selected")
	}

	start := time.Now()
	total := len(selected)

	r.Log.Info("starting install run",
		zap.String("run_id", r.RunID),
		zap.Strings("addons", addonNames(selected)),
		zap.Bool("dry_run", r.DryRun))

	cb(NewProgressEvent(StagePackages, "Ensuring web server packages", 2))
	if err := r.Apt.EnsureInstalled(ctx, r.Registry.BasePackages); err != nil {
		cb(NewErrorEvent(err.Error()))
		return nil, fmt.Errorf("base packages: %w", err)
	}

	cb(NewProgressEvent(StagePreflight, "Preparing scratch directory", 4))
	scratch, err := os.MkdirTemp("", "asl-addons-*")
	if err != nil {
		cb(NewErrorEvent(err.Error()))
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		if err := os.RemoveAll(scratch); err != nil {
			r.Log.Warn("failed to remove scratch directory",
				zap.String("dir", scratch), zap.Error(err))
		}
	}
	defer cleanup()
	r.Log.Debug("created scratch directory", zap.String("dir", scratch))

	patcher := rptconf.New(r.Config.RptConf, r.Log, r.DryRun)

	var installed []string
	for i, addon := range selected {
		if err := r.installOne(ctx, addon, scratch, patcher, cb, percentFor(i, total)); err != nil {
			cb(NewErrorEvent(fmt.Sprintf("%s: %v", addon.DisplayName, err)))
			return nil, fmt.Errorf("%s: %w", addon.Name, err)
		}
		installed = append(installed, addon.Name)
	}

	cb(NewProgressEvent(StageCleanup, "Removing scratch directory", percentFor(total, total)))
	cleanup()

	summary := "All selected add-ons installed"
	if r.DryRun {
		summary = "Dry run complete, nothing was changed"
	}
	cb(NewProgressEvent(StageComplete, summary, 100))

	result := &Result{
		RunID:      r.RunID,
		Installed:  installed,
		BackupPath: patcher.BackupPath(),
		Duration:   time.Since(start),
	}
	r.Log.Info("install run finished",
		zap.String("run_id", r.RunID),
		zap.Strings("installed", result.Installed),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (r *Runner) installOne(ctx context.Context, addon addons.Addon, scratch string, patcher *rptconf.Patcher, cb ProgressCallback, percent int) error {
	log := r.Log.With(zap.String("addon", addon.Name))

	if len(addon.Packages) > 0 {
		msg := fmt.Sprintf("Installing packages for %s", addon.DisplayName)
		if r.DryRun {
			msg = fmt.Sprintf("Would install packages for %s", addon.DisplayName)
		}
		cb(NewAddonEvent(StagePackages, addon.Name, msg, percent))
		if err := r.Apt.EnsureInstalled(ctx, addon.Packages); err != nil {
			return fmt.Errorf("packages: %w", err)
		}
	}

	dest := filepath.Join(scratch, addon.Installer.File)
	if r.DryRun {
		cb(NewAddonEvent(StageDownload, addon.Name,
			fmt.Sprintf("Would download %s", addon.Installer.URL), percent))
		log.Info("dry run: would download installer", zap.String("url", addon.Installer.URL))
	} else {
		cb(NewAddonEvent(StageDownload, addon.Name,
			fmt.Sprintf("Downloading %s installer", addon.DisplayName), percent))
		opts := download.Options{
			URL:      addon.Installer.URL,
			DestPath: dest,
			OnAttempt: func(attempt int) {
				if attempt > 1 {
					log.Warn("retrying download",
						zap.String("url", addon.Installer.URL),
						zap.Int("attempt", attempt))
				}
			},
		}
		if err := r.Fetch(ctx, opts); err != nil {
			return fmt.Errorf("download: %w", err)
		}
		log.Info("downloaded installer",
			zap.String("url", addon.Installer.URL),
			zap.String("dest", dest))
	}

	command := append(append([]string{}, addon.Installer.RunWith...), dest)
	workDir := scratch
	if addon.Installer.WorkDir == addons.WorkDirWebRoot {
		workDir = r.Config.WebRoot
	}
	display := strings.Join(append(append([]string{}, addon.Installer.RunWith...), addon.Installer.File), " ")

	if r.DryRun {
		cb(NewAddonEvent(StageExecute, addon.Name,
			fmt.Sprintf("Would run %s in %s", display, workDir), percent))
		log.Info("dry run: would run installer",
			zap.String("command", display), zap.String("dir", workDir))
	} else {
		ev := NewAddonEvent(StageExecute, addon.Name,
			fmt.Sprintf("Running %s installer", addon.DisplayName), percent)
		ev.Command = display
		cb(ev)
		log.Info("running installer", zap.String("command", display), zap.String("dir", workDir))

		spec := ScriptSpec{
			Command: command,
			Dir:     workDir,
			OnOutput: func(line string) {
				log.Debug("installer output", zap.String("line", line))
				out := NewAddonEvent(StageExecute, addon.Name,
					fmt.Sprintf("Running %s installer", addon.DisplayName), percent)
				out.Detail = line
				cb(out)
			},
		}
		if err := r.Scripts.RunScript(ctx, spec); err != nil {
			return err
		}
	}

	if len(addon.PostPackages) > 0 {
		msg := fmt.Sprintf("Installing %s packages", addon.DisplayName)
		if r.DryRun {
			msg = fmt.Sprintf("Would install %s packages", addon.DisplayName)
		}
		cb(NewAddonEvent(StagePackages, addon.Name, msg, percent))
		if err := r.Apt.EnsureInstalled(ctx, addon.PostPackages); err != nil {
			return fmt.Errorf("post-install packages: %w", err)
		}
	}

	if len(addon.ConfPatches) > 0 {
		msg := "Updating rpt.conf"
		if r.DryRun {
			msg = "Would update rpt.conf"
		}
		cb(NewAddonEvent(StageConfigure, addon.Name, msg, percent))
		patched, err := patcher.Apply(addon.ConfPatches)
		if err != nil {
			return fmt.Errorf("rpt.conf: %w", err)
		}
		if len(patched.Skipped) > 0 {
			log.Info("rpt.conf entries already present", zap.Strings("guards", patched.Skipped))
		}
	}

	if addon.VerifyPath != "" && !r.DryRun {
		cb(NewAddonEvent(StageVerify, addon.Name,
			fmt.Sprintf("Verifying %s", addon.DisplayName), percent))
		if _, err := os.Stat(addon.VerifyPath); err != nil {
			// The installer claimed success, so treat a missing path as
			// suspicious rather than fatal.
			log.Warn("expected path missing after install",
				zap.String("path", addon.VerifyPath))
			ev := NewAddonEvent(StageVerify, addon.Name,
				fmt.Sprintf("%s finished but %s is missing", addon.DisplayName, addon.VerifyPath), percent)
			cb(ev)
		}
	}

	if !r.DryRun && r.Receipts != nil {
		receipt := state.Receipt{
			Addon:        addon.Name,
			InstallerURL: addon.Installer.URL,
			RunID:        r.RunID,
			InstalledAt:  time.Now(),
		}
		if err := r.Receipts.Record(receipt); err != nil {
			// A receipt is bookkeeping, not part of the install itself.
			log.Warn("failed to record install receipt", zap.Error(err))
		}
	}

	log.Info("add-on complete")
	return nil
}

// percentFor spreads progress across the selected add-ons, reserving a
// small slice at the start for run-wide setup.
func percentFor(done, total int) int {
	if total == 0 {
		return 100
	}
	return 5 + (done*90)/total
}

func addonNames(selected []addons.Addon) []string {
	names := make([]string, len(selected))
	for i, a := range selected {
		names[i] = a.Name
	}
	return names
}
