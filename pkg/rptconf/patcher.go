// Package rptconf patches the shared Asterisk rpt.conf. The file is
// treated as an opaque line-oriented blob: patches are appended blocks,
// each protected by a guard substring so a second run never duplicates
// an already-inserted block.
package rptconf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allstar-tools/asl-addons/pkg/addons"
)

// backupTimeFormat names backups like rpt.conf.bak.20260825-101201.
const backupTimeFormat = "20060102-150405"

// Result reports what one Apply call did.
type Result struct {
	// BackupPath is the backup protecting this run's writes; empty when
	// no write has happened yet.
	BackupPath string

	// Applied holds the guards of patches written (or, in dry runs,
	// that would be written).
	Applied []string

	// Skipped holds the guards of patches already present.
	Skipped []string
}

// Patcher applies idempotent patches to one config file. A single
// timestamped backup is taken before the first write and shared by every
// Apply call on the same Patcher, so one run produces at most one backup.
type Patcher struct {
	path   string
	log    *zap.Logger
	dryRun bool
	backup string
}

// New creates a Patcher for the config file at path.
func New(path string, log *zap.Logger, dryRun bool) *Patcher {
	return &Patcher{path: path, log: log, dryRun: dryRun}
}

// BackupPath returns the backup taken this run, or empty if nothing has
// been written.
func (p *Patcher) BackupPath() string {
	return p.backup
}

// Apply appends the patches whose guards are absent from the file.
// Already-present patches are skipped. Dry runs report what would be
// appended without touching the file or taking a backup.
func (p *Patcher) Apply(patches []addons.ConfPatch) (*Result, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s (is this an AllStarLink appliance?): %w", p.path, err)
	}
	content := string(data)

	result := &Result{BackupPath: p.backup}
	var pending []addons.ConfPatch

	for _, patch := range patches {
		if strings.Contains(content, patch.Guard) {
			p.log.Debug("config patch already present",
				zap.String("file", p.path),
				zap.String("guard", patch.Guard))
			result.Skipped = append(result.Skipped, patch.Guard)
			continue
		}
		pending = append(pending, patch)
		result.Applied = append(result.Applied, patch.Guard)
	}

	if len(pending) == 0 {
		return result, nil
	}

	if p.dryRun {
		for _, patch := range pending {
			p.log.Info("dry run: would append config block",
				zap.String("file", p.path),
				zap.String("guard", patch.Guard),
				zap.Strings("lines", patch.Lines))
		}
		return result, nil
	}

	if p.backup == "" {
		backup, err := p.writeBackup(data)
		if err != nil {
			return nil, err
		}
		p.backup = backup
		p.log.Info("backed up config file",
			zap.String("file", p.path),
			zap.String("backup", backup))
	}
	result.BackupPath = p.backup

	var sb strings.Builder
	sb.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		sb.WriteString("\n")
	}
	for _, patch := range pending {
		sb.WriteString("\n")
		for _, line := range patch.Lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if err := os.WriteFile(p.path, []byte(sb.String()), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", p.path, err)
	}

	p.log.Info("patched config file",
		zap.String("file", p.path),
		zap.Strings("guards", result.Applied))

	return result, nil
}

// writeBackup copies the current file content aside, preserving mode.
func (p *Patcher) writeBackup(data []byte) (string, error) {
	mode := os.FileMode(0644)
	if info, err := os.Stat(p.path); err == nil {
		mode = info.Mode().Perm()
	}

	backup := fmt.Sprintf("%s.bak.%s", p.path, time.Now().Format(backupTimeFormat))
	if err := os.WriteFile(backup, data, mode); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", p.path, err)
	}
	return backup, nil
}
