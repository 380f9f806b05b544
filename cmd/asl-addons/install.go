package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allstar-tools/asl-addons/pkg/addons"
	"github.com/allstar-tools/asl-addons/pkg/apt"
	"github.com/allstar-tools/asl-addons/pkg/config"
	"github.com/allstar-tools/asl-addons/pkg/download"
	"github.com/allstar-tools/asl-addons/pkg/installer"
	"github.com/allstar-tools/asl-addons/pkg/logging"
	"github.com/allstar-tools/asl-addons/pkg/state"
	"github.com/allstar-tools/asl-addons/pkg/terminal"
	"github.com/allstar-tools/asl-addons/pkg/tui"
)

// installOptions holds the flag values for the root command. One selection
// flag is registered per catalog entry, so the flag surface follows the
// catalog rather than a hardcoded list.
type installOptions struct {
	selected map[string]*bool
	verbose  bool
	dryRun   bool
}

func newInstallOptions(registry *addons.Registry) *installOptions {
	opts := &installOptions{selected: make(map[string]*bool)}
	for _, a := range registry.Addons {
		opts.selected[a.Name] = new(bool)
	}
	return opts
}

// selectedNames returns the names of the add-ons whose flags were set,
// in catalog order.
func (o *installOptions) selectedNames(registry *addons.Registry) []string {
	var names []string
	for _, a := range registry.Addons {
		if *o.selected[a.Name] {
			names = append(names, a.Name)
		}
	}
	return names
}

func runInstall(cmd *cobra.Command, registry *addons.Registry, opts *installOptions) error {
	names := opts.selectedNames(registry)

	if len(names) == 0 {
		if !terminal.IsInteractive() {
			return fmt.Errorf("no add-ons selected (use -a, -s, -w, or -d; see --help)")
		}
		picked, err := tui.RunPicker(registry)
		if err != nil {
			return err
		}
		if len(picked) == 0 {
			cmd.Println("Nothing selected.")
			return nil
		}
		names = picked
	}

	// Installers write under the web root and /etc, so a real run needs
	// root. A dry run touches nothing and can run as anyone.
	if !opts.dryRun && os.Geteuid() != 0 {
		return fmt.Errorf("must run as root to install add-ons (re-run with sudo, or use --dry-run to preview)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog := logging.New(cfg.LogFile, opts.verbose)
	defer closeLog()

	runner := &installer.Runner{
		Config:   cfg,
		Registry: registry,
		Apt:      apt.New(logger, opts.dryRun),
		Scripts:  installer.ExecScriptRunner{},
		Fetch:    download.Fetch,
		Receipts: state.NewStore(cfg.StateDir),
		Log:      logger,
		DryRun:   opts.dryRun,
		RunID:    uuid.New().String(),
	}

	selected := registry.Select(names)

	// Verbose mode tees debug logs to stderr, which would fight the
	// full-screen view for the terminal.
	var result *installer.Result
	if terminal.IsInteractive() && !opts.verbose {
		result, err = tui.RunInstall(cmd.Context(), runner, selected)
	} else {
		result, err = runner.Run(cmd.Context(), selected, plainProgress(cmd))
	}
	if err != nil {
		logger.Error("install failed", zap.Error(err))
		return err
	}

	printSummary(cmd, cfg, result, opts.dryRun)
	return nil
}

// plainProgress prints install progress as plain lines, for logs and
// non-interactive shells.
func plainProgress(cmd *cobra.Command) installer.ProgressCallback {
	return func(e installer.ProgressEvent) {
		switch {
		case e.IsError:
			cmd.PrintErrln(tui.ErrorStyle.Render("✗") + " " + e.Message)
		case e.Stage == installer.StageComplete:
			cmd.Println(tui.SuccessStyle.Render("✓") + " " + e.Message)
		case e.Detail != "":
			// Installer output already goes to the debug log.
		default:
			cmd.Println(tui.InfoStyle.Render("•") + " " + e.Message)
		}
	}
}

func printSummary(cmd *cobra.Command, cfg *config.Config, result *installer.Result, dryRun bool) {
	cmd.Println()
	if dryRun {
		cmd.Printf("Dry run: would install %s\n", strings.Join(result.Installed, ", "))
	} else {
		cmd.Printf("Installed %s in %s\n",
			strings.Join(result.Installed, ", "), result.Duration.Round(time.Second))
	}
	if result.BackupPath != "" {
		cmd.Printf("rpt.conf backup: %s\n", result.BackupPath)
	}
	cmd.Printf("Log: %s\n", cfg.LogFile)
	if !dryRun {
		cmd.Println("Restart Asterisk to pick up rpt.conf changes: systemctl restart asterisk")
	}
}
