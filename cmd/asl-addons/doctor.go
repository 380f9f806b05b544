package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allstar-tools/asl-addons/pkg/config"
	"github.com/allstar-tools/asl-addons/pkg/doctor"
	"github.com/allstar-tools/asl-addons/pkg/tui"
)

func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host is ready for add-ons",
		Long: `Check the host for the things add-ons rely on: the AllStarLink node
software, the web stack, Python, package tooling, and scratch space.

Exits non-zero when a required piece is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Install missing requirements with apt")

	return cmd
}

func runDoctor(cmd *cobra.Command, fix bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	checker := doctor.NewChecker(cfg)
	groups := checker.CheckAll()
	printGroups(cmd, groups)

	if fix && checker.HasIssues(groups) {
		if os.Geteuid() != 0 {
			return fmt.Errorf("--fix must run as root")
		}
		cmd.Println("Fixing what apt can fix...")
		fixed, fixErr := doctor.NewFixer().FixAll(groups)
		for _, id := range fixed {
			cmd.Printf("  %s fixed %s\n", tui.SuccessStyle.Render("✓"), id)
		}
		if fixErr != nil {
			return fixErr
		}
		cmd.Println()
		groups = checker.CheckAll()
		printGroups(cmd, groups)
	}

	summary := checker.GetSummary(groups)
	cmd.Printf("%d checks: %d ok, %d missing, %d warnings, %d errors\n",
		summary.Total, summary.OK, summary.Missing, summary.Warnings, summary.Errors)

	if checker.HasIssues(groups) {
		return fmt.Errorf("this host is not ready for add-ons (see failed checks above)")
	}
	return nil
}

func printGroups(cmd *cobra.Command, groups []doctor.CheckGroup) {
	for _, group := range groups {
		cmd.Println(tui.TitleStyle.Render(group.Name))
		for _, check := range group.Checks {
			cmd.Printf("  %s %-16s %s\n", statusIcon(check.Status), check.Name, check.Message)
			if check.Status != doctor.StatusOK && check.FixCommand != nil {
				cmd.Printf("      %s\n", tui.DimStyle.Render("fix: "+check.FixCommand.Command))
			}
		}
		cmd.Println()
	}
}

func statusIcon(status doctor.CheckStatus) string {
	switch status {
	case doctor.StatusOK:
		return tui.SuccessStyle.Render("✓")
	case doctor.StatusWarning:
		return tui.WarningStyle.Render("!")
	default:
		return tui.ErrorStyle.Render("✗")
	}
}
