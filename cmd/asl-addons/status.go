package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/allstar-tools/asl-addons/pkg/addons"
	"github.com/allstar-tools/asl-addons/pkg/config"
	"github.com/allstar-tools/asl-addons/pkg/state"
	"github.com/allstar-tools/asl-addons/pkg/tui"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which add-ons this tool has installed",
		Long: `Show the install record for each add-on in the catalog, based on the
receipts written after successful installs.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	registry, err := addons.Load()
	if err != nil {
		return err
	}

	receipts, err := state.NewStore(cfg.StateDir).Load()
	if err != nil {
		return err
	}
	byName := make(map[string]state.Receipt, len(receipts))
	for _, r := range receipts {
		byName[r.Addon] = r
	}

	for _, a := range registry.Addons {
		r, ok := byName[a.Name]
		switch {
		case !ok:
			cmd.Printf("  %s %-12s not installed\n", tui.DimStyle.Render("-"), a.Name)
		case a.VerifyPath != "" && !pathExists(a.VerifyPath):
			// Installed per the receipt, but the files are gone.
			cmd.Printf("  %s %-12s installed %s, but %s is missing\n",
				tui.WarningStyle.Render("!"), a.Name,
				r.InstalledAt.Format("2006-01-02 15:04"), a.VerifyPath)
		default:
			cmd.Printf("  %s %-12s installed %s\n",
				tui.SuccessStyle.Render("✓"), a.Name,
				r.InstalledAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
