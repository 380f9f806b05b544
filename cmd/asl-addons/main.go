// Package main provides the asl-addons CLI for installing add-ons onto
// an AllStarLink node.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/allstar-tools/asl-addons/pkg/addons"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd, err := newRootCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Cobra handles error printing
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command. Running it with no subcommand
// installs the selected add-ons, which is how node operators call the
// tool day to day.
func newRootCmd() (*cobra.Command, error) {
	registry, err := addons.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load add-on catalog: %w", err)
	}

	opts := newInstallOptions(registry)

	rootCmd := &cobra.Command{
		Use:   "asl-addons",
		Short: "AllStarLink add-on installer",
		Long: `asl-addons installs popular add-ons onto an AllStarLink node: the
AllScan and Supermon web dashboards, SkywarnPlus weather alerts, and the
DVSwitch digital voice server.

Select add-ons with flags, or run with no flags on a terminal for an
interactive picker:

  asl-addons -a -s          install AllScan and Supermon
  asl-addons -d --dry-run   preview a DVSwitch install
  asl-addons doctor         check the node before installing`,
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, registry, opts)
		},
	}

	for _, a := range registry.Addons {
		rootCmd.Flags().BoolVarP(opts.selected[a.Name], a.Name, a.Flag, false,
			fmt.Sprintf("Install %s", a.DisplayName))
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&opts.dryRun, "dry-run", "t", false,
		"Show what would be done without changing the node")

	rootCmd.AddCommand(
		newListCmd(),
		newDoctorCmd(),
		newStatusCmd(),
	)

	return rootCmd, nil
}
