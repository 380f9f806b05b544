package main

import (
	"github.com/spf13/cobra"

	"github.com/allstar-tools/asl-addons/pkg/addons"
	"github.com/allstar-tools/asl-addons/pkg/tui"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available add-ons",
		Long:  `List the add-ons this tool can install, grouped by category.`,
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	registry, err := addons.Load()
	if err != nil {
		return err
	}

	for _, category := range registry.Categories() {
		cmd.Println(tui.TitleStyle.Render(string(category)))
		for _, a := range registry.ByCategory[category] {
			cmd.Printf("  -%s, --%-12s %s\n", a.Flag, a.Name, a.Description)
			cmd.Printf("      %s\n", tui.DimStyle.Render(a.Homepage))
		}
		cmd.Println()
	}
	return nil
}
