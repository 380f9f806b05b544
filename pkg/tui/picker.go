package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/allstar-tools/asl-addons/pkg/addons"
)

// RunPicker shows the interactive add-on picker and returns the chosen
// names. A nil slice means the user selected nothing or backed out of the
// confirmation.
func RunPicker(registry *addons.Registry) ([]string, error) {
	var selected []string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select add-ons").
				Description("Space toggles, Enter confirms").
				Options(buildAddonOptions(registry)...).
				Value(&selected),
		).Title("AllStarLink add-ons"),
	).WithTheme(Theme())

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	if len(selected) == 0 {
		return nil, nil
	}

	confirmed, err := confirmInstall(registry, selected)
	if err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, nil
	}

	return selected, nil
}

// confirmInstall asks before anything touches the node.
func confirmInstall(registry *addons.Registry, selected []string) (bool, error) {
	names := make([]string, 0, len(selected))
	for _, a := range registry.Select(selected) {
		names = append(names, a.DisplayName)
	}

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Install %d add-on(s)?", len(names))).
				Description(strings.Join(names, ", ")).
				Affirmative("Yes, install").
				Negative("No, cancel").
				Value(&confirmed),
		),
	).WithTheme(Theme())

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}

	return confirmed, nil
}

// buildAddonOptions creates huh options from the catalog, grouped by
// category in display order.
func buildAddonOptions(registry *addons.Registry) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(registry.Addons))

	for _, category := range registry.Categories() {
		for _, a := range registry.ByCategory[category] {
			label := a.DisplayName
			if a.Description != "" {
				label = fmt.Sprintf("%s - %s", a.DisplayName, a.Description)
			}
			options = append(options, huh.NewOption(label, a.Name))
		}
	}

	return options
}
