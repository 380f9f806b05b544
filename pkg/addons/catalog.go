package addons

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawCatalog is the built-in add-on catalog. It ships inside the binary so
// the tool works on a freshly imaged appliance with no supporting files.
//
//go:embed catalog.yaml
var rawCatalog []byte

// catalogFile mirrors the YAML document structure.
type catalogFile struct {
	BasePackages []string `yaml:"base_packages"`
	Addons       []Addon  `yaml:"addons"`
}

// Load parses and validates the embedded catalog.
func Load() (*Registry, error) {
	return load(rawCatalog)
}

// load builds a registry from raw catalog YAML.
func load(data []byte) (*Registry, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse add-on catalog: %w", err)
	}

	if len(cf.Addons) == 0 {
		return nil, fmt.Errorf("add-on catalog is empty")
	}

	reg := NewRegistry()
	reg.BasePackages = cf.BasePackages

	for _, a := range cf.Addons {
		if err := validateAddon(a); err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", a.Name, err)
		}
		if _, dup := reg.ByName[a.Name]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate name", a.Name)
		}
		if _, dup := reg.ByFlag[a.Flag]; dup {
			return nil, fmt.Errorf("catalog entry %q: flag %q already used", a.Name, a.Flag)
		}
		reg.Add(a)
	}

	return reg, nil
}

// validateAddon checks a single catalog entry for the fields the install
// pipeline depends on.
func validateAddon(a Addon) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(a.Flag) != 1 {
		return fmt.Errorf("flag must be a single letter, got %q", a.Flag)
	}
	if strings.TrimSpace(a.DisplayName) == "" {
		return fmt.Errorf("display_name is required")
	}

	switch a.Category {
	case CategoryWeb, CategoryWeather, CategoryDigital:
	default:
		return fmt.Errorf("unknown category %q", a.Category)
	}

	u, err := url.Parse(a.Installer.URL)
	if err != nil {
		return fmt.Errorf("invalid installer url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("installer url must be http or https, got %q", a.Installer.URL)
	}

	if a.Installer.File == "" || strings.ContainsAny(a.Installer.File, "/\\") {
		return fmt.Errorf("installer file must be a bare filename, got %q", a.Installer.File)
	}
	if len(a.Installer.RunWith) == 0 {
		return fmt.Errorf("installer run_with is required")
	}
	if a.Installer.WorkDir != "" && a.Installer.WorkDir != WorkDirWebRoot {
		return fmt.Errorf("unknown installer workdir %q", a.Installer.WorkDir)
	}

	for i, p := range a.ConfPatches {
		if strings.TrimSpace(p.Guard) == "" {
			return fmt.Errorf("rpt_conf patch %d: guard is required", i)
		}
		if len(p.Lines) == 0 {
			return fmt.Errorf("rpt_conf patch %d: lines are required", i)
		}
	}

	return nil
}
