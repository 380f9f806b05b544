// Package addons defines the catalog of installable AllStarLink add-ons.
package addons

// Category represents a grouping of related add-ons.
type Category string

const (
	CategoryWeb     Category = "Web Dashboards"
	CategoryWeather Category = "Weather Alerts"
	CategoryDigital Category = "Digital Voice"
)

// WorkDirWebRoot selects the web document root as an installer's working
// directory. Any other non-empty value is rejected at catalog load.
const WorkDirWebRoot = "web-root"

// Installer describes how to fetch and run an add-on's upstream installer.
type Installer struct {
	// URL is where the installer is downloaded from. Some upstreams only
	// publish over plain HTTP.
	URL string `yaml:"url"`

	// File is the name the installer is saved under in the scratch dir.
	File string `yaml:"file"`

	// RunWith is the argv prefix used to execute the installer,
	// e.g. ["php"] or ["bash"].
	RunWith []string `yaml:"run_with"`

	// WorkDir selects the working directory for execution: "web-root" for
	// the web document root, empty for the scratch directory.
	WorkDir string `yaml:"workdir"`
}

// ConfPatch is an idempotent block of lines for the shared rpt.conf.
// Guard is a literal substring; when any line of the file contains it the
// patch is considered already applied and Lines are not written.
type ConfPatch struct {
	Guard string   `yaml:"guard"`
	Lines []string `yaml:"lines"`
}

// Addon represents one installable add-on from the catalog.
type Addon struct {
	// Name is the add-on identifier (e.g., "allscan")
	Name string `yaml:"name"`

	// DisplayName is a human-readable name
	DisplayName string `yaml:"display_name"`

	// Flag is the single-letter CLI flag that selects this add-on
	Flag string `yaml:"flag"`

	// Description is a brief description shown in listings and the picker
	Description string `yaml:"description"`

	// Homepage is the upstream project page
	Homepage string `yaml:"homepage"`

	// Category groups add-ons in listings and the picker
	Category Category `yaml:"category"`

	// Packages are Debian packages required before the installer runs
	Packages []string `yaml:"packages"`

	// PostPackages are Debian packages installed after the installer runs.
	// DVSwitch's installer only registers an apt repository; the server
	// package comes from that repository afterwards.
	PostPackages []string `yaml:"post_packages"`

	// Installer describes the upstream installer fetch and execution
	Installer Installer `yaml:"installer"`

	// ConfPatches are applied to rpt.conf after a successful install
	ConfPatches []ConfPatch `yaml:"rpt_conf"`

	// VerifyPath, when set, is a path expected to exist after install
	VerifyPath string `yaml:"verify_path"`
}

// Registry holds the loaded add-on catalog.
// Note: Registry is not thread-safe and should not be modified concurrently.
type Registry struct {
	// BasePackages are ensured once per run before any add-on installs
	BasePackages []string

	// Addons is the ordered list of all add-ons; install order follows it
	Addons []Addon

	// ByName provides lookup by add-on name (stores copies, not pointers)
	ByName map[string]Addon

	// ByFlag provides lookup by CLI flag letter
	ByFlag map[string]Addon

	// ByCategory groups add-ons by their category
	ByCategory map[Category][]Addon
}

// NewRegistry creates an empty add-on registry.
func NewRegistry() *Registry {
	return &Registry{
		Addons:     make([]Addon, 0, 4),
		ByName:     make(map[string]Addon),
		ByFlag:     make(map[string]Addon),
		ByCategory: make(map[Category][]Addon),
	}
}

// Add adds an add-on to the registry.
func (r *Registry) Add(a Addon) {
	r.Addons = append(r.Addons, a)
	r.ByName[a.Name] = a
	r.ByFlag[a.Flag] = a

	if _, ok := r.ByCategory[a.Category]; !ok {
		r.ByCategory[a.Category] = make([]Addon, 0)
	}
	r.ByCategory[a.Category] = append(r.ByCategory[a.Category], a)
}

// Get returns an add-on by name, or nil if not found.
func (r *Registry) Get(name string) *Addon {
	if a, ok := r.ByName[name]; ok {
		return &a
	}
	return nil
}

// Names returns all add-on names in catalog order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.Addons))
	for i, a := range r.Addons {
		names[i] = a.Name
	}
	return names
}

// Categories returns the categories that have add-ons, in display order.
func (r *Registry) Categories() []Category {
	order := []Category{CategoryWeb, CategoryWeather, CategoryDigital}
	result := make([]Category, 0)
	for _, cat := range order {
		if as, ok := r.ByCategory[cat]; ok && len(as) > 0 {
			result = append(result, cat)
		}
	}
	return result
}

// Select returns the add-ons matching the given names, in catalog order.
// Selection is a set: duplicates collapse, and the order names were given
// in does not matter.
func (r *Registry) Select(names []string) []Addon {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	selected := make([]Addon, 0, len(wanted))
	for _, a := range r.Addons {
		if wanted[a.Name] {
			selected = append(selected, a)
		}
	}
	return selected
}
