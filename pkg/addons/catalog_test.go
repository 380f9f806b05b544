package addons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"allscan", "supermon", "skywarnplus", "dvswitch"}, reg.Names())
	assert.NotEmpty(t, reg.BasePackages)
	assert.Contains(t, reg.BasePackages, "apache2")
	assert.Contains(t, reg.BasePackages, "php")
}

func TestLoad_Flags(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		flag string
		name string
	}{
		{"a", "allscan"},
		{"s", "supermon"},
		{"w", "skywarnplus"},
		{"d", "dvswitch"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			a, ok := reg.ByFlag[tt.flag]
			require.True(t, ok, "flag %s should map to an add-on", tt.flag)
			assert.Equal(t, tt.name, a.Name)
		})
	}
}

func TestLoad_InstallerFields(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	for _, a := range reg.Addons {
		t.Run(a.Name, func(t *testing.T) {
			assert.NotEmpty(t, a.Installer.URL)
			assert.NotEmpty(t, a.Installer.File)
			assert.NotEmpty(t, a.Installer.RunWith)
			assert.NotEmpty(t, a.DisplayName)
			assert.NotEmpty(t, a.Description)
		})
	}

	// AllScan runs from the web root with php
	allscan := reg.Get("allscan")
	require.NotNil(t, allscan)
	assert.Equal(t, WorkDirWebRoot, allscan.Installer.WorkDir)
	assert.Equal(t, []string{"php"}, allscan.Installer.RunWith)

	// DVSwitch installs the server package after its repo bootstrap
	dvswitch := reg.Get("dvswitch")
	require.NotNil(t, dvswitch)
	assert.Contains(t, dvswitch.PostPackages, "dvswitch-server")
}

func TestLoad_ConfPatches(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	// AllScan does not touch rpt.conf; the other three do
	assert.Empty(t, reg.Get("allscan").ConfPatches)
	assert.NotEmpty(t, reg.Get("supermon").ConfPatches)
	assert.NotEmpty(t, reg.Get("skywarnplus").ConfPatches)
	assert.NotEmpty(t, reg.Get("dvswitch").ConfPatches)

	for _, a := range reg.Addons {
		for _, p := range a.ConfPatches {
			assert.NotEmpty(t, p.Guard, "%s patch needs a guard", a.Name)
			assert.NotEmpty(t, p.Lines, "%s patch needs lines", a.Name)
		}
	}
}

func TestLoadInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "addons: [unclosed",
			wantErr: "failed to parse",
		},
		{
			name:    "empty catalog",
			yaml:    "base_packages: [curl]",
			wantErr: "catalog is empty",
		},
		{
			name: "missing flag",
			yaml: `
addons:
  - name: thing
    display_name: Thing
    category: Web Dashboards
    installer:
      url: https://example.com/install.sh
      file: install.sh
      run_with: [bash]
`,
			wantErr: "flag must be a single letter",
		},
		{
			name: "duplicate flag",
			yaml: `
addons:
  - name: one
    display_name: One
    flag: x
    category: Web Dashboards
    installer:
      url: https://example.com/a.sh
      file: a.sh
      run_with: [bash]
  - name: two
    display_name: Two
    flag: x
    category: Web Dashboards
    installer:
      url: https://example.com/b.sh
      file: b.sh
      run_with: [bash]
`,
			wantErr: `flag "x" already used`,
		},
		{
			name: "bad scheme",
			yaml: `
addons:
  - name: thing
    display_name: Thing
    flag: x
    category: Web Dashboards
    installer:
      url: ftp://example.com/install.sh
      file: install.sh
      run_with: [bash]
`,
			wantErr: "must be http or https",
		},
		{
			name: "installer file with path",
			yaml: `
addons:
  - name: thing
    display_name: Thing
    flag: x
    category: Web Dashboards
    installer:
      url: https://example.com/install.sh
      file: ../install.sh
      run_with: [bash]
`,
			wantErr: "bare filename",
		},
		{
			name: "unknown category",
			yaml: `
addons:
  - name: thing
    display_name: Thing
    flag: x
    category: Gardening
    installer:
      url: https://example.com/install.sh
      file: install.sh
      run_with: [bash]
`,
			wantErr: "unknown category",
		},
		{
			name: "patch without guard",
			yaml: `
addons:
  - name: thing
    display_name: Thing
    flag: x
    category: Web Dashboards
    installer:
      url: https://example.com/install.sh
      file: install.sh
      run_with: [bash]
    rpt_conf:
      - lines: ["a = b"]
`,
			wantErr: "guard is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistrySelect(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name     string
		names    []string
		expected []string
	}{
		{
			name:     "catalog order regardless of input order",
			names:    []string{"dvswitch", "allscan"},
			expected: []string{"allscan", "dvswitch"},
		},
		{
			name:     "duplicates collapse",
			names:    []string{"supermon", "supermon"},
			expected: []string{"supermon"},
		},
		{
			name:     "unknown names are ignored",
			names:    []string{"nosuch", "skywarnplus"},
			expected: []string{"skywarnplus"},
		},
		{
			name:     "empty selection",
			names:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected := reg.Select(tt.names)
			got := make([]string, len(selected))
			for i, a := range selected {
				got[i] = a.Name
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRegistryCategories(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	cats := reg.Categories()
	assert.Equal(t, []Category{CategoryWeb, CategoryWeather, CategoryDigital}, cats)
	assert.Len(t, reg.ByCategory[CategoryWeb], 2)
}
