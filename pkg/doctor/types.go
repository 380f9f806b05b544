// Package doctor checks whether the host looks like a healthy
// AllStarLink appliance before any add-on is installed.
package doctor

// CheckStatus represents the status of an appliance check.
type CheckStatus int

const (
	// StatusOK indicates the requirement is present and working.
	StatusOK CheckStatus = iota
	// StatusMissing indicates the requirement is not installed.
	StatusMissing
	// StatusError indicates an error occurred during the check.
	StatusError
	// StatusWarning indicates the requirement has issues but may work.
	StatusWarning
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	case StatusWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Check represents a single appliance check result.
type Check struct {
	ID          string      // Unique identifier, e.g., "asterisk", "apache2"
	Name        string      // Display name
	Description string      // What this requirement is for
	Status      CheckStatus // Current status
	Message     string      // Status message (version info, error, etc.)
	FixCommand  *FixCommand // How to fix if missing (nil if not fixable)
}

// FixCommand describes how to fix a missing requirement. The appliance is
// Debian, so every fix is an apt-style shell command run as root.
type FixCommand struct {
	Description string // Human-readable description of what the fix does
	Command     string // Shell command to run
}

// CheckGroup represents a group of related appliance checks.
type CheckGroup struct {
	ID          string  // Unique identifier, e.g., "core", "web"
	Name        string  // Display name
	Description string  // What this group is for
	Checks      []Check // Individual checks in this group
}

// GroupID constants for check groups.
const (
	GroupCore    = "core"
	GroupWeb     = "web"
	GroupWeather = "weather"
	GroupSystem  = "system"
)

// CheckID constants for individual checks.
const (
	IDAsterisk        = "asterisk"
	IDAsteriskService = "asterisk-service"
	IDRptConf         = "rpt-conf"
	IDApache          = "apache2"
	IDPHP             = "php"
	IDWebRoot         = "web-root"
	IDPython          = "python3"
	IDAptGet          = "apt-get"
	IDDiskSpace       = "disk-space"
)
