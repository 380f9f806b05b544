package installer

// Stage represents an install stage.
type Stage string

const (
	StagePreflight Stage = "preflight"
	StagePackages  Stage = "packages"
	StageDownload  Stage = "download"
	StageExecute   Stage = "execute"
	StageConfigure Stage = "configure"
	StageVerify    Stage = "verify"
	StageCleanup   Stage = "cleanup"
	StageComplete  Stage = "complete"
	StageError     Stage = "error"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the stage.
func (s Stage) DisplayName() string {
	switch s {
	case StagePreflight:
		return "Preparing"
	case StagePackages:
		return "Installing Packages"
	case StageDownload:
		return "Downloading Installer"
	case StageExecute:
		return "Running Installer"
	case StageConfigure:
		return "Updating rpt.conf"
	case StageVerify:
		return "Verifying"
	case StageCleanup:
		return "Cleaning Up"
	case StageComplete:
		return "Complete"
	case StageError:
		return "Error"
	default:
		return string(s)
	}
}
