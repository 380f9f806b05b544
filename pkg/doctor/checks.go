package doctor

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
)

// minFreeMB is the scratch space floor below which installs get flaky.
const minFreeMB = 100

// CommandExecutor is an interface for probing the host, allowing for testing.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) (string, error)
	CombinedOutput(name string, args ...string) ([]byte, error)
	FileExists(path string) bool
	FileWritable(path string) bool
	DiskFreeMB(path string) (uint64, error)
}

// RealExecutor is the default executor that probes the real system.
type RealExecutor struct{}

// LookPath finds the path to an executable.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *RealExecutor) Run(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		// Some tools print versions to stderr
		if stderr.Len() > 0 {
			return stderr.String(), err
		}
		return stdout.String(), err
	}
	output := stdout.String()
	if output == "" {
		output = stderr.String()
	}
	return output, nil
}

// CombinedOutput runs a command and returns combined stdout and stderr.
func (e *RealExecutor) CombinedOutput(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	return cmd.CombinedOutput()
}

// FileExists checks if a file exists.
func (e *RealExecutor) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileWritable checks if an existing file can be opened for writing.
func (e *RealExecutor) FileWritable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// DiskFreeMB returns the free space on the filesystem holding path.
func (e *RealExecutor) DiskFreeMB(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return (stat.Bavail * uint64(stat.Bsize)) / (1024 * 1024), nil
}

// checkTool checks if a tool is installed and gets its version.
func checkTool(exec CommandExecutor, id, name, desc string, versionArgs []string, versionRegex *regexp.Regexp, fixCmd *FixCommand) Check {
	check := Check{
		ID:          id,
		Name:        name,
		Description: desc,
		FixCommand:  fixCmd,
	}

	path, err := exec.LookPath(id)
	if err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	output, err := exec.Run(path, versionArgs...)
	if err != nil {
		// Tool exists but version check failed, still consider it OK
		check.Status = StatusOK
		check.Message = "installed (version unknown)"
		return check
	}

	version := extractVersion(output, versionRegex)
	if version != "" {
		check.Status = StatusOK
		check.Message = version
	} else {
		check.Status = StatusOK
		check.Message = "installed"
	}

	return check
}

// extractVersion extracts a version string from command output.
func extractVersion(output string, regex *regexp.Regexp) string {
	if regex == nil {
		defaultRegex := regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9]+)?)`)
		matches := defaultRegex.FindStringSubmatch(output)
		if len(matches) >= 2 {
			return matches[1]
		}
		return ""
	}

	matches := regex.FindStringSubmatch(output)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// CheckAsterisk checks if the Asterisk binary is installed.
func CheckAsterisk(exec CommandExecutor) Check {
	check := checkTool(
		exec,
		IDAsterisk,
		"Asterisk",
		"The PBX the node runs on",
		[]string{"-V"},
		regexp.MustCompile(`Asterisk (\d+[^\s]*)`),
		nil,
	)
	if check.Status == StatusMissing {
		check.Message = "not found; is this an AllStarLink appliance?"
	}
	return check
}

// CheckAsteriskService checks if the Asterisk service is running.
func CheckAsteriskService(exec CommandExecutor) Check {
	check := Check{
		ID:          IDAsteriskService,
		Name:        "Asterisk service",
		Description: "The node software must be running for add-ons to talk to it",
		FixCommand: &FixCommand{
			Description: "Start the Asterisk service",
			Command:     "systemctl start asterisk",
		},
	}

	if _, err := exec.LookPath("systemctl"); err != nil {
		check.Status = StatusWarning
		check.Message = "systemctl not available, cannot check"
		check.FixCommand = nil
		return check
	}

	output, err := exec.Run("systemctl", "is-active", "asterisk")
	if err != nil || strings.TrimSpace(output) != "active" {
		check.Status = StatusWarning
		check.Message = "service not running"
		return check
	}

	check.Status = StatusOK
	check.Message = "running"
	return check
}

// CheckRptConf checks that the shared rpt.conf exists and is writable.
func CheckRptConf(exec CommandExecutor, path string) Check {
	check := Check{
		ID:          IDRptConf,
		Name:        "rpt.conf",
		Description: "The shared node config the add-ons patch",
	}

	if !exec.FileExists(path) {
		check.Status = StatusMissing
		check.Message = "not found at " + path
		return check
	}

	if !exec.FileWritable(path) {
		check.Status = StatusWarning
		check.Message = "not writable (run as root)"
		return check
	}

	check.Status = StatusOK
	check.Message = path
	return check
}

// CheckApache checks if the Apache web server is installed.
func CheckApache(exec CommandExecutor) Check {
	return checkTool(
		exec,
		IDApache,
		"Apache",
		"Serves the AllScan and Supermon dashboards",
		[]string{"-v"},
		regexp.MustCompile(`Apache/(\d+\.\d+\.\d+)`),
		GetFixCommand(IDApache),
	)
}

// CheckPHP checks if the PHP interpreter is installed.
func CheckPHP(exec CommandExecutor) Check {
	return checkTool(
		exec,
		IDPHP,
		"PHP",
		"Runs the web dashboards and the AllScan installer",
		[]string{"-v"},
		regexp.MustCompile(`PHP (\d+\.\d+\.\d+)`),
		GetFixCommand(IDPHP),
	)
}

// CheckWebRoot checks that the web document root exists.
func CheckWebRoot(exec CommandExecutor, path string) Check {
	check := Check{
		ID:          IDWebRoot,
		Name:        "Web root",
		Description: "Where the web dashboards install",
	}

	if exec.FileExists(path) {
		check.Status = StatusOK
		check.Message = path
	} else {
		// Installing apache2 creates it
		check.Status = StatusWarning
		check.Message = "missing " + path
	}

	return check
}

// CheckPython checks if the Python 3 interpreter is installed.
func CheckPython(exec CommandExecutor) Check {
	return checkTool(
		exec,
		IDPython,
		"Python 3",
		"Runs SkywarnPlus",
		[]string{"--version"},
		regexp.MustCompile(`Python (\d+\.\d+\.\d+)`),
		GetFixCommand(IDPython),
	)
}

// CheckAptGet checks that the Debian package tooling is available.
func CheckAptGet(exec CommandExecutor) Check {
	check := Check{
		ID:          IDAptGet,
		Name:        "apt-get",
		Description: "Installs prerequisite Debian packages",
	}

	if _, err := exec.LookPath("apt-get"); err != nil {
		check.Status = StatusError
		check.Message = "not found; this does not look like a Debian system"
		return check
	}

	check.Status = StatusOK
	check.Message = "available"
	return check
}

// CheckDiskSpace checks free scratch space for installer downloads.
func CheckDiskSpace(exec CommandExecutor, path string) Check {
	check := Check{
		ID:          IDDiskSpace,
		Name:        "Disk space",
		Description: "Scratch space for installer downloads",
	}

	free, err := exec.DiskFreeMB(path)
	if err != nil {
		check.Status = StatusWarning
		check.Message = "could not determine free space"
		return check
	}

	if free < minFreeMB {
		check.Status = StatusWarning
		check.Message = fmt.Sprintf("only %d MB free in %s", free, path)
		return check
	}

	check.Status = StatusOK
	check.Message = fmt.Sprintf("%d MB free", free)
	return check
}
