package doctor

import (
	"fmt"
)

// fixCommands defines fix commands for the requirements apt can supply.
// Core appliance problems (no Asterisk, no rpt.conf) have no one-liner
// fix and are deliberately absent.
var fixCommands = map[string]*FixCommand{
	IDApache: {
		Description: "Install the Apache web server",
		Command:     "apt-get install -y apache2",
	},
	IDPHP: {
		Description: "Install the PHP interpreter",
		Command:     "apt-get install -y php php-cgi",
	},
	IDPython: {
		Description: "Install Python 3",
		Command:     "apt-get install -y python3 python3-pip",
	},
}

// GetFixCommand returns the fix command for a check, or nil when the
// problem has no scripted fix.
func GetFixCommand(checkID string) *FixCommand {
	return fixCommands[checkID]
}

// Fixer runs fix commands.
type Fixer struct {
	executor CommandExecutor
}

// NewFixer creates a new Fixer.
func NewFixer() *Fixer {
	return &Fixer{
		executor: &RealExecutor{},
	}
}

// NewFixerWithExecutor creates a new Fixer with a custom executor.
func NewFixerWithExecutor(exec CommandExecutor) *Fixer {
	return &Fixer{
		executor: exec,
	}
}

// RunFix executes a fix command through the shell.
func (f *Fixer) RunFix(fix *FixCommand) error {
	if fix == nil {
		return fmt.Errorf("no fix command available")
	}

	output, err := f.executor.CombinedOutput("sh", "-c", fix.Command)
	if err != nil {
		return fmt.Errorf("fix failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// FixAll runs the fixes for every fixable failed check and returns the
// IDs it fixed. It stops at the first fix that fails.
func (f *Fixer) FixAll(groups []CheckGroup) ([]string, error) {
	var fixed []string
	for _, group := range groups {
		for _, check := range group.Checks {
			if check.Status == StatusOK || check.FixCommand == nil {
				continue
			}
			if err := f.RunFix(check.FixCommand); err != nil {
				return fixed, fmt.Errorf("%s: %w", check.ID, err)
			}
			fixed = append(fixed, check.ID)
		}
	}
	return fixed, nil
}
