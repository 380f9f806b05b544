package doctor

import (
	"os"

	"github.com/allstar-tools/asl-addons/pkg/config"
)

// Checker runs appliance checks.
type Checker struct {
	executor CommandExecutor
	rptConf  string
	webRoot  string
	scratch  string
}

// NewChecker creates a Checker that probes the real system using the
// resolved appliance paths.
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{
		executor: &RealExecutor{},
		rptConf:  cfg.RptConf,
		webRoot:  cfg.WebRoot,
		scratch:  os.TempDir(),
	}
}

// NewCheckerWithExecutor creates a Checker with a custom executor (for testing).
func NewCheckerWithExecutor(exec CommandExecutor, cfg *config.Config) *Checker {
	return &Checker{
		executor: exec,
		rptConf:  cfg.RptConf,
		webRoot:  cfg.WebRoot,
		scratch:  os.TempDir(),
	}
}

// CheckAll runs every check and returns the groups in display order.
func (c *Checker) CheckAll() []CheckGroup {
	var result []CheckGroup
	for _, id := range GetAllGroupIDs() {
		result = append(result, c.CheckGroup(id))
	}
	return result
}

// CheckGroup runs all checks for a specific group.
func (c *Checker) CheckGroup(groupID string) CheckGroup {
	def, ok := GetGroupDefinition(groupID)
	if !ok {
		return CheckGroup{
			ID:   groupID,
			Name: "Unknown",
		}
	}

	group := CheckGroup{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
	}

	for _, checkID := range def.CheckIDs {
		group.Checks = append(group.Checks, c.runCheck(checkID))
	}

	return group
}

// runCheck runs a specific check by ID.
func (c *Checker) runCheck(checkID string) Check {
	switch checkID {
	case IDAsterisk:
		return CheckAsterisk(c.executor)
	case IDAsteriskService:
		return CheckAsteriskService(c.executor)
	case IDRptConf:
		return CheckRptConf(c.executor, c.rptConf)
	case IDApache:
		return CheckApache(c.executor)
	case IDPHP:
		return CheckPHP(c.executor)
	case IDWebRoot:
		return CheckWebRoot(c.executor, c.webRoot)
	case IDPython:
		return CheckPython(c.executor)
	case IDAptGet:
		return CheckAptGet(c.executor)
	case IDDiskSpace:
		return CheckDiskSpace(c.executor, c.scratch)
	default:
		return Check{
			ID:      checkID,
			Name:    checkID,
			Status:  StatusError,
			Message: "unknown check",
		}
	}
}

// GetCheck runs a single check by ID.
func (c *Checker) GetCheck(checkID string) Check {
	return c.runCheck(checkID)
}

// Summary represents an overall health summary.
type Summary struct {
	Total    int
	OK       int
	Missing  int
	Warnings int
	Errors   int
}

// GetSummary returns a summary of check results.
func (c *Checker) GetSummary(groups []CheckGroup) Summary {
	var summary Summary

	for _, group := range groups {
		for _, check := range group.Checks {
			summary.Total++
			switch check.Status {
			case StatusOK:
				summary.OK++
			case StatusMissing:
				summary.Missing++
			case StatusWarning:
				summary.Warnings++
			case StatusError:
				summary.Errors++
			}
		}
	}

	return summary
}

// HasIssues returns true if any checks found missing requirements or errors.
// Warnings alone do not count.
func (c *Checker) HasIssues(groups []CheckGroup) bool {
	summary := c.GetSummary(groups)
	return summary.Missing > 0 || summary.Errors > 0
}
