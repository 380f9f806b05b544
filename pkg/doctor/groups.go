package doctor

// groupDefinition describes one check group.
type groupDefinition struct {
	ID          string
	Name        string
	Description string
	CheckIDs    []string
}

// groupDefinitions lists the check groups in display order.
var groupDefinitions = []groupDefinition{
	{
		ID:          GroupCore,
		Name:        "AllStarLink node",
		Description: "The node software the add-ons attach to",
		CheckIDs:    []string{IDAsterisk, IDAsteriskService, IDRptConf},
	},
	{
		ID:          GroupWeb,
		Name:        "Web stack",
		Description: "Required for the AllScan and Supermon dashboards",
		CheckIDs:    []string{IDApache, IDPHP, IDWebRoot},
	},
	{
		ID:          GroupWeather,
		Name:        "Weather stack",
		Description: "Required for SkywarnPlus",
		CheckIDs:    []string{IDPython},
	},
	{
		ID:          GroupSystem,
		Name:        "System",
		Description: "Package tooling and scratch space",
		CheckIDs:    []string{IDAptGet, IDDiskSpace},
	},
}

// GetGroupDefinition returns the definition for a specific group.
func GetGroupDefinition(groupID string) (groupDefinition, bool) {
	for _, def := range groupDefinitions {
		if def.ID == groupID {
			return def, true
		}
	}
	return groupDefinition{}, false
}

// GetAllGroupIDs returns all group IDs in display order.
func GetAllGroupIDs() []string {
	ids := make([]string, len(groupDefinitions))
	for i, def := range groupDefinitions {
		ids[i] = def.ID
	}
	return ids
}
