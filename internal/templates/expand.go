package templates

import (
	"os"
	"time"
)

// ExpandVars substitutes ${NAME} and $NAME references from vars. Unknown
// names are left in place so shell and Actions syntax survives.
func ExpandVars(template string, vars map[string]string) string {
	return os.Expand(template, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return "${" + key + "}"
	})
}

// DefaultVars returns the variables used when a template is written
// without an interactive setup.
func DefaultVars(projectName string, now time.Time) map[string]string {
	return map[string]string{
		"PROJECT_NAME":   projectName,
		"DESCRIPTION":    "[describe the project]",
		"DATE":           now.Format("2006-01-02"),
		"TEAM_SIZE":      "[team size]",
		"LANGUAGE":       "[to be decided]",
		"FRAMEWORK":      "[to be decided]",
		"AI_TOOLS":       "- [list AI tools]",
		"SECURITY_LEVEL": "[to be decided]",
		"STYLE":          "[style guide]",
		"NAMING":         "[naming convention]",
		"TEST_FRAMEWORK": "[test framework]",
		"SECURITY_TOOLS": "[security tooling]",
		"HIGH_SECURITY":  "",
	}
}
