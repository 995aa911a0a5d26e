package templates

import (
	"fmt"
	"regexp"
)

// componentNameRegex allows names that are safe as directory names and as
// identifiers in the asset query language.
var componentNameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

// reservedNames are directory names used by the project layout itself.
var reservedNames = map[string]bool{
	"components":      true,
	"asset_scripts":   true,
	".asset_build":    true,
	".resource_cache": true,
}

// ValidateComponentName checks if a component name is valid.
func ValidateComponentName(name string) error {
	if name == "" {
		return fmt.Errorf("component name cannot be empty")
	}
	if !componentNameRegex.MatchString(name) {
		return fmt.Errorf("invalid component name %q: use letters, digits, '_' and '-' and do not start with '-'", name)
	}
	if reservedNames[name] {
		return fmt.Errorf("invalid component name %q: reserved", name)
	}
	return nil
}
