package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// Project Name Validation
// =============================================================================

var (
	ErrInvalidProjectName = errors.New("project name must be lowercase letters, digits and hyphens, starting and ending alphanumeric")
	ErrProjectNameTooLong = errors.New("project name must be under 64 characters")
)

// projectNameRegex matches lowercase alphanumeric names with interior
// hyphens. A single character is allowed.
var projectNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// maxProjectNameLength is the DNS label limit the platform enforces.
const maxProjectNameLength = 63

// ValidateProjectName checks a platform project name. The hosting platform
// uses the name as a DNS label, so the character set is restricted.
func ValidateProjectName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidProjectName
	}
	if len(name) > maxProjectNameLength {
		return ErrProjectNameTooLong
	}
	if !projectNameRegex.MatchString(name) {
		return ErrInvalidProjectName
	}
	return nil
}

// ProductionURL returns the canonical per-project subdomain on the platform,
// e.g. "acme-site" + "pages.dev" -> "https://acme-site.pages.dev".
func ProductionURL(projectName, platformSuffix string) string {
	return fmt.Sprintf("https://%s.%s", projectName, platformSuffix)
}

// PlatformSubdomain returns the bare canonical hostname for a project,
// used as the CNAME target for custom domains.
func PlatformSubdomain(projectName, platformSuffix string) string {
	return fmt.Sprintf("%s.%s", projectName, platformSuffix)
}
