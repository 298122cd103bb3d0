package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"wheel-installer/internal/types"
)

// pep508Identifier matches a PEP 508 distribution or extra identifier.
const pep508Identifier = `[0-9A-Za-z][0-9A-Za-z_.\-]*`

var requirementExtrasPattern = regexp.MustCompile(
	`^\s*(` + pep508Identifier + `)\s*\[\s*(` + pep508Identifier + `(?:\s*,\s*` + pep508Identifier + `)*)\s*\]`,
)

var requiresDistPattern = regexp.MustCompile(
	`^\s*(` + pep508Identifier + `)\s*(?:\[([^\]]*)\])?\s*(.*)$`,
)

// ParseRequirementForExtras returns the canonical name and requested extras
// of a requirement of the form "name[extra1, extra2]...". Anything after
// the closing bracket is ignored. When the requirement declares no extras
// ok is false; that is not an error.
func ParseRequirementForExtras(requirement string) (types.PackageName, types.ExtraSet, bool) {
	matches := requirementExtrasPattern.FindStringSubmatch(requirement)
	if matches == nil {
		return "", nil, false
	}
	extras := types.NewExtraSet(strings.Split(matches[2], ",")...)
	if extras.Len() == 0 {
		return "", nil, false
	}
	return types.NewPackageName(matches[1]), extras, true
}

// ParseRequiresDist parses one Requires-Dist value into a dependency
// specifier. The activating extra is recovered from the marker.
func ParseRequiresDist(value string) (types.DependencySpecifier, error) {
	raw := strings.TrimSpace(value)
	requirement, marker, _ := strings.Cut(raw, ";")
	matches := requiresDistPattern.FindStringSubmatch(requirement)
	if matches == nil {
		return types.DependencySpecifier{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid requirement: %s", raw))
	}
	spec := types.DependencySpecifier{
		Name:      types.NewPackageName(matches[1]),
		Raw:       raw,
		Specifier: normalizeSpecifier(matches[3]),
		Marker:    strings.TrimSpace(marker),
	}
	if matches[2] != "" {
		spec.Extras = types.NewExtraSet(strings.Split(matches[2], ",")...).Sorted()
	}
	if spec.Marker != "" {
		spec.Extra, spec.MarkerExtras = markerExtras(spec.Marker)
	}
	return spec, nil
}

// normalizeSpecifier strips the optional parentheses of the legacy
// "name (>=1.0)" form.
func normalizeSpecifier(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}
	return trimmed
}

var extraComparisonPattern = regexp.MustCompile(`extra\s*==\s*['"]([^'"]+)['"]`)

// markerExtras returns the first extra named in an `extra == '...'`
// comparison of the marker and every extra the marker compares against.
// Markers that do not parse are scanned for `extra == '...'` instead.
func markerExtras(marker string) (string, []string) {
	if parsed, err := ParseMarker(marker); err == nil {
		first, _ := parsed.FirstExtra()
		return first, parsed.Extras()
	}
	var all []string
	seen := map[string]struct{}{}
	for _, m := range extraComparisonPattern.FindAllStringSubmatch(marker, -1) {
		extra := types.NewPackageName(m[1]).String()
		if _, ok := seen[extra]; ok {
			continue
		}
		seen[extra] = struct{}{}
		all = append(all, extra)
	}
	if len(all) == 0 {
		return "", nil
	}
	return all[0], all
}
