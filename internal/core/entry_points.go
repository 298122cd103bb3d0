package core

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-ini/ini"
	"github.com/rs/zerolog/log"

	"wheel-installer/internal/types"
)

// DefaultEntryPointGroups are the entry point groups recorded when the
// caller does not configure any.
var DefaultEntryPointGroups = []string{"console_scripts"}

// ParseEntryPoints reads an entry_points.txt file and returns the entry
// points of the requested groups. Values without a "module:attribute"
// separator are skipped. When a name appears in several groups the first
// group in groups wins.
func ParseEntryPoints(ctx context.Context, content []byte, groups []string) ([]types.EntryPoint, error) {
	if len(groups) == 0 {
		groups = DefaultEntryPointGroups
	}
	file, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:      "=",
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, content)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid entry_points.txt").
			WithCause(err)
	}
	var out []types.EntryPoint
	seen := map[string]struct{}{}
	skipped := 0
	for _, group := range groups {
		if !file.HasSection(group) {
			continue
		}
		for _, key := range file.Section(group).Keys() {
			name := strings.TrimSpace(key.Name())
			module, attribute, ok := splitEntryPointValue(key.Value())
			if name == "" || !ok {
				skipped++
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, types.EntryPoint{
				Group:     group,
				Name:      name,
				Module:    module,
				Attribute: attribute,
			})
		}
	}
	if skipped > 0 {
		log.Ctx(ctx).Debug().Int("skipped", skipped).Msg("ignored invalid entry points")
	}
	return out, nil
}

// splitEntryPointValue splits "module:attr [extras]" into module and
// attribute.
func splitEntryPointValue(value string) (string, string, bool) {
	reference := strings.TrimSpace(value)
	if idx := strings.Index(reference, "["); idx != -1 {
		reference = strings.TrimSpace(reference[:idx])
	}
	module, attribute, ok := strings.Cut(reference, ":")
	if !ok {
		return "", "", false
	}
	module = strings.TrimSpace(module)
	attribute = strings.TrimSpace(attribute)
	if module == "" || attribute == "" {
		return "", "", false
	}
	return module, attribute, true
}
