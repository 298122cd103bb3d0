package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/rs/zerolog/log"

	"wheel-installer/internal/types"
)

// WheelMetadata holds the header fields of a dist-info METADATA file that
// the installer cares about.
type WheelMetadata struct {
	Name          string
	Version       string
	RequiresDist  []string
	ProvidesExtra []string
}

// ParseWheelMetadata reads the RFC 822 style header block of a METADATA
// file. Parsing stops at the first blank line; the body is the long
// description and may itself contain header-like lines.
func ParseWheelMetadata(content []byte) (WheelMetadata, error) {
	var meta WheelMetadata
	var key string
	var value strings.Builder
	flush := func() {
		if key == "" {
			return
		}
		field := strings.TrimSpace(value.String())
		switch strings.ToLower(key) {
		case "name":
			meta.Name = field
		case "version":
			meta.Version = field
		case "requires-dist":
			if field != "" {
				meta.RequiresDist = append(meta.RequiresDist, field)
			}
		case "provides-extra":
			if field != "" {
				meta.ProvidesExtra = append(meta.ProvidesExtra, field)
			}
		}
		key = ""
		value.Reset()
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			if key != "" {
				value.WriteString(" ")
				value.WriteString(strings.TrimSpace(line))
			}
			continue
		}
		flush()
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(name)
		value.WriteString(strings.TrimSpace(rest))
	}
	flush()
	if strings.TrimSpace(meta.Name) == "" {
		return WheelMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("METADATA is missing the Name field")
	}
	if strings.TrimSpace(meta.Version) == "" {
		return WheelMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("METADATA is missing the Version field")
	}
	return meta, nil
}

// BuildWheelRecord turns parsed METADATA and entry points into a record.
func BuildWheelRecord(ctx context.Context, meta WheelMetadata, distInfoDir string, entryPoints []types.EntryPoint) (types.WheelRecord, error) {
	if _, err := pep440.Parse(meta.Version); err != nil {
		log.Ctx(ctx).Warn().
			Str("name", meta.Name).
			Str("version", meta.Version).
			Msg("version is not PEP 440 compliant")
	}
	deps := make([]types.DependencySpecifier, 0, len(meta.RequiresDist))
	for _, line := range meta.RequiresDist {
		dep, err := ParseRequiresDist(line)
		if err != nil {
			return types.WheelRecord{}, err
		}
		deps = append(deps, dep)
	}
	return types.NewWheelRecord(types.NewPackageName(meta.Name), meta.Version, distInfoDir, meta.ProvidesExtra, deps, entryPoints), nil
}

// BuildMetadataDocument assembles the persisted document for a record and
// its resolved dependencies. Dependencies and entry points are sorted.
func BuildMetadataDocument(ctx context.Context, record types.WheelRecord, deps types.PackageSet) types.MetadataDocument {
	assert.NotEmpty(ctx, record.Name().String(), "record name must be set")
	assert.NotEmpty(ctx, record.Version(), "record version must be set")
	entryPoints := record.EntryPoints()
	sort.SliceStable(entryPoints, func(i, j int) bool {
		return entryPoints[i].Name < entryPoints[j].Name
	})
	records := make([]types.EntryPointRecord, 0, len(entryPoints))
	for _, ep := range entryPoints {
		records = append(records, types.EntryPointRecord{
			Name:      ep.Name,
			Module:    ep.Module,
			Attribute: ep.Attribute,
		})
	}
	sortedDeps := deps.Sorted()
	if sortedDeps == nil {
		sortedDeps = []string{}
	}
	return types.MetadataDocument{
		Name:        record.Name().String(),
		Version:     record.Version(),
		Deps:        sortedDeps,
		EntryPoints: records,
	}
}

// describeRecord is used in log lines.
func describeRecord(record types.WheelRecord) string {
	return fmt.Sprintf("%s==%s", record.Name(), record.Version())
}
