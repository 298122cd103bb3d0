package core

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"

	"wheel-installer/internal/types"
)

// ResolveDependencies returns the dependency names of record that apply
// when the given extras are requested.
//
// A dependency applies when its marker holds for one of the requested
// extras, or for the empty extra when none are requested. With a nil env
// only the extra comparisons of the marker are decided.
//
// The record's own name is never part of the result: distributions may list
// themselves under one of their extras, which would otherwise become a
// self-edge in the build graph.
func ResolveDependencies(ctx context.Context, record types.WheelRecord, extras types.ExtraSet, env *types.MarkerEnvironment) types.PackageSet {
	result := types.PackageSet{}
	declared := types.NewExtraSet(record.DeclaredExtras()...)
	candidates := extras.Sorted()
	if len(candidates) == 0 {
		candidates = []string{""}
	}
	for _, dep := range record.Dependencies() {
		if !dependencyApplies(ctx, dep, candidates, env) {
			continue
		}
		if dep.Name == record.Name() {
			log.Ctx(ctx).Debug().
				Str("wheel", describeRecord(record)).
				Str("extra", dep.Extra).
				Msg("dropping self-referential dependency")
			continue
		}
		result.Add(dep.Name)
	}
	for _, extra := range extras.Sorted() {
		if !declared.Has(extra) {
			log.Ctx(ctx).Debug().
				Str("wheel", describeRecord(record)).
				Str("extra", extra).
				Msg("requested extra is not declared")
		}
	}
	log.Ctx(ctx).Debug().
		Str("wheel", describeRecord(record)).
		Int("deps", len(result)).
		Msg("dependencies resolved")
	return result
}

func dependencyApplies(ctx context.Context, dep types.DependencySpecifier, candidates []string, env *types.MarkerEnvironment) bool {
	if dep.Marker == "" {
		return true
	}
	marker, err := ParseMarker(dep.Marker)
	if err != nil {
		log.Ctx(ctx).Debug().
			Str("dependency", dep.Raw).
			Err(err).
			Msg("marker not evaluable, falling back to extra classification")
		if len(dep.MarkerExtras) == 0 {
			return true
		}
		for _, extra := range dep.MarkerExtras {
			if slices.Contains(candidates, extra) {
				return true
			}
		}
		return false
	}
	for _, extra := range candidates {
		if marker.Evaluate(extra, env) {
			return true
		}
	}
	return false
}
