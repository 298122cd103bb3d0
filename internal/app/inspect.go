package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"wheel-installer/internal/core"
)

// Inspect reports what Extract would record for a wheel without writing
// anything.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	wheelPath := strings.TrimSpace(req.WheelPath)
	if wheelPath == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("wheel path is required")
	}
	record, err := s.Reader.Read(ctx, wheelPath)
	if err != nil {
		return InspectResult{}, err
	}
	extras := requestedExtras(ctx, req.Requirement, record)
	deps := core.ResolveDependencies(ctx, record, extras, req.Environment)
	doc := core.BuildMetadataDocument(ctx, record, deps)

	var tags []string
	if info, err := core.ParseWheelFilename(wheelPath); err == nil {
		for _, tag := range info.Tags {
			tags = append(tags, tag.String())
		}
	} else {
		log.Ctx(ctx).Debug().Err(err).Str("wheel", wheelPath).Msg("no compatibility tags")
	}

	requires := []string{}
	for _, dep := range record.Dependencies() {
		requires = append(requires, dep.Raw)
	}
	return InspectResult{
		Name:           doc.Name,
		Version:        doc.Version,
		DistInfo:       record.DistInfoDir(),
		Tags:           tags,
		DeclaredExtras: record.DeclaredExtras(),
		Extras:         extras.Sorted(),
		Requires:       requires,
		Deps:           doc.Deps,
		EntryPoints:    doc.EntryPoints,
	}, nil
}
