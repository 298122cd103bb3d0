package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"wheel-installer/internal/core"
	"wheel-installer/internal/types"
)

// Extract unpacks a wheel into the output directory, converts implicit
// namespace packages unless asked not to, and writes metadata.json.
func (s Service) Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	wheelPath := strings.TrimSpace(req.WheelPath)
	if wheelPath == "" {
		return ExtractResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("wheel path is required")
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return ExtractResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	record, err := s.Reader.Read(ctx, wheelPath)
	if err != nil {
		return ExtractResult{}, err
	}
	extras := requestedExtras(ctx, req.Requirement, record)

	if err := s.Archives.Unzip(ctx, wheelPath, outputDir); err != nil {
		return ExtractResult{}, err
	}
	var namespaces []string
	if !req.EnableImplicitNamespacePkgs {
		rewritten, err := s.Namespaces.Normalize(ctx, outputDir)
		if err != nil {
			return ExtractResult{}, err
		}
		for _, dir := range rewritten {
			namespaces = append(namespaces, dir.Path)
		}
	}

	deps := core.ResolveDependencies(ctx, record, extras, req.Environment)
	doc := core.BuildMetadataDocument(ctx, record, deps)
	metadataPath, err := s.Metadata.WriteMetadata(ctx, outputDir, doc)
	if err != nil {
		return ExtractResult{}, err
	}
	log.Ctx(ctx).Info().
		Str("wheel", record.Name().String()).
		Str("version", record.Version()).
		Str("dir", outputDir).
		Int("deps", len(doc.Deps)).
		Msg("wheel installed")
	return ExtractResult{
		Name:              doc.Name,
		Version:           doc.Version,
		OutputDir:         outputDir,
		MetadataPath:      metadataPath,
		Extras:            extras.Sorted(),
		Deps:              doc.Deps,
		NamespacePackages: namespaces,
		EntryPoints:       len(doc.EntryPoints),
	}, nil
}

// requestedExtras returns the extras named by requirement when it refers
// to the wheel being processed.
func requestedExtras(ctx context.Context, requirement string, record types.WheelRecord) types.ExtraSet {
	name, extras, ok := core.ParseRequirementForExtras(requirement)
	if !ok {
		return types.NewExtraSet()
	}
	if name != record.Name() {
		log.Ctx(ctx).Debug().
			Str("requirement", requirement).
			Str("wheel", record.Name().String()).
			Msg("requirement names another distribution, ignoring its extras")
		return types.NewExtraSet()
	}
	return extras
}
