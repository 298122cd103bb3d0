package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"wheel-installer/internal/ports"
)

// Install fetches the wheel for a requirement with pip and extracts it.
// Without a download directory the wheel is fetched into a temporary
// directory that is removed afterwards.
func (s Service) Install(ctx context.Context, req InstallRequest) (ExtractResult, error) {
	requirement := strings.TrimSpace(req.Requirement)
	if requirement == "" {
		return ExtractResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirement is required")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return ExtractResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	downloadDir := strings.TrimSpace(req.DownloadDir)
	if downloadDir == "" {
		tmp, err := afero.TempDir(s.Fs, "", "wheel-installer-download-")
		if err != nil {
			return ExtractResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create download directory").
				WithCause(err)
		}
		defer func() {
			if err := s.Fs.RemoveAll(tmp); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("dir", tmp).Msg("failed to remove download directory")
			}
		}()
		downloadDir = tmp
	}

	wheelPath, err := s.Fetcher.Fetch(ctx, ports.FetchRequest{
		Requirement:  requirement,
		Python:       req.Python,
		DownloadOnly: req.DownloadOnly,
		Isolated:     req.Isolated,
		ExtraArgs:    req.ExtraPipArgs,
		Env:          req.PipEnv,
		WorkDir:      downloadDir,
	})
	if err != nil {
		return ExtractResult{}, err
	}
	return s.Extract(ctx, ExtractRequest{
		WheelPath:                   wheelPath,
		Requirement:                 requirement,
		OutputDir:                   req.OutputDir,
		EnableImplicitNamespacePkgs: req.EnableImplicitNamespacePkgs,
		Environment:                 req.Environment,
	})
}
