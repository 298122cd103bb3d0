package app

import "wheel-installer/internal/types"

type ExtractRequest struct {
	WheelPath   string
	Requirement string
	OutputDir   string
	// EnableImplicitNamespacePkgs leaves native namespace packages as
	// unpacked instead of adding pkgutil markers.
	EnableImplicitNamespacePkgs bool
	Environment                 *types.MarkerEnvironment
}

type ExtractResult struct {
	Name              string
	Version           string
	OutputDir         string
	MetadataPath      string
	Extras            []string
	Deps              []string
	NamespacePackages []string
	EntryPoints       int
}

type InstallRequest struct {
	Requirement                 string
	Python                      string
	DownloadOnly                bool
	Isolated                    bool
	ExtraPipArgs                []string
	PipEnv                      map[string]string
	DownloadDir                 string
	OutputDir                   string
	EnableImplicitNamespacePkgs bool
	Environment                 *types.MarkerEnvironment
}

type InspectRequest struct {
	WheelPath   string
	Requirement string
	Environment *types.MarkerEnvironment
}

type InspectResult struct {
	Name           string                   `json:"name" yaml:"name"`
	Version        string                   `json:"version" yaml:"version"`
	DistInfo       string                   `json:"dist_info" yaml:"dist_info"`
	Tags           []string                 `json:"tags,omitempty" yaml:"tags,omitempty"`
	DeclaredExtras []string                 `json:"declared_extras" yaml:"declared_extras"`
	Extras         []string                 `json:"extras" yaml:"extras"`
	Requires       []string                 `json:"requires" yaml:"requires"`
	Deps           []string                 `json:"deps" yaml:"deps"`
	EntryPoints    []types.EntryPointRecord `json:"entry_points" yaml:"entry_points"`
}
