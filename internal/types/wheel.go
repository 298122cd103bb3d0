package types

import (
	"sort"

	"wheel-installer/internal/shared"
)

// PackageName is a PEP 503 canonical distribution name. Two names refer to
// the same distribution iff their PackageName values are equal.
type PackageName string

// NewPackageName canonicalizes a raw distribution name.
func NewPackageName(raw string) PackageName {
	return PackageName(shared.NormalizePipName(raw))
}

func (n PackageName) String() string {
	return string(n)
}

// ExtraSet holds canonicalized extra names.
type ExtraSet map[string]struct{}

// NewExtraSet canonicalizes and collects the given extra names, skipping
// blanks.
func NewExtraSet(extras ...string) ExtraSet {
	set := ExtraSet{}
	for _, extra := range extras {
		normalized := shared.NormalizePipName(extra)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func (s ExtraSet) Has(extra string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[shared.NormalizePipName(extra)]
	return ok
}

func (s ExtraSet) Len() int {
	return len(s)
}

func (s ExtraSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for extra := range s {
		out = append(out, extra)
	}
	sort.Strings(out)
	return out
}

// PackageSet is an unordered, deduplicated set of package names.
type PackageSet map[PackageName]struct{}

func (s PackageSet) Add(name PackageName) {
	s[name] = struct{}{}
}

func (s PackageSet) Has(name PackageName) bool {
	_, ok := s[name]
	return ok
}

func (s PackageSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, string(name))
	}
	sort.Strings(out)
	return out
}

// DependencySpecifier is one Requires-Dist entry of a wheel.
type DependencySpecifier struct {
	Name PackageName
	// Raw is the Requires-Dist value as declared.
	Raw string
	// Extras are the extras requested of the dependency itself.
	Extras []string
	// Specifier is the version specifier text, if any.
	Specifier string
	// Extra is the extra of the declaring wheel that activates this
	// dependency. Empty for unconditional dependencies.
	Extra string
	// MarkerExtras lists every extra the marker compares against, in
	// source order.
	MarkerExtras []string
	// Marker is the full environment marker text after ';'.
	Marker string
}

func (d DependencySpecifier) Conditional() bool {
	return d.Extra != ""
}

type EntryPoint struct {
	Group     string
	Name      string
	Module    string
	Attribute string
}

// WheelRecord is the parsed metadata of one wheel archive. It has no
// setters; accessors hand out copies.
type WheelRecord struct {
	name         PackageName
	version      string
	distInfoDir  string
	provides     []string
	dependencies []DependencySpecifier
	entryPoints  []EntryPoint
}

// NewWheelRecord builds a record. provides are the Provides-Extra values
// of METADATA.
func NewWheelRecord(name PackageName, version string, distInfoDir string, provides []string, deps []DependencySpecifier, entryPoints []EntryPoint) WheelRecord {
	return WheelRecord{
		name:         name,
		version:      version,
		distInfoDir:  distInfoDir,
		provides:     append([]string(nil), provides...),
		dependencies: cloneDependencies(deps),
		entryPoints:  append([]EntryPoint(nil), entryPoints...),
	}
}

func (r WheelRecord) Name() PackageName {
	return r.name
}

func (r WheelRecord) Version() string {
	return r.version
}

// DistInfoDir is the archive-relative *.dist-info directory the record was
// read from.
func (r WheelRecord) DistInfoDir() string {
	return r.distInfoDir
}

func (r WheelRecord) Dependencies() []DependencySpecifier {
	return cloneDependencies(r.dependencies)
}

func (r WheelRecord) EntryPoints() []EntryPoint {
	return append([]EntryPoint(nil), r.entryPoints...)
}

// DeclaredExtras returns the sorted canonical extras listed by
// Provides-Extra or named by any dependency marker.
func (r WheelRecord) DeclaredExtras() []string {
	set := NewExtraSet(r.provides...)
	for _, dep := range r.dependencies {
		for _, extra := range dep.MarkerExtras {
			set[extra] = struct{}{}
		}
		if dep.Extra != "" {
			set[dep.Extra] = struct{}{}
		}
	}
	return set.Sorted()
}

func cloneDependencies(deps []DependencySpecifier) []DependencySpecifier {
	if deps == nil {
		return nil
	}
	out := make([]DependencySpecifier, len(deps))
	for i, dep := range deps {
		dep.Extras = append([]string(nil), dep.Extras...)
		dep.MarkerExtras = append([]string(nil), dep.MarkerExtras...)
		out[i] = dep
	}
	return out
}

// WheelTag is a PEP 425 compatibility tag.
type WheelTag struct {
	Python   string `json:"python" yaml:"python"`
	ABI      string `json:"abi" yaml:"abi"`
	Platform string `json:"platform" yaml:"platform"`
}

func (t WheelTag) String() string {
	return t.Python + "-" + t.ABI + "-" + t.Platform
}

// WheelFileInfo holds what a PEP 427 wheel file name encodes.
type WheelFileInfo struct {
	Name     PackageName
	Version  string
	BuildTag string
	Tags     []WheelTag
}
