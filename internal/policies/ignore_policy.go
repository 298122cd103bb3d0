package policies

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultIgnoreDirs are the directories of an unpacked wheel that never
// take part in namespace package discovery.
var DefaultIgnoreDirs = []string{"bin", "*.dist-info", "*.data"}

// IgnorePolicy decides which directories, relative to the unpack root, are
// skipped while walking an installed wheel. Patterns are either an exact
// relative path, a prefix ("name*"), a suffix ("*.ext"), a glob understood
// by path.Match, or "*" for everything.
type IgnorePolicy struct {
	Patterns []string
	exact    map[string]struct{}
	prefixes []string
	suffixes []string
	globs    []string
	wildcard bool
}

func NewIgnorePolicy(patterns []string) IgnorePolicy {
	if len(patterns) == 0 {
		patterns = DefaultIgnoreDirs
	}
	policy := IgnorePolicy{Patterns: append([]string(nil), patterns...)}
	policy.compile()
	return policy
}

// Ignored reports whether rel, a slash or OS separated path relative to the
// unpack root, is excluded.
func (p IgnorePolicy) Ignored(rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || rel == "" {
		return false
	}
	if p.wildcard {
		return true
	}
	if _, ok := p.exact[rel]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(rel, prefix) && !strings.Contains(rel[len(prefix):], "/") {
			return true
		}
	}
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(rel, suffix) && !strings.Contains(strings.TrimSuffix(rel, suffix), "/") {
			return true
		}
	}
	for _, glob := range p.globs {
		if matched, err := path.Match(glob, rel); err == nil && matched {
			return true
		}
	}
	return false
}

type ignoreKind int

const (
	ignoreExact ignoreKind = iota
	ignorePrefix
	ignoreSuffix
	ignoreGlob
	ignoreWildcard
	ignoreInvalid
)

func (p *IgnorePolicy) compile() {
	p.exact = map[string]struct{}{}
	p.prefixes = nil
	p.suffixes = nil
	p.globs = nil
	p.wildcard = false
	for _, pattern := range p.Patterns {
		value, kind := parseIgnorePattern(pattern)
		switch kind {
		case ignoreWildcard:
			p.wildcard = true
		case ignoreExact:
			p.exact[value] = struct{}{}
		case ignorePrefix:
			p.prefixes = append(p.prefixes, value)
		case ignoreSuffix:
			p.suffixes = append(p.suffixes, value)
		case ignoreGlob:
			p.globs = append(p.globs, value)
		}
	}
}

func parseIgnorePattern(pattern string) (string, ignoreKind) {
	trimmed := strings.Trim(filepath.ToSlash(strings.TrimSpace(pattern)), "/")
	if trimmed == "" {
		return "", ignoreInvalid
	}
	if trimmed == "*" {
		return "", ignoreWildcard
	}
	inner := strings.Trim(trimmed, "*")
	if strings.ContainsAny(inner, "*?[") {
		if _, err := path.Match(trimmed, ""); err != nil {
			return "", ignoreInvalid
		}
		return trimmed, ignoreGlob
	}
	switch {
	case strings.HasPrefix(trimmed, "*") && strings.HasSuffix(trimmed, "*"):
		return trimmed, ignoreGlob
	case strings.HasPrefix(trimmed, "*"):
		return inner, ignoreSuffix
	case strings.HasSuffix(trimmed, "*"):
		return inner, ignorePrefix
	default:
		return path.Clean(trimmed), ignoreExact
	}
}
