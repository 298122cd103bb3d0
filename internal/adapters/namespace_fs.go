package adapters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"wheel-installer/internal/policies"
	"wheel-installer/internal/ports"
	"wheel-installer/internal/types"
)

const initFilename = "__init__.py"

// pkgutilMarker turns a native namespace package into a pkgutil-style one.
const pkgutilMarker = `# __path__ manipulation added by wheel-installer in order to support
# pkgutil-style namespace packages.
__path__ = __import__('pkgutil').extend_path(__path__, __name__)
`

var pythonModuleSuffixes = []string{".py", ".pyc", ".so", ".pyd"}

// NamespaceFSAdapter finds implicit namespace packages below an unpacked
// wheel and rewrites them into pkgutil-style packages.
type NamespaceFSAdapter struct {
	Fs     afero.Fs
	Ignore policies.IgnorePolicy
}

func NewNamespaceFSAdapter(fs afero.Fs, ignore policies.IgnorePolicy) NamespaceFSAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return NamespaceFSAdapter{Fs: fs, Ignore: ignore}
}

type dirState struct {
	class      types.DirClass
	hasModules bool
	hasPackage bool
	parent     string
}

func (a NamespaceFSAdapter) ImplicitNamespacePackages(ctx context.Context, root string) ([]types.NamespacePackageDir, error) {
	root = filepath.Clean(root)
	states := map[string]*dirState{}
	var order []string
	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		state := states[dir]
		if state == nil {
			state = &dirState{}
			states[dir] = state
		}

		if dir != root {
			rel, err := filepath.Rel(root, dir)
			if err == nil && a.Ignore.Ignored(rel) {
				state.class = types.DirClassIgnored
				continue
			}
		}
		entries, err := afero.ReadDir(a.Fs, dir)
		if err != nil {
			return nil, types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot list %s", dir), err)
		}
		if dir != root && containsFile(entries, initFilename) {
			state.class = types.DirClassRegularPackage
			if parent := states[state.parent]; parent != nil {
				parent.hasPackage = true
			}
			continue
		}
		order = append(order, dir)
		var children []string
		for _, entry := range entries {
			if entry.IsDir() {
				children = append(children, filepath.Join(dir, entry.Name()))
				continue
			}
			if isPythonModule(entry.Name()) {
				state.hasModules = true
			}
		}
		for i := len(children) - 1; i >= 0; i-- {
			states[children[i]] = &dirState{parent: dir}
			stack = append(stack, children[i])
		}
	}

	var found []types.NamespacePackageDir
	for i := len(order) - 1; i >= 0; i-- {
		dir := order[i]
		state := states[dir]
		if dir == root || !(state.hasModules || state.hasPackage) {
			continue
		}
		state.class = types.DirClassNamespaceCandidate
		if parent := states[state.parent]; parent != nil {
			parent.hasPackage = true
		}
		found = append(found, types.NamespacePackageDir{Path: dir})
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].Path < found[j].Path
	})
	log.Ctx(ctx).Debug().
		Str("dir", root).
		Int("visited", len(states)).
		Int("namespace_packages", len(found)).
		Msg("namespace discovery finished")
	return found, nil
}

func (a NamespaceFSAdapter) AddPkgutilMarker(ctx context.Context, dir string) error {
	target := filepath.Join(dir, initFilename)
	exists, err := afero.Exists(a.Fs, target)
	if err != nil {
		return types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot stat %s", target), err)
	}
	if exists {
		log.Ctx(ctx).Debug().Str("dir", dir).Msg("package marker already present")
		return nil
	}
	if err := afero.WriteFile(a.Fs, target, []byte(pkgutilMarker), 0o644); err != nil {
		return types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot write %s", target), err)
	}
	return nil
}

func (a NamespaceFSAdapter) Normalize(ctx context.Context, root string) ([]types.NamespacePackageDir, error) {
	found, err := a.ImplicitNamespacePackages(ctx, root)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if err := a.AddPkgutilMarker(ctx, found[i].Path); err != nil {
			return found[:i], err
		}
		found[i].HasMarker = true
	}
	if len(found) > 0 {
		log.Ctx(ctx).Info().
			Str("dir", root).
			Int("rewritten", len(found)).
			Msg("converted implicit namespace packages")
	}
	return found, nil
}

func containsFile(entries []os.FileInfo, name string) bool {
	for _, entry := range entries {
		if !entry.IsDir() && entry.Name() == name {
			return true
		}
	}
	return false
}

func isPythonModule(name string) bool {
	for _, suffix := range pythonModuleSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

var _ ports.NamespacePort = NamespaceFSAdapter{}
