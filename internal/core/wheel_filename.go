package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"wheel-installer/internal/types"
)

// ParseWheelFilename decodes a PEP 427 wheel file name:
// {name}-{version}(-{build})?-{python}-{abi}-{platform}.whl. Compressed tag
// sets such as "py2.py3" are expanded.
func ParseWheelFilename(filename string) (types.WheelFileInfo, error) {
	base := filepath.Base(filename)
	if !strings.HasSuffix(base, ".whl") {
		return types.WheelFileInfo{}, invalidWheelFilename(base, "missing .whl suffix")
	}
	parts := strings.Split(strings.TrimSuffix(base, ".whl"), "-")
	if len(parts) != 5 && len(parts) != 6 {
		return types.WheelFileInfo{}, invalidWheelFilename(base, fmt.Sprintf("expected 5 or 6 components, got %d", len(parts)))
	}
	info := types.WheelFileInfo{
		Name:    types.NewPackageName(parts[0]),
		Version: parts[1],
	}
	if len(parts) == 6 {
		build := parts[2]
		if build == "" || !unicode.IsDigit(rune(build[0])) {
			return types.WheelFileInfo{}, invalidWheelFilename(base, fmt.Sprintf("build tag %q does not start with a digit", build))
		}
		info.BuildTag = build
	}
	python, abi, platform := parts[len(parts)-3], parts[len(parts)-2], parts[len(parts)-1]
	for _, py := range strings.Split(python, ".") {
		for _, a := range strings.Split(abi, ".") {
			for _, plat := range strings.Split(platform, ".") {
				info.Tags = append(info.Tags, types.WheelTag{Python: py, ABI: a, Platform: plat})
			}
		}
	}
	return info, nil
}

func invalidWheelFilename(name string, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid wheel filename %s: %s", name, reason))
}
