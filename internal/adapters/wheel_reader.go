package adapters

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"wheel-installer/internal/core"
	"wheel-installer/internal/ports"
	"wheel-installer/internal/types"
)

const (
	distInfoSuffix   = ".dist-info"
	metadataEntry    = "METADATA"
	entryPointsEntry = "entry_points.txt"
)

// WheelReaderAdapter builds a WheelRecord from the dist-info directory of
// a wheel archive.
type WheelReaderAdapter struct {
	Archives         ports.ArchivePort
	EntryPointGroups []string
}

func NewWheelReaderAdapter(archives ports.ArchivePort, entryPointGroups []string) WheelReaderAdapter {
	return WheelReaderAdapter{Archives: archives, EntryPointGroups: entryPointGroups}
}

func (a WheelReaderAdapter) Read(ctx context.Context, wheelPath string) (types.WheelRecord, error) {
	archive, err := a.Archives.Open(wheelPath)
	if err != nil {
		return types.WheelRecord{}, err
	}
	defer archive.Close()

	distInfo, err := findDistInfo(archive.Entries())
	if err != nil {
		return types.WheelRecord{}, err
	}
	content, err := archive.ReadEntry(path.Join(distInfo, metadataEntry))
	if err != nil {
		return types.WheelRecord{}, types.NewKindError(types.ErrorKindMalformedArchive, "cannot read METADATA", err)
	}
	meta, err := core.ParseWheelMetadata(content)
	if err != nil {
		return types.WheelRecord{}, types.NewKindError(types.ErrorKindMalformedArchive, distInfo, err)
	}

	var entryPoints []types.EntryPoint
	if hasEntry(archive.Entries(), path.Join(distInfo, entryPointsEntry)) {
		raw, err := archive.ReadEntry(path.Join(distInfo, entryPointsEntry))
		if err != nil {
			return types.WheelRecord{}, types.NewKindError(types.ErrorKindMalformedArchive, "cannot read entry_points.txt", err)
		}
		entryPoints, err = core.ParseEntryPoints(ctx, raw, a.EntryPointGroups)
		if err != nil {
			return types.WheelRecord{}, types.NewKindError(types.ErrorKindMalformedArchive, distInfo, err)
		}
	}

	record, err := core.BuildWheelRecord(ctx, meta, distInfo, entryPoints)
	if err != nil {
		return types.WheelRecord{}, types.NewKindError(types.ErrorKindMalformedArchive, distInfo, err)
	}
	log.Ctx(ctx).Debug().
		Str("wheel", wheelPath).
		Str("name", record.Name().String()).
		Str("version", record.Version()).
		Int("requires", len(record.Dependencies())).
		Int("entry_points", len(entryPoints)).
		Msg("wheel metadata read")
	return record, nil
}

// findDistInfo returns the single top-level *.dist-info directory that
// holds a METADATA file.
func findDistInfo(entries []string) (string, error) {
	var found []string
	for _, name := range entries {
		dir, file, ok := strings.Cut(name, "/")
		if !ok || file != metadataEntry || !strings.HasSuffix(dir, distInfoSuffix) {
			continue
		}
		found = append(found, dir)
	}
	switch len(found) {
	case 0:
		return "", types.NewKindError(types.ErrorKindMalformedArchive, "no *.dist-info/METADATA entry", nil)
	case 1:
		return found[0], nil
	default:
		return "", types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("multiple dist-info directories: %s", strings.Join(found, ", ")), nil)
	}
}

func hasEntry(entries []string, name string) bool {
	for _, entry := range entries {
		if entry == name {
			return true
		}
	}
	return false
}

var _ ports.WheelReaderPort = WheelReaderAdapter{}
