package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"wheel-installer/internal/ports"
	"wheel-installer/internal/types"
)

// MetadataFileAdapter persists the metadata document next to the unpacked
// wheel. Writes go to a temporary file in the same directory which is then
// renamed over the final path, so readers see either the old or the new
// document.
type MetadataFileAdapter struct {
	Fs afero.Fs
}

func NewMetadataFileAdapter(fs afero.Fs) MetadataFileAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return MetadataFileAdapter{Fs: fs}
}

func (a MetadataFileAdapter) WriteMetadata(ctx context.Context, dir string, doc types.MetadataDocument) (string, error) {
	doc = canonicalDocument(doc)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", types.NewKindError(types.ErrorKindWrite, "cannot encode metadata", err)
	}
	data = append(data, '\n')

	target := filepath.Join(dir, types.MetadataFilename)
	tmp, err := afero.TempFile(a.Fs, dir, "."+types.MetadataFilename+".*.tmp")
	if err != nil {
		return "", types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot create temporary file in %s", dir), err)
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = a.Fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot write %s", tmpName), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot sync %s", tmpName), err)
	}
	if err := tmp.Close(); err != nil {
		return "", types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot close %s", tmpName), err)
	}
	if err := a.Fs.Chmod(tmpName, 0o644); err != nil {
		return "", types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot chmod %s", tmpName), err)
	}
	if err := a.Fs.Rename(tmpName, target); err != nil {
		return "", types.NewKindError(types.ErrorKindWrite, fmt.Sprintf("cannot rename onto %s", target), err)
	}
	renamed = true
	log.Ctx(ctx).Debug().
		Str("path", target).
		Int("deps", len(doc.Deps)).
		Int("entry_points", len(doc.EntryPoints)).
		Msg("metadata written")
	return target, nil
}

func (a MetadataFileAdapter) ReadMetadata(ctx context.Context, dir string) (types.MetadataDocument, error) {
	target := filepath.Join(dir, types.MetadataFilename)
	data, err := afero.ReadFile(a.Fs, target)
	if err != nil {
		return types.MetadataDocument{}, types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("cannot read %s", target), err)
	}
	var doc types.MetadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.MetadataDocument{}, types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("invalid %s", target), err)
	}
	log.Ctx(ctx).Debug().Str("path", target).Msg("metadata read")
	return canonicalDocument(doc), nil
}

// canonicalDocument sorts deps and entry points and replaces nil slices so
// the encoded form is stable.
func canonicalDocument(doc types.MetadataDocument) types.MetadataDocument {
	deps := append([]string{}, doc.Deps...)
	sort.Strings(deps)
	entryPoints := append([]types.EntryPointRecord{}, doc.EntryPoints...)
	sort.SliceStable(entryPoints, func(i, j int) bool {
		return entryPoints[i].Name < entryPoints[j].Name
	})
	doc.Deps = deps
	doc.EntryPoints = entryPoints
	return doc
}

var _ ports.MetadataPort = MetadataFileAdapter{}
