package adapters

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"wheel-installer/internal/ports"
	"wheel-installer/internal/types"
)

type ZipArchiveAdapter struct {
	Fs afero.Fs
}

func NewZipArchiveAdapter(fs afero.Fs) ZipArchiveAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return ZipArchiveAdapter{Fs: fs}
}

func (a ZipArchiveAdapter) Open(path string) (ports.Archive, error) {
	file, err := a.Fs.Open(path)
	if err != nil {
		return nil, types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("cannot open %s", path), err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("cannot stat %s", path), err)
	}
	reader, err := zip.NewReader(file, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		_ = file.Close()
		return nil, types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("%s is not a zip archive", path), err)
	}
	return &zipArchive{file: file, reader: reader}, nil
}

func (a ZipArchiveAdapter) Unzip(ctx context.Context, path string, dest string) error {
	archive, err := a.Open(path)
	if err != nil {
		return err
	}
	defer archive.Close()
	reader := archive.(*zipArchive).reader

	for _, member := range reader.File {
		if err := validateMemberName(member.Name); err != nil {
			return err
		}
	}
	if err := a.Fs.MkdirAll(dest, 0o755); err != nil {
		return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot create %s", dest), err)
	}
	vfs := aferoVFS{fs: a.Fs}
	written := 0
	for _, member := range reader.File {
		if err := ctx.Err(); err != nil {
			return types.NewKindError(types.ErrorKindExtraction, "cancelled", err)
		}
		target, err := securejoin.SecureJoinVFS(dest, member.Name, vfs)
		if err != nil {
			return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot place %s", member.Name), err)
		}
		if member.FileInfo().IsDir() || strings.HasSuffix(member.Name, "/") {
			if err := a.Fs.MkdirAll(target, 0o755); err != nil {
				return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot create %s", member.Name), err)
			}
			continue
		}
		if err := a.extractMember(member, target); err != nil {
			return err
		}
		written++
	}
	log.Ctx(ctx).Debug().
		Str("wheel", path).
		Str("dir", dest).
		Int("files", written).
		Msg("wheel extracted")
	return nil
}

func (a ZipArchiveAdapter) extractMember(member *zip.File, target string) error {
	if err := a.Fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot create parent of %s", member.Name), err)
	}
	src, err := member.Open()
	if err != nil {
		return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot read %s", member.Name), err)
	}
	defer src.Close()
	mode := member.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	dst, err := a.Fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot create %s", member.Name), err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot write %s", member.Name), err)
	}
	if err := dst.Close(); err != nil {
		return types.NewKindError(types.ErrorKindExtraction, fmt.Sprintf("cannot close %s", member.Name), err)
	}
	return nil
}

// validateMemberName rejects names that would land outside the
// destination once joined. Any ".." segment is rejected, even one that
// stays below the destination.
func validateMemberName(name string) error {
	if strings.ContainsRune(name, 0) {
		return types.NewKindError(types.ErrorKindPathTraversalRejected, fmt.Sprintf("%q contains a NUL byte", name), nil)
	}
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") {
		return types.NewKindError(types.ErrorKindPathTraversalRejected, fmt.Sprintf("%q is absolute", name), nil)
	}
	local := filepath.FromSlash(strings.TrimSuffix(slashed, "/"))
	if filepath.VolumeName(local) != "" || filepath.IsAbs(local) {
		return types.NewKindError(types.ErrorKindPathTraversalRejected, fmt.Sprintf("%q is absolute", name), nil)
	}
	if local == "" || !filepath.IsLocal(local) {
		return types.NewKindError(types.ErrorKindPathTraversalRejected, fmt.Sprintf("%q escapes the destination", name), nil)
	}
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return types.NewKindError(types.ErrorKindPathTraversalRejected, fmt.Sprintf("%q escapes the destination", name), nil)
		}
	}
	return nil
}

type zipArchive struct {
	file   afero.File
	reader *zip.Reader
}

func (z *zipArchive) Entries() []string {
	names := make([]string, 0, len(z.reader.File))
	for _, member := range z.reader.File {
		names = append(names, member.Name)
	}
	return names
}

func (z *zipArchive) ReadEntry(name string) ([]byte, error) {
	for _, member := range z.reader.File {
		if member.Name != name {
			continue
		}
		src, err := member.Open()
		if err != nil {
			return nil, types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("cannot read %s", name), err)
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, types.NewKindError(types.ErrorKindMalformedArchive, fmt.Sprintf("cannot read %s", name), err)
		}
		return data, nil
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("archive entry not found: %s", name))
}

func (z *zipArchive) Close() error {
	return z.file.Close()
}

// aferoVFS lets securejoin resolve symlinks through an afero filesystem.
type aferoVFS struct {
	fs afero.Fs
}

func (v aferoVFS) Lstat(name string) (os.FileInfo, error) {
	if lstater, ok := v.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(name)
		return info, err
	}
	return v.fs.Stat(name)
}

func (v aferoVFS) Readlink(name string) (string, error) {
	if reader, ok := v.fs.(afero.LinkReader); ok {
		return reader.ReadlinkIfPossible(name)
	}
	return "", &os.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
}

var _ ports.ArchivePort = ZipArchiveAdapter{}
