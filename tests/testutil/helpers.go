// Package testutil provides shared test helpers used across integration
// and unit test packages.
package testutil

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// Member is a single file stored in a test wheel.
type Member struct {
	Name string
	Body string
	Mode os.FileMode
}

// WriteZip stores members, in order, in a zip archive at path.
func WriteZip(t *testing.T, path string, members []Member) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	writer := zip.NewWriter(file)
	for _, member := range members {
		header := &zip.FileHeader{Name: member.Name, Method: zip.Deflate}
		mode := member.Mode
		if mode == 0 {
			mode = 0o644
		}
		if strings.HasSuffix(member.Name, "/") {
			mode |= os.ModeDir
		}
		header.SetMode(mode)
		w, err := writer.CreateHeader(header)
		require.NoError(t, err)
		_, err = w.Write([]byte(member.Body))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return path
}

// Metadata renders a METADATA file for name and version with the given
// Requires-Dist values.
func Metadata(name string, version string, requires ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Metadata-Version: 2.1\nName: %s\nVersion: %s\n", name, version)
	for _, req := range requires {
		fmt.Fprintf(&b, "Requires-Dist: %s\n", req)
	}
	b.WriteString("\nlong description\n")
	return b.String()
}

// WriteWheel writes a minimal wheel named after name and version into dir.
// Extra members are appended after the dist-info files.
func WriteWheel(t *testing.T, dir string, name string, version string, requires []string, entryPoints string, extra ...Member) string {
	t.Helper()
	distInfo := fmt.Sprintf("%s-%s.dist-info", strings.ReplaceAll(name, "-", "_"), version)
	members := []Member{
		{Name: distInfo + "/METADATA", Body: Metadata(name, version, requires...)},
		{Name: distInfo + "/WHEEL", Body: "Wheel-Version: 1.0\nRoot-Is-Purelib: true\nTag: py3-none-any\n"},
	}
	if entryPoints != "" {
		members = append(members, Member{Name: distInfo + "/entry_points.txt", Body: entryPoints})
	}
	members = append(members, extra...)
	filename := fmt.Sprintf("%s-%s-py3-none-any.whl", strings.ReplaceAll(name, "-", "_"), version)
	return WriteZip(t, filepath.Join(dir, filename), members)
}
