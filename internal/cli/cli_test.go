package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheel-installer/internal/types"
	"wheel-installer/tests/testutil"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"extract", "install", "inspect"} {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestExtractCommandFlags(t *testing.T) {
	cmd := newExtractCommand()
	flags := []string{
		"wheel", "requirement", "output", "enable-implicit-namespace-pkgs",
		"ignore-dir", "entry-point-group",
		"python-version", "sys-platform", "platform-system",
		"platform-machine", "implementation-name", "os-name",
	}
	for _, name := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestInstallCommandFlags(t *testing.T) {
	cmd := newInstallCommand()
	flags := []string{
		"requirement", "output", "download-dir", "python",
		"download-only", "isolated", "extra-pip-arg", "pip-env",
		"enable-implicit-namespace-pkgs",
	}
	for _, name := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestInspectCommandFlags(t *testing.T) {
	cmd := newInspectCommand()
	assert.NotNil(t, cmd.Flags().Lookup("wheel"))
	assert.NotNil(t, cmd.Flags().Lookup("format"))
}

// ---------- End to end command tests ----------

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeCLIWheel(t *testing.T, dir string) string {
	t.Helper()
	return testutil.WriteWheel(t, dir, "Foo", "1.2.3",
		[]string{"bar", "Foo ; extra == 'x'", "baz ; extra == 'x'", `pywin32 ; sys_platform == "win32"`},
		"[console_scripts]\nfoo = foo.cli:main\n",
		testutil.Member{Name: "foo/__init__.py"},
		testutil.Member{Name: "ns/sub/__init__.py"},
	)
}

func TestExtractCommandWritesMetadata(t *testing.T) {
	dir := t.TempDir()
	wheel := writeCLIWheel(t, dir)
	outDir := filepath.Join(dir, "site")

	out, err := runRoot(t, "extract", "--wheel", wheel, "--requirement", "foo[x]", "--output", outDir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "installed foo 1.2.3")
	assert.Contains(t, out, "deps: bar, baz")

	raw, err := os.ReadFile(filepath.Join(outDir, "metadata.json"))
	require.NoError(t, err)
	var doc types.MetadataDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []string{"bar", "baz"}, doc.Deps)
	assert.FileExists(t, filepath.Join(outDir, "ns", "__init__.py"))
}

func TestExtractCommandReadsEnvironment(t *testing.T) {
	dir := t.TempDir()
	wheel := writeCLIWheel(t, dir)
	outDir := filepath.Join(dir, "site")
	t.Setenv("WHEEL_INSTALLER_REQUIREMENT", "foo[x]")
	t.Setenv("WHEEL_INSTALLER_SYS_PLATFORM", "win32")

	out, err := runRoot(t, "extract", "--wheel", wheel, "--output", outDir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "deps: bar, baz, pywin32")
}

func TestInspectCommandYAML(t *testing.T) {
	dir := t.TempDir()
	wheel := writeCLIWheel(t, dir)

	out, err := runRoot(t, "inspect", "--wheel", wheel, "--format", "yaml", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "name: foo")
	assert.Contains(t, out, "dist_info: Foo-1.2.3.dist-info")
	assert.NoDirExists(t, filepath.Join(dir, "foo"))
}

func TestInspectCommandRejectsUnknownFormat(t *testing.T) {
	_, err := runRoot(t, "inspect", "--wheel", "x.whl", "--format", "toml", "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeForError(err))
}

func TestExtractCommandTraversalExitCode(t *testing.T) {
	dir := t.TempDir()
	wheel := testutil.WriteWheel(t, dir, "evil", "1.0", nil, "", testutil.Member{Name: "../../evil", Body: "x"})

	_, err := runRoot(t, "extract", "--wheel", wheel, "--output", filepath.Join(dir, "a", "b", "site"), "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, 3, exitCodeForError(err))
	assert.True(t, strings.HasPrefix(errorMessage(err), "path traversal rejected"))
}

// ---------- Helper function tests ----------

func TestResolveString(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		value    string
		expected string
	}{
		{
			name:     "nil cmd with value returns value",
			cmd:      nil,
			value:    "explicit",
			expected: "explicit",
		},
		{
			name:     "nil cmd empty value returns empty",
			cmd:      nil,
			value:    "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveString(tt.cmd, tt.value, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveStrings(t *testing.T) {
	got := resolveStrings(nil, []string{"a", "b"}, "test_key", "test-flag")
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestResolveStringMap(t *testing.T) {
	got := resolveStringMap(nil, map[string]string{"A": "1"}, "test_key", "test-flag")
	assert.Equal(t, map[string]string{"A": "1"}, got)
}

func TestResolveBool(t *testing.T) {
	assert.True(t, resolveBool(nil, true, "test_key", "test-flag"))
	assert.False(t, resolveBool(nil, false, "test_key", "test-flag"))
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "anything"), "nil cmd should return false")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	assert.False(t, flagChanged(cmd, "myflag"), "unchanged flag")
	assert.False(t, flagChanged(cmd, "nonexistent"), "nonexistent flag")
	require.NoError(t, cmd.Flags().Set("myflag", "val"))
	assert.True(t, flagChanged(cmd, "myflag"))
}

func TestMarkerEnvironmentFromFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	cmd := newExtractCommand()
	opts := markerOptions{}
	assert.Nil(t, opts.environment(cmd))

	require.NoError(t, cmd.Flags().Set("implementation-name", "cpython"))
	opts.ImplementationName = "cpython"
	env := opts.environment(cmd)
	require.NotNil(t, env)
	assert.Equal(t, "CPython", env.PlatformPythonImplementation)
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "malformed archive", err: types.NewKindError(types.ErrorKindMalformedArchive, "no METADATA", nil), expected: 2},
		{name: "path traversal", err: types.NewKindError(types.ErrorKindPathTraversalRejected, "../x", nil), expected: 3},
		{name: "extraction", err: types.NewKindError(types.ErrorKindExtraction, "crc", nil), expected: 4},
		{name: "write", err: types.NewKindError(types.ErrorKindWrite, "metadata.json", nil), expected: 5},
		{name: "fetch", err: types.NewKindError(types.ErrorKindFetch, "pip", nil), expected: 5},
		{
			name: "invalid argument",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("bad input"),
			expected: 2,
		},
		{
			name: "not found",
			err: errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("file missing"),
			expected: 5,
		},
		{
			name:     "unknown error",
			err:      assert.AnError,
			expected: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeForError(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("something broke")
	assert.Equal(t, "something broke", errorMessage(err))
	assert.Equal(t, assert.AnError.Error(), errorMessage(assert.AnError))
}
