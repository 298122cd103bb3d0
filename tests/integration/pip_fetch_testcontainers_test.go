//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"wheel-installer/internal/adapters"
	"wheel-installer/internal/app"
	"wheel-installer/internal/ports"
	"wheel-installer/internal/types"
)

const (
	indexPackageName    = "demo-pkg"
	indexPackageVersion = "1.0.0"
)

// simpleIndexScript builds a wheel in the container and serves it from a
// PEP 503 simple index on port 8080.
const simpleIndexScript = `
import http.server, os, socketserver, zipfile

root = "/srv"
name = "demo_pkg-1.0.0-py3-none-any.whl"
dist = "demo_pkg-1.0.0.dist-info"
os.makedirs(root + "/files", exist_ok=True)
os.makedirs(root + "/simple/demo-pkg", exist_ok=True)

metadata = "\n".join([
    "Metadata-Version: 2.1",
    "Name: demo-pkg",
    "Version: 1.0.0",
    "Provides-Extra: cli",
    "Provides-Extra: all",
    "Requires-Dist: requests",
    "Requires-Dist: colorama; extra == 'cli'",
    "Requires-Dist: demo-pkg[cli]; extra == 'all'",
    "",
])
members = {
    "demo/__init__.py": "",
    "nsroot/plugin/__init__.py": "VALUE = 1\n",
    dist + "/METADATA": metadata,
    dist + "/WHEEL": "Wheel-Version: 1.0\nGenerator: test\nRoot-Is-Purelib: true\nTag: py3-none-any\n",
    dist + "/entry_points.txt": "[console_scripts]\ndemo = demo.cli:main\n",
    dist + "/RECORD": "",
}
with zipfile.ZipFile(root + "/files/" + name, "w") as wheel:
    for member, body in members.items():
        wheel.writestr(member, body)

with open(root + "/simple/index.html", "w") as index:
    index.write('<a href="/simple/demo-pkg/">demo-pkg</a>')
with open(root + "/simple/demo-pkg/index.html", "w") as index:
    index.write('<a href="/files/%s">%s</a>' % (name, name))

os.chdir(root)
socketserver.TCPServer.allow_reuse_address = True
with socketserver.TCPServer(("", 8080), http.server.SimpleHTTPRequestHandler) as httpd:
    httpd.serve_forever()
`

func TestPipFetchAndExtractWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 is required to run pip")
	}
	ctx := t.Context()

	endpoint, host, cleanup := startSimpleIndex(ctx, t)
	defer cleanup()

	workDir := t.TempDir()
	fetcher := adapters.NewPipFetcherAdapter(python)
	wheelPath, err := fetcher.Fetch(ctx, ports.FetchRequest{
		Requirement:  indexPackageName + "[cli]==" + indexPackageVersion,
		DownloadOnly: true,
		Isolated:     true,
		ExtraArgs:    []string{"--index-url", endpoint + "/simple", "--trusted-host", host},
		WorkDir:      filepath.Join(workDir, "download"),
	})
	require.NoError(t, err)
	require.Equal(t, "demo_pkg-1.0.0-py3-none-any.whl", filepath.Base(wheelPath))

	service := app.NewService(app.Options{Python: python})
	outputDir := filepath.Join(workDir, "site")
	result, err := service.Extract(ctx, app.ExtractRequest{
		WheelPath:   wheelPath,
		Requirement: indexPackageName + "[cli]",
		OutputDir:   outputDir,
	})
	require.NoError(t, err)
	require.Equal(t, "demo-pkg", result.Name)
	require.Equal(t, []string{"cli"}, result.Extras)
	require.Equal(t, []string{"colorama", "requests"}, result.Deps)
	require.Equal(t, 1, result.EntryPoints)

	marker, err := os.ReadFile(filepath.Join(outputDir, "nsroot", "__init__.py"))
	require.NoError(t, err)
	require.Contains(t, string(marker), "extend_path")

	doc, err := adapters.NewMetadataFileAdapter(nil).ReadMetadata(ctx, outputDir)
	require.NoError(t, err)
	require.Equal(t, types.MetadataDocument{
		Name:    "demo-pkg",
		Version: indexPackageVersion,
		Deps:    []string{"colorama", "requests"},
		EntryPoints: []types.EntryPointRecord{
			{Name: "demo", Module: "demo.cli", Attribute: "main"},
		},
	}, doc)
}

func TestPipInstallServiceWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 is required to run pip")
	}
	ctx := t.Context()

	endpoint, host, cleanup := startSimpleIndex(ctx, t)
	defer cleanup()

	outputDir := filepath.Join(t.TempDir(), "site")
	service := app.NewService(app.Options{Python: python})
	result, err := service.Install(ctx, app.InstallRequest{
		Requirement:  indexPackageName + "[all]",
		DownloadOnly: true,
		Isolated:     true,
		ExtraPipArgs: []string{"--index-url", endpoint + "/simple", "--trusted-host", host},
		OutputDir:    outputDir,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"all"}, result.Extras)
	require.Equal(t, []string{"requests"}, result.Deps)
	require.FileExists(t, filepath.Join(outputDir, types.MetadataFilename))
}

func startSimpleIndex(ctx context.Context, t *testing.T) (string, string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8080/tcp"},
		Cmd:          []string{"python", "-c", simpleIndexScript},
		WaitingFor: wait.ForHTTP("/simple/" + indexPackageName + "/").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(context.Background())
	}
	return endpoint, host, cleanup
}
