package adapters

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"wheel-installer/internal/core"
	"wheel-installer/internal/ports"
	"wheel-installer/internal/shared"
	"wheel-installer/internal/types"
)

const defaultPython = "python3"

// CommandRunner executes name with args and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args []string, env []string, dir string) ([]byte, error)

// PipFetcherAdapter obtains a single wheel for a requirement by driving
// pip in a subprocess.
type PipFetcherAdapter struct {
	Fs     afero.Fs
	Python string
	Run    CommandRunner
}

func NewPipFetcherAdapter(python string) PipFetcherAdapter {
	return PipFetcherAdapter{
		Fs:     afero.NewOsFs(),
		Python: python,
		Run:    execRunner,
	}
}

func (a PipFetcherAdapter) Fetch(ctx context.Context, request ports.FetchRequest) (string, error) {
	if strings.TrimSpace(request.Requirement) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirement is required")
	}
	if strings.TrimSpace(request.WorkDir) == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("download directory is required")
	}
	fs := a.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	run := a.Run
	if run == nil {
		run = execRunner
	}
	python := firstNonEmpty(request.Python, a.Python, defaultPython)

	if err := fs.MkdirAll(request.WorkDir, 0o755); err != nil {
		return "", types.NewKindError(types.ErrorKindFetch, fmt.Sprintf("cannot create %s", request.WorkDir), err)
	}
	// Requirement specific options such as --hash are only accepted inside
	// a requirements file.
	reqFile, err := afero.TempFile(fs, "", "wheel-installer-requirement-*.txt")
	if err != nil {
		return "", types.NewKindError(types.ErrorKindFetch, "cannot create requirements file", err)
	}
	reqPath := reqFile.Name()
	defer func() {
		if err := fs.Remove(reqPath); err != nil && !os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Err(err).Str("path", reqPath).Msg("failed to remove requirements file")
		}
	}()
	if _, err := reqFile.WriteString(request.Requirement); err != nil {
		_ = reqFile.Close()
		return "", types.NewKindError(types.ErrorKindFetch, "cannot write requirements file", err)
	}
	if err := reqFile.Close(); err != nil {
		return "", types.NewKindError(types.ErrorKindFetch, "cannot close requirements file", err)
	}

	env := ReproducibleEnv(os.Environ(), request.Env)
	args := pipArgs(request, reqPath)
	logger := log.Ctx(ctx)
	logger.Debug().Str("python", python).Strs("args", args).Msg("running pip")
	output, err := run(ctx, python, args, env, request.WorkDir)
	if err != nil {
		if !request.DownloadOnly {
			return "", types.NewKindError(types.ErrorKindFetch, "pip wheel failed", shared.CommandError(output, err))
		}
		logger.Warn().
			Str("requirement", request.Requirement).
			Err(err).
			Msg("binary download failed, building wheel from source")
		fallback := []string{"-m", "pip", "wheel", "--no-deps", "-w", request.WorkDir, "-r", reqPath}
		output, err = run(ctx, python, fallback, env, request.WorkDir)
		if err != nil {
			return "", types.NewKindError(types.ErrorKindFetch, "pip wheel fallback failed", shared.CommandError(output, err))
		}
	}
	return a.locateWheel(ctx, fs, request.WorkDir)
}

func (a PipFetcherAdapter) locateWheel(ctx context.Context, fs afero.Fs, dir string) (string, error) {
	wheels, err := afero.Glob(fs, filepath.Join(dir, "*.whl"))
	if err != nil {
		return "", types.NewKindError(types.ErrorKindFetch, fmt.Sprintf("cannot list %s", dir), err)
	}
	sort.Strings(wheels)
	if len(wheels) != 1 {
		return "", types.NewKindError(types.ErrorKindFetch, fmt.Sprintf("expected exactly one wheel in %s, found %d", dir, len(wheels)), nil)
	}
	info, err := core.ParseWheelFilename(wheels[0])
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("wheel", wheels[0]).Msg("wheel file name does not follow PEP 427")
		return wheels[0], nil
	}
	log.Ctx(ctx).Info().
		Str("wheel", filepath.Base(wheels[0])).
		Str("name", info.Name.String()).
		Str("version", info.Version).
		Msg("wheel fetched")
	return wheels[0], nil
}

func pipArgs(request ports.FetchRequest, reqPath string) []string {
	args := []string{"-m", "pip"}
	if request.Isolated {
		args = append(args, "--isolated")
	}
	if request.DownloadOnly {
		args = append(args, "download", "--only-binary=:all:", "-d", request.WorkDir)
	} else {
		args = append(args, "wheel", "-w", request.WorkDir)
	}
	args = append(args, "--no-deps")
	args = append(args, request.ExtraArgs...)
	return append(args, "-r", reqPath)
}

// ReproducibleEnv returns base with overrides applied and the variables
// that keep wheel builds reproducible: debug symbols off, a fixed
// SOURCE_DATE_EPOCH and a fixed hash seed. Existing values of the latter
// two are kept.
func ReproducibleEnv(base []string, overrides map[string]string) []string {
	values := map[string]string{}
	var order []string
	set := func(key string, value string) {
		if _, ok := values[key]; !ok {
			order = append(order, key)
		}
		values[key] = value
	}
	for _, entry := range base {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		set(key, value)
	}
	if cflags, ok := values["CFLAGS"]; ok && cflags != "" {
		set("CFLAGS", cflags+" -g0")
	} else {
		set("CFLAGS", "-g0")
	}
	if _, ok := values["SOURCE_DATE_EPOCH"]; !ok {
		set("SOURCE_DATE_EPOCH", "315532800")
	}
	if _, ok := values["PYTHONHASHSEED"]; !ok {
		set("PYTHONHASHSEED", "0")
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		set(key, overrides[key])
	}
	env := make([]string, 0, len(order))
	for _, key := range order {
		env = append(env, key+"="+values[key])
	}
	return env
}

func execRunner(ctx context.Context, name string, args []string, env []string, dir string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var _ ports.FetcherPort = PipFetcherAdapter{}
