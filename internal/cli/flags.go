package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wheel-installer/internal/app"
	"wheel-installer/internal/types"
)

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveStringMap(cmd *cobra.Command, values map[string]string, key string, flagName string) map[string]string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringMapString(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringMapString(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}

type serviceOptions struct {
	IgnoreDirs       []string
	EntryPointGroups []string
}

func bindServiceFlags(cmd *cobra.Command, opts *serviceOptions) {
	cmd.Flags().StringSliceVar(&opts.IgnoreDirs, "ignore-dir", nil, "Directories (relative to the output) skipped by namespace discovery")
	cmd.Flags().StringSliceVar(&opts.EntryPointGroups, "entry-point-group", nil, "Entry point groups recorded in metadata.json")
	_ = viper.BindPFlag("ignore_dirs", cmd.Flags().Lookup("ignore-dir"))
	_ = viper.BindPFlag("entry_point_groups", cmd.Flags().Lookup("entry-point-group"))
}

func (o serviceOptions) options(cmd *cobra.Command, python string) app.Options {
	return app.Options{
		IgnoreDirs:       resolveStrings(cmd, o.IgnoreDirs, "ignore_dirs", "ignore-dir"),
		EntryPointGroups: resolveStrings(cmd, o.EntryPointGroups, "entry_point_groups", "entry-point-group"),
		Python:           python,
	}
}

type markerOptions struct {
	PythonVersion      string
	SysPlatform        string
	PlatformSystem     string
	PlatformMachine    string
	ImplementationName string
	OSName             string
}

func bindMarkerFlags(cmd *cobra.Command, opts *markerOptions) {
	cmd.Flags().StringVar(&opts.PythonVersion, "python-version", "", "Evaluate markers for this python_version")
	cmd.Flags().StringVar(&opts.SysPlatform, "sys-platform", "", "Evaluate markers for this sys_platform")
	cmd.Flags().StringVar(&opts.PlatformSystem, "platform-system", "", "Evaluate markers for this platform_system")
	cmd.Flags().StringVar(&opts.PlatformMachine, "platform-machine", "", "Evaluate markers for this platform_machine")
	cmd.Flags().StringVar(&opts.ImplementationName, "implementation-name", "", "Evaluate markers for this implementation_name")
	cmd.Flags().StringVar(&opts.OSName, "os-name", "", "Evaluate markers for this os_name")
	_ = viper.BindPFlag("python_version", cmd.Flags().Lookup("python-version"))
	_ = viper.BindPFlag("sys_platform", cmd.Flags().Lookup("sys-platform"))
	_ = viper.BindPFlag("platform_system", cmd.Flags().Lookup("platform-system"))
	_ = viper.BindPFlag("platform_machine", cmd.Flags().Lookup("platform-machine"))
	_ = viper.BindPFlag("implementation_name", cmd.Flags().Lookup("implementation-name"))
	_ = viper.BindPFlag("os_name", cmd.Flags().Lookup("os-name"))
}

// environment returns nil unless at least one marker variable is set, in
// which case dependencies are filtered by their full markers.
func (o markerOptions) environment(cmd *cobra.Command) *types.MarkerEnvironment {
	env := types.MarkerEnvironment{
		PythonVersion:      resolveString(cmd, o.PythonVersion, "python_version", "python-version"),
		SysPlatform:        resolveString(cmd, o.SysPlatform, "sys_platform", "sys-platform"),
		PlatformSystem:     resolveString(cmd, o.PlatformSystem, "platform_system", "platform-system"),
		PlatformMachine:    resolveString(cmd, o.PlatformMachine, "platform_machine", "platform-machine"),
		ImplementationName: resolveString(cmd, o.ImplementationName, "implementation_name", "implementation-name"),
		OSName:             resolveString(cmd, o.OSName, "os_name", "os-name"),
	}
	if env == (types.MarkerEnvironment{}) {
		return nil
	}
	if env.ImplementationName != "" && env.PlatformPythonImplementation == "" {
		switch env.ImplementationName {
		case "cpython":
			env.PlatformPythonImplementation = "CPython"
		case "pypy":
			env.PlatformPythonImplementation = "PyPy"
		}
	}
	return &env
}
