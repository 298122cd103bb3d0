package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wheel-installer/internal/app"
)

type installOptions struct {
	Requirement                 string
	OutputDir                   string
	DownloadDir                 string
	Python                      string
	DownloadOnly                bool
	Isolated                    bool
	ExtraPipArgs                []string
	PipEnv                      map[string]string
	EnableImplicitNamespacePkgs bool
	Service                     serviceOptions
	Markers                     markerOptions
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Fetch a wheel with pip, unpack it and write metadata.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Requirement, "requirement", "", "Requirement passed to pip")
	cmd.Flags().StringVar(&opts.OutputDir, "output", ".", "Installation directory")
	cmd.Flags().StringVar(&opts.DownloadDir, "download-dir", "", "Keep the fetched wheel in this directory")
	cmd.Flags().StringVar(&opts.Python, "python", "python3", "Python interpreter used to run pip")
	cmd.Flags().BoolVar(&opts.DownloadOnly, "download-only", false, "Only download binary wheels, building from source as a fallback")
	cmd.Flags().BoolVar(&opts.Isolated, "isolated", false, "Run pip in isolated mode")
	cmd.Flags().StringSliceVar(&opts.ExtraPipArgs, "extra-pip-arg", nil, "Additional pip arguments")
	cmd.Flags().StringToStringVar(&opts.PipEnv, "pip-env", nil, "Environment variables for pip (KEY=VALUE)")
	cmd.Flags().BoolVar(&opts.EnableImplicitNamespacePkgs, "enable-implicit-namespace-pkgs", false, "Keep native namespace packages instead of adding pkgutil markers")
	bindServiceFlags(cmd, &opts.Service)
	bindMarkerFlags(cmd, &opts.Markers)

	_ = viper.BindPFlag("requirement", cmd.Flags().Lookup("requirement"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("download_dir", cmd.Flags().Lookup("download-dir"))
	_ = viper.BindPFlag("python", cmd.Flags().Lookup("python"))
	_ = viper.BindPFlag("download_only", cmd.Flags().Lookup("download-only"))
	_ = viper.BindPFlag("isolated", cmd.Flags().Lookup("isolated"))
	_ = viper.BindPFlag("extra_pip_args", cmd.Flags().Lookup("extra-pip-arg"))
	_ = viper.BindPFlag("pip_env", cmd.Flags().Lookup("pip-env"))
	_ = viper.BindPFlag("enable_implicit_namespace_pkgs", cmd.Flags().Lookup("enable-implicit-namespace-pkgs"))

	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions) error {
	python := resolveString(cmd, opts.Python, "python", "python")
	service := newAppService(opts.Service.options(cmd, python))
	result, err := service.Install(ctx, app.InstallRequest{
		Requirement:                 resolveString(cmd, opts.Requirement, "requirement", "requirement"),
		Python:                      python,
		DownloadOnly:                resolveBool(cmd, opts.DownloadOnly, "download_only", "download-only"),
		Isolated:                    resolveBool(cmd, opts.Isolated, "isolated", "isolated"),
		ExtraPipArgs:                resolveStrings(cmd, opts.ExtraPipArgs, "extra_pip_args", "extra-pip-arg"),
		PipEnv:                      resolveStringMap(cmd, opts.PipEnv, "pip_env", "pip-env"),
		DownloadDir:                 resolveString(cmd, opts.DownloadDir, "download_dir", "download-dir"),
		OutputDir:                   resolveString(cmd, opts.OutputDir, "output", "output"),
		EnableImplicitNamespacePkgs: resolveBool(cmd, opts.EnableImplicitNamespacePkgs, "enable_implicit_namespace_pkgs", "enable-implicit-namespace-pkgs"),
		Environment:                 opts.Markers.environment(cmd),
	})
	if err != nil {
		return err
	}
	printExtractResult(cmd, result)
	return nil
}
