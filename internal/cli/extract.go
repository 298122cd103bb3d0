package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wheel-installer/internal/app"
)

type extractOptions struct {
	Wheel                       string
	Requirement                 string
	OutputDir                   string
	EnableImplicitNamespacePkgs bool
	Service                     serviceOptions
	Markers                     markerOptions
}

func newExtractCommand() *cobra.Command {
	opts := extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Unpack a local wheel and write metadata.json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Wheel, "wheel", "", "Path to the .whl file")
	cmd.Flags().StringVar(&opts.Requirement, "requirement", "", "Requirement the wheel satisfies, used for extras")
	cmd.Flags().StringVar(&opts.OutputDir, "output", ".", "Installation directory")
	cmd.Flags().BoolVar(&opts.EnableImplicitNamespacePkgs, "enable-implicit-namespace-pkgs", false, "Keep native namespace packages instead of adding pkgutil markers")
	bindServiceFlags(cmd, &opts.Service)
	bindMarkerFlags(cmd, &opts.Markers)

	_ = viper.BindPFlag("wheel", cmd.Flags().Lookup("wheel"))
	_ = viper.BindPFlag("requirement", cmd.Flags().Lookup("requirement"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("enable_implicit_namespace_pkgs", cmd.Flags().Lookup("enable-implicit-namespace-pkgs"))

	return cmd
}

func runExtract(ctx context.Context, cmd *cobra.Command, opts extractOptions) error {
	service := newAppService(opts.Service.options(cmd, ""))
	result, err := service.Extract(ctx, app.ExtractRequest{
		WheelPath:                   resolveString(cmd, opts.Wheel, "wheel", "wheel"),
		Requirement:                 resolveString(cmd, opts.Requirement, "requirement", "requirement"),
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

func printExtractResult(cmd *cobra.Command, result app.ExtractResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "installed %s %s into %s\n", result.Name, result.Version, result.OutputDir)
	if len(result.Extras) > 0 {
		fmt.Fprintf(out, "extras: %s\n", strings.Join(result.Extras, ", "))
	}
	fmt.Fprintf(out, "deps: %s\n", strings.Join(result.Deps, ", "))
	fmt.Fprintf(out, "entry points: %d\n", result.EntryPoints)
	for _, dir := range result.NamespacePackages {
		fmt.Fprintf(out, "- namespace package %s\n", dir)
	}
	fmt.Fprintf(out, "metadata: %s\n", result.MetadataPath)
}
