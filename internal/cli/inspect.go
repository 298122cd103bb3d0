package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"wheel-installer/internal/app"
	"wheel-installer/internal/types"
)

type inspectOptions struct {
	Wheel       string
	Requirement string
	Format      string
	Service     serviceOptions
	Markers     markerOptions
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the metadata a wheel would produce without unpacking it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Wheel, "wheel", "", "Path to the .whl file")
	cmd.Flags().StringVar(&opts.Requirement, "requirement", "", "Requirement the wheel satisfies, used for extras")
	cmd.Flags().StringVar(&opts.Format, "format", string(types.OutputFormatJSON), "Output format (json|yaml)")
	bindServiceFlags(cmd, &opts.Service)
	bindMarkerFlags(cmd, &opts.Markers)

	_ = viper.BindPFlag("wheel", cmd.Flags().Lookup("wheel"))
	_ = viper.BindPFlag("requirement", cmd.Flags().Lookup("requirement"))
	_ = viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	format := types.OutputFormat(resolveString(cmd, opts.Format, "format", "format"))
	if format != types.OutputFormatJSON && format != types.OutputFormatYAML {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported output format: %s", format))
	}
	service := newAppService(opts.Service.options(cmd, ""))
	result, err := service.Inspect(ctx, app.InspectRequest{
		WheelPath:   resolveString(cmd, opts.Wheel, "wheel", "wheel"),
		Requirement: resolveString(cmd, opts.Requirement, "requirement", "requirement"),
		Environment: opts.Markers.environment(cmd),
	})
	if err != nil {
		return err
	}
	return writeInspectResult(cmd, format, result)
}

func writeInspectResult(cmd *cobra.Command, format types.OutputFormat, result app.InspectResult) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case types.OutputFormatYAML:
		data, err = yaml.Marshal(result)
	default:
		data, err = json.MarshalIndent(result, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode inspect result").
			WithCause(err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
