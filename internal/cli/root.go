package cli

import (
	"context"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wheel-installer/internal/app"
	"wheel-installer/internal/types"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "WHEEL_INSTALLER"

// newAppService is replaced in tests.
var newAppService = app.NewService

type RootConfig struct {
	ConfigFile string
	LogLevel   string
}

func Execute() {
	root := newRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error().Msg(errorMessage(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:           "wheel-installer",
		Short:         "Unpack Python wheels and record their resolved metadata",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			logger := setupLogging(viper.GetString("log_level"))
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newExtractCommand())
	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newInspectCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("wheel-installer")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/wheel-installer")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

// setupLogging configures the global logger on stderr so stdout stays
// reserved for command output.
func setupLogging(level string) zerolog.Logger {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return log.Logger
}

func exitCodeForError(err error) int {
	switch types.KindOf(err) {
	case types.ErrorKindMalformedArchive:
		return 2
	case types.ErrorKindPathTraversalRejected:
		return 3
	case types.ErrorKindExtraction:
		return 4
	case types.ErrorKindWrite, types.ErrorKindFetch:
		return 5
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeFailedPrecondition:
		return 4
	case errbuilder.CodeNotFound, errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	return types.Message(err)
}
