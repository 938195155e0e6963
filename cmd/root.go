// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/orderlens/internal/config"
	"github.com/xkilldash9x/orderlens/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// NewRootCommand builds a fresh command tree. Each call is independent, so
// tests and repeated invocations never share flag state.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "orderlens",
		Short:         "orderlens retrieves food-delivery order history through a headless browser.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(v, cfgFile); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "orderlens"})
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "orderlens"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting orderlens", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.orderlens/config.yaml)")
	cmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// initializeConfig layers an optional YAML file and ORDERLENS_* environment
// variables over the defaults already in v.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		expanded, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("could not expand config path %q: %w", cfgFile, err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".orderlens"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("ORDERLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// getConfigFromContext returns the configuration loaded by the root command.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
