package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/luckyadam/vue-explore/internal/config"
	"github.com/luckyadam/vue-explore/internal/document"
	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile   string
	configStrict bool
	configFormat string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect vue-explore configuration",
	Long: `Inspect the resolved configuration and validate configuration files.

Examples:
  vue-explore config show                       # Show resolved configuration
  vue-explore config show --format json
  vue-explore config validate                   # Validate .vue-explore.yml
  vue-explore config validate --file other.yml --strict`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Display the configuration after reading the config file, applying
VUE_EXPLORE_ environment overrides and flags, and filling in defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configValidateCmd.Flags().
		StringVarP(&configFile, "file", "f", "", "Configuration file to validate (default: .vue-explore.yml)")
	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format (yaml, json)")
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	targetFile := configFile
	if targetFile == "" {
		for _, candidate := range []string{".vue-explore.yml", ".vue-explore.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				targetFile = candidate
				break
			}
		}
		if targetFile == "" {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"no configuration file found, use --file to specify one")
		}
	}

	v := viper.New()
	v.SetConfigFile(targetFile)
	if err := v.ReadInConfig(); err != nil {
		return errors.WrapConfig(err, errors.ErrCodeInvalidConfig, "cannot read configuration file").
			WithContext("file", targetFile)
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Validating configuration file: %s\n", targetFile)
	validation := config.ValidateWithDetails(cfg)

	if !validation.HasErrors() && !validation.HasWarnings() {
		fmt.Fprintln(out, "Configuration is valid.")
		return nil
	}

	fmt.Fprint(out, validation.String())

	if validation.HasErrors() {
		return fmt.Errorf("configuration validation failed with %d errors", len(validation.Errors))
	}
	if configStrict {
		return fmt.Errorf("configuration validation failed in strict mode with %d warnings", len(validation.Warnings))
	}

	fmt.Fprintf(out, "Configuration is valid with %d warnings. Use --strict to treat warnings as errors.\n",
		len(validation.Warnings))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := document.Encode(&buf, cfg); err != nil {
		return err
	}

	switch configFormat {
	case "yaml", "yml":
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	case "json":
		// Round trip through the YAML form so durations stay readable.
		plain, err := document.Decode(&buf)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(plain)
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
}
