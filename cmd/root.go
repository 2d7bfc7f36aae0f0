// Package cmd provides the vue-explore command line.
//
// Configuration is read, in decreasing priority, from command-line flags,
// VUE_EXPLORE_<SECTION>_<OPTION> environment variables and a YAML config
// file: the --config flag, then VUE_EXPLORE_CONFIG_FILE, then
// .vue-explore.yml in the working directory.
package cmd

import (
	"context"
	"os"

	"github.com/luckyadam/vue-explore/internal/config"
	"github.com/luckyadam/vue-explore/internal/errors"
	"github.com/luckyadam/vue-explore/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// configErr holds a config file read failure until a command needs
	// the configuration.
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vue-explore",
	Short: "Observe documents and report every change made to them",
	Long: `vue-explore turns a YAML or JSON document into an observed value graph
and reports every mutation made to it.

  vue-explore observe state.yaml --script steps.yaml
      apply a mutation script and print each change notification

  vue-explore poll state.yaml
      dirty-check the document file and print a delta whenever it changes

Filter printed notifications with --filter, e.g. 'kind == "set"'.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		describeError(rootCmd, err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .vue-explore.yml, can also use VUE_EXPLORE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", config.DefaultLogFormat, "log format (text, json)")
}

// initConfig points viper at the config file and the environment. It runs
// before every command, so flag bindings are renewed after a viper reset.
func initConfig() {
	configErr = nil

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vue-explore")
	}

	if err := config.BindEnvironment(viper.GetViper()); err != nil {
		configErr = err
		return
	}
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	if err := viper.ReadInConfig(); err != nil {
		// A missing default file is fine; a named file must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			configErr = errors.WrapConfig(err, errors.ErrCodeInvalidConfig, "cannot read config file").
				WithContext("file", viper.ConfigFileUsed())
		}
	}
}

// setup loads the configuration and builds the logger every command uses.
// Logs go to the command's error stream so they never mix with reports.
func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	if configErr != nil {
		return nil, nil, configErr
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if file := viper.ConfigFileUsed(); file != "" {
		logger.Debug(context.Background(), "using config file", "file", file)
	}
	return cfg, logger, nil
}

// describeError prints the structured context of a failed command.
func describeError(cmd *cobra.Command, err error) {
	fields := errors.ContextOf(err)
	for _, key := range sortedKeys(fields) {
		cmd.PrintErrf("  %s: %v\n", key, fields[key])
	}
}
