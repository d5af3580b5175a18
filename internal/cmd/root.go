package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/slotsig/internal/cmd/config"
	appconfig "github.com/Iron-Ham/slotsig/internal/config"
	"github.com/Iron-Ham/slotsig/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "sigtrace",
	Short: "Script re-entrant signal emissions and check their traces",
	Long: `sigtrace runs scenarios against a signal: handlers that disconnect
themselves or their neighbours, connect new handlers, emit again or close
the signal while an emission is in progress. Each run records a call
trace that is compared with the scenario's expectations.

Built-in scenarios cover every mutation-during-emission case; use
'sigtrace list' to see them and 'sigtrace run --all' to check them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the root command with ctx, which long-running
// commands such as watch stop on. A failure is reported on stderr.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// reportError prints err for the user. Failures below error severity, such
// as scenarios that did not match their expectations, carry no prefix.
func reportError(w io.Writer, err error) {
	msg := errors.UserMessage(err)
	if errors.GetSeverity(err) < errors.SeverityError {
		fmt.Fprintln(w, msg)
		return
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/sigtrace/config.yaml)")
	rootCmd.PersistentFlags().String("color", "", "styled output: auto, always, never")
	rootCmd.PersistentFlags().String("theme", "", "color theme for styled output")
	bindFlags()

	config.Register(rootCmd)
}

// bindFlags binds the global flags to their viper keys.
func bindFlags() {
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("trace.color", rootCmd.PersistentFlags().Lookup("color"))
	_ = viper.BindPFlag("trace.theme", rootCmd.PersistentFlags().Lookup("theme"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(appconfig.EnvPrefix)
	// SIGTRACE_TRACE_COLOR for trace.color
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
