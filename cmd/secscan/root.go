package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"secscan/internal/config"
	"secscan/internal/telemetry"
)

var exit = os.Exit
var cfgFile string

// exitError carries a non-default exit status out of a command without
// printing anything.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var rootCmd = &cobra.Command{
	Use:   "secscan",
	Short: "Scan a source file for vulnerable dependencies and insecure code",
	Long: `secscan inspects a single source file from three angles: advisories for
the packages declared in its sibling manifest, issues reported by an external
static-analysis tool, and lexical remediation hints from a rule table. The
results are merged into one severity-ranked report.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	fmt.Fprintln(os.Stderr, "Run 'secscan --help' for usage.")
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./secscan.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads the config file and environment, validates the result and
// sets up logging.
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}

	if err := config.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
		return
	}

	telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log.file"))
	if used := viper.ConfigFileUsed(); used != "" {
		telemetry.LogDebug("Using config file", "path", used)
	}
}
