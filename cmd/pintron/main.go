// Package main provides the pintron command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError marks errors caused by a malformed command line.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(os.Stderr, "Run 'pintron --help' for usage.\n")
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "pintron",
		Short: "Gene-structure model reconstruction from EST alignments",
		Long: `pintron assembles the artifacts of the upstream alignment tools into a
gene model with predicted introns, isoforms and CDS annotation, and writes it
as a JSON record and a GTF file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.pintron.yaml)")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newBuildCmd())
	root.AddCommand(newGTFCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pintron version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// usageArgs reports argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// initConfig layers the config file and PINTRON_* environment variables
// under the command-line flags.
func initConfig(cfgFile string) error {
	viper.SetDefault("workdir", ".")
	viper.SetDefault("gene", "unknown")
	viper.SetDefault("pas_tolerance", 30)
	viper.SetDefault("log_level", "info")

	viper.SetEnvPrefix("PINTRON")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		path, err := defaultConfigPath()
		if err != nil {
			return nil
		}
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
