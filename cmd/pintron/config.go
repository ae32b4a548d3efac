package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKeys are the settings read from the config file.
var configKeys = []string{
	"cds",
	"compress",
	"duckdb",
	"factorizations",
	"gene",
	"genome",
	"gtf",
	"introns",
	"log_level",
	"output",
	"pas_tolerance",
	"strict_gtf",
	"variants",
	"workdir",
	"workers",
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".pintron.yaml"), nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pintron configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.pintron.yaml.",
		Example: `  pintron config                        # show effective config
  pintron config set gene TP53          # default gene name
  pintron config set strict_gtf true    # only CDS isoforms in GTF
  pintron config get pas_tolerance      # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.ConfigFileUsed()
			if path == "" {
				var err error
				if path, err = defaultConfigPath(); err != nil {
					return err
				}
			}
			if err := setConfigValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Set %s = %s in %s\n", args[0], args[1], path)
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfigKey(args[0]); err != nil {
				return err
			}
			val := viper.Get(args[0])
			if val == nil {
				return fmt.Errorf("key %q is not set", args[0])
			}
			fmt.Println(val)
			return nil
		},
	}
}

func runConfigShow() error {
	settings := make(map[string]any)
	for _, key := range configKeys {
		if v := viper.Get(key); v != nil {
			settings[key] = v
		}
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Printf("# %s\n", used)
	}
	fmt.Print(string(out))
	return nil
}

func checkConfigKey(key string) error {
	if !slices.Contains(configKeys, key) {
		return usageError{fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(configKeys, ", "))}
	}
	return nil
}

// parseConfigValue types a command-line value the way YAML would.
func parseConfigValue(value string) any {
	switch strings.ToLower(value) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

// setConfigValue updates one key of the YAML file at path, keeping the
// other keys. The file is created if missing.
func setConfigValue(path, key, value string) error {
	if err := checkConfigKey(key); err != nil {
		return err
	}

	settings := make(map[string]any)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
		if settings == nil {
			settings = make(map[string]any)
		}
	}
	settings[key] = parseConfigValue(value)

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
