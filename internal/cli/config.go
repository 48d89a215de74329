package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ppiankov/biomap/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configHeader = `# biomap configuration
#
# Values are resolved in this order, first match wins:
#   flags, BIOMAP_* environment variables (BIOMAP_XREFS_BASE_URL),
#   this file, built-in defaults.
#
# xrefs.dir takes precedence over xrefs.base_url when both are set.

`

var errConfigExists = errors.New("config file already exists")

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the biomap configuration",
	Long: `Inspect or create the biomap configuration.

Flags override BIOMAP_* environment variables, which override
~/.biomap/config.yaml, which overrides the built-in defaults.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		source := viper.ConfigFileUsed()
		if source == "" {
			source = "defaults only"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "# source: %s\n", source)

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return enc.Close()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a new config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("locate home directory: %w", err)
			}
			path = filepath.Join(home, ".biomap", "config.yaml")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := writeConfigFile(path, cfg); err != nil {
			if errors.Is(err, errConfigExists) {
				return fmt.Errorf("%w: %s (remove it first or run 'biomap config show')", err, path)
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

// writeConfigFile refuses to overwrite an existing file.
func writeConfigFile(path string, cfg *model.Config) error {
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errConfigExists
		}
		return fmt.Errorf("create config file: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write config file: %w", err)
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
}
