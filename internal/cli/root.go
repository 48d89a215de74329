package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/biomap/internal/model"
)

// version is overridden at build time with -ldflags "-X"
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "biomap",
	Short: "biomap - curate semantic mappings between biomedical vocabularies",
	Long: `biomap maintains a repository of curated semantic mappings between
entities in biomedical vocabularies.

Automated producers propose candidate mappings. biomap filters out the ones
that are already known, keeps the rest in a predicted set, and lets curators
mark each prediction as correct, incorrect, unsure, broader or narrower.
Decisions move into the positive, negative and unsure sets, which are kept
sorted and free of redundant pairs.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of biomap.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "biomap %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := model.DefaultConfig()

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.biomap/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("dir", defaults.Repository.Dir, "mapping repository directory")
	rootCmd.PersistentFlags().String("user", defaults.Curator.User, "curator login (default: OS user)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("repository.dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("curator.user", rootCmd.PersistentFlags().Lookup("user"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.biomap")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match BIOMAP_*, e.g. BIOMAP_XREFS_BASE_URL
	viper.SetEnvPrefix("BIOMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// envKeys are settable from the environment without a config file entry
var envKeys = []string{
	"repository.purl_base",
	"registry.path",
	"xrefs.dir",
	"xrefs.base_url",
	"xrefs.http_proxy",
	"xrefs.https_proxy",
	"xrefs.no_proxy",
	"cache.enabled",
	"cache.dir",
	"server.addr",
}

// loadConfig layers viper settings over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger writes text logs to stderr, at debug level with --verbose
func newLogger(cfg *model.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
