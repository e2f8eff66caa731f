package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/insightigraph/internal/config"
	"github.com/KaramelBytes/insightigraph/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "insightigraph",
	Short: "InsightiGraph: explore CSV datasets with charts and profiling reports",
	Long: `InsightiGraph loads a CSV or XLSX dataset and shows its overview tables,
renders any of eleven chart types, and writes automated profiling reports.
Run "insightigraph serve" for the web app or use the subcommands directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.insightigraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console | json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel
	lc.Format = cfg.LogFormat
	if debug {
		lc.Level = "debug"
	}
	if logFormat != "" {
		lc.Format = logFormat
	}
	logging.Init(lc)
}

// currentConfig returns the loaded configuration, loading defaults when the
// initializer has not run.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}
