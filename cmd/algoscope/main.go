package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rendis/algoscope/internal/logging"
)

var (
	// Global flags
	apiURL      string
	catalogPath string
	catalogDB   string
	logLevelArg string
	strict      bool
	listenAddr  string
	logFormat   string
	corsOrigins []string

	// Resolved by PersistentPreRunE.
	cfg      Config
	logger   = logging.Discard()
	logLevel = new(slog.LevelVar)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "algoscope",
	Short: "Transparency catalog and simulator for public-sector decision algorithms",
	Long: `algoscope publishes model cards for government decision algorithms and
simulates their outcomes on hypothetical inputs.

Run "algoscope serve" for the HTTP API or "algoscope mcp" for the MCP stdio server.
The models, predict and sweep commands run against the embedded engine, or against
a remote server when --api-url or ALGOSCOPE_API_URL is set.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		cfg = resolved
		logLevel.Set(logging.ParseLevel(cfg.LogLevel))
		logger = logging.NewLeveled(logLevel, cfg.LogFormat, os.Stderr)
		return nil
	},
}

// resolveConfig loads settings.yaml and the environment, then applies any flag
// the user set explicitly.
func resolveConfig(cmd *cobra.Command) (Config, error) {
	c, err := loadConfig()
	if err != nil {
		return c, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		c.APIURL = apiURL
	}
	if flags.Changed("catalog") {
		c.CatalogPath = catalogPath
	}
	if flags.Changed("catalog-db") {
		c.CatalogDB = catalogDB
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevelArg
	}
	if flags.Changed("strict") {
		c.Strict = strict
	}
	if flags.Changed("listen-addr") {
		c.ListenAddr = listenAddr
	}
	if flags.Changed("log-format") {
		c.LogFormat = logFormat
	}
	if flags.Changed("cors-origins") {
		c.CORSOrigins = corsOrigins
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost" + c.ListenAddr
	}
	return c, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "remote algoscope server (or set ALGOSCOPE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file, .json or .yaml (or set ALGOSCOPE_CATALOG)")
	rootCmd.PersistentFlags().StringVar(&catalogDB, "catalog-db", "", "libSQL catalog database (or set ALGOSCOPE_CATALOG_DB)")
	rootCmd.PersistentFlags().StringVar(&logLevelArg, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "validate inputs and outputs against the card schemas")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
