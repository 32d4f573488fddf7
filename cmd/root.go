package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/qtable-cli/internal/config"
	"github.com/KaramelBytes/qtable-cli/internal/loader"
	"github.com/KaramelBytes/qtable-cli/internal/logging"
	"github.com/go-gota/gota/dataframe"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLogFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "qtable",
	Short: "qtable: transform tables with plain-language instructions",
	Long: `qtable loads a CSV, TSV or XLSX table and applies instructions such as
"remove duplicates", "filter Sales > 100", "rename Sales to Revenue",
"sort Revenue descending" or "aggregate Region sum" to it.`,
	SilenceUsage: true,
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.qtable/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text or json (overrides config)")
}

func loadConfig() {
	// .env is optional; variables already set in the environment win
	_ = godotenv.Load()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	if debug {
		cfg.LogLevel = "debug"
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	slog.Debug("configuration loaded", "preview_rows", cfg.PreviewRows, "log_format", cfg.LogFormat)
}

// settings returns the loaded configuration, or defaults when none loaded.
func settings() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Default()
	}
	return cfg
}

// loaderOptions builds loader options from configuration and the optional
// per-command overrides.
func loaderOptions(delimiter, sheet string, sheetIndex int) (loader.Options, error) {
	c := settings()
	opt := loader.DefaultOptions()
	opt.MaxRows = c.MaxRows
	opt.SheetName = c.SheetName
	opt.SheetIndex = c.SheetIndex
	if sheet != "" {
		opt.SheetName = sheet
	}
	if sheetIndex > 0 {
		opt.SheetIndex = sheetIndex
		if sheet == "" {
			opt.SheetName = ""
		}
	}
	d := c.Delimiter
	if delimiter != "" {
		d = delimiter
	}
	r, err := loader.ParseDelimiter(d)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = r
	return opt, nil
}

// checkInput rejects file names no loader handles before the file is opened.
func checkInput(path string) error {
	if !loader.Supported(path) {
		return fmt.Errorf("%w: %s (use .csv, .tsv or .xlsx)", loader.ErrUnsupported, path)
	}
	return nil
}

// loadTable reads a table from disk with the given options.
func loadTable(path string, opt loader.Options) (dataframe.DataFrame, error) {
	df, err := loader.Load(path, opt)
	if err != nil {
		return df, fmt.Errorf("load %s: %w", path, err)
	}
	slog.Debug("table loaded", "path", path, "rows", df.Nrow(), "cols", df.Ncol())
	return df, nil
}

// previewRows picks the flag value when set, otherwise the configured one.
func previewRows(flag int) int {
	if flag >= 0 {
		return flag
	}
	return settings().PreviewRows
}
