package cmd

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/qtable-cli/internal/loader"
	"github.com/KaramelBytes/qtable-cli/internal/preview"
	"github.com/KaramelBytes/qtable-cli/internal/query"
	"github.com/spf13/cobra"
)

var (
	applyQueries   []string
	applyOutput    string
	applyRows      int
	applyDelimiter string
	applySheet     string
	applySheetIdx  int
)

var applyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Apply one or more instructions to a table",
	Long: `Apply each -q instruction in order. Every instruction works on the table
produced by the previous one. Instructions that cannot be applied print a
warning and leave the table unchanged.`,
	Example: `  qtable apply sales.csv -q "remove missing values" -q "sort Sales descending"
  qtable apply sales.xlsx --sheet-name Data -q "aggregate Region sum" -o totals.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(applyQueries) == 0 {
			return fmt.Errorf("at least one -q instruction is required")
		}
		if err := checkInput(args[0]); err != nil {
			return err
		}
		opt, err := loaderOptions(applyDelimiter, applySheet, applySheetIdx)
		if err != nil {
			return err
		}
		df, err := loadTable(args[0], opt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		tr := query.New(query.WithLogger(slog.Default()))
		for _, q := range applyQueries {
			res := tr.Transform(df, q)
			df = res.Table
			fmt.Fprintln(out, statusLine(res))
		}

		if n := previewRows(applyRows); n > 0 {
			fmt.Fprintln(out)
			fmt.Fprint(out, preview.Markdown(df, n))
		}
		if applyOutput != "" {
			if err := loader.WriteCSV(df, applyOutput); err != nil {
				return fmt.Errorf("write %s: %w", applyOutput, err)
			}
			fmt.Fprintf(out, "✓ Wrote %d rows to %s\n", df.Nrow(), applyOutput)
		}
		return nil
	},
}

// statusLine prefixes an outcome message with its status marker.
func statusLine(o query.Outcome) string {
	switch {
	case o.Applied:
		return "✓ " + o.Message
	case o.Kind == query.KindNone:
		return "⚠ " + o.Message
	default:
		return "✗ " + o.Message
	}
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringArrayVarP(&applyQueries, "query", "q", nil, "instruction to apply (repeatable)")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "write the resulting table as CSV")
	applyCmd.Flags().IntVar(&applyRows, "rows", -1, "preview rows to print (default from config)")
	applyCmd.Flags().StringVar(&applyDelimiter, "delimiter", "", "CSV delimiter: ',', ';', '|' or 'tab'")
	applyCmd.Flags().StringVar(&applySheet, "sheet-name", "", "XLSX sheet name")
	applyCmd.Flags().IntVar(&applySheetIdx, "sheet-index", 0, "XLSX sheet index (1-based)")
}
