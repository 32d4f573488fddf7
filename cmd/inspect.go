package cmd

import (
	"fmt"

	"github.com/KaramelBytes/qtable-cli/internal/preview"
	"github.com/spf13/cobra"
)

var (
	inspectRows      int
	inspectDelimiter string
	inspectSheet     string
	inspectSheetIdx  int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the schema and first rows of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkInput(args[0]); err != nil {
			return err
		}
		opt, err := loaderOptions(inspectDelimiter, inspectSheet, inspectSheetIdx)
		if err != nil {
			return err
		}
		df, err := loadTable(args[0], opt)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), preview.Markdown(df, previewRows(inspectRows)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectRows, "rows", -1, "rows to show (default from config)")
	inspectCmd.Flags().StringVar(&inspectDelimiter, "delimiter", "", "CSV delimiter: ',', ';', '|' or 'tab'")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet-name", "", "XLSX sheet name")
	inspectCmd.Flags().IntVar(&inspectSheetIdx, "sheet-index", 0, "XLSX sheet index (1-based)")
}
