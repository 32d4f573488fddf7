package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/KaramelBytes/qtable-cli/internal/loader"
	"github.com/KaramelBytes/qtable-cli/internal/preview"
	"github.com/KaramelBytes/qtable-cli/internal/query"
	"github.com/KaramelBytes/qtable-cli/internal/utils"
	"github.com/ergochat/readline"
	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	shellRows      int
	shellDelimiter string
	shellSheet     string
	shellSheetIdx  int
)

const shellHelp = `Type an instruction to transform the current table, for example:
  remove missing values
  remove duplicates
  filter Sales > 100 and Region == "East"
  rename Sales to Revenue
  sort Revenue descending
  aggregate Region sum

Commands:
  :preview [n]   show the first n rows (default from config)
  :schema        show column types and missing counts
  :save <path>   write the current table as CSV
  :reset         go back to the table as loaded
  :help          show this help
  :quit          leave the shell
`

// lineReader is the part of readline the shell loop needs.
type lineReader interface {
	ReadLine() (string, error)
	Close() error
}

// shellSession holds the table being worked on. Each applied instruction
// replaces the current table.
type shellSession struct {
	id       string
	original dataframe.DataFrame
	current  dataframe.DataFrame
	rows     int
	tr       *query.Transformer
	out      io.Writer
	log      *slog.Logger
}

func newShellSession(df dataframe.DataFrame, rows int, out io.Writer) *shellSession {
	id := uuid.NewString()
	log := slog.Default().With("session", id)
	return &shellSession{
		id:       id,
		original: df,
		current:  df,
		rows:     rows,
		tr:       query.New(query.WithLogger(log)),
		out:      out,
		log:      log,
	}
}

var errQuit = errors.New("quit")

// Execute handles one input line. It returns errQuit when the user leaves.
func (s *shellSession) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, ":") {
		res := s.tr.Transform(s.current, line)
		s.current = res.Table
		fmt.Fprintln(s.out, statusLine(res))
		if res.Applied && s.rows > 0 {
			names, rows := preview.Head(s.current, s.rows)
			fmt.Fprint(s.out, preview.Table(names, rows))
		}
		return nil
	}

	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return errQuit
	case ":help", ":h":
		fmt.Fprint(s.out, shellHelp)
	case ":preview", ":p":
		n := s.rows
		if arg != "" {
			v, err := strconv.Atoi(arg)
			if err != nil || v < 0 {
				return fmt.Errorf("usage: :preview [n]")
			}
			n = v
		}
		fmt.Fprint(s.out, preview.Markdown(s.current, n))
	case ":schema":
		fmt.Fprint(s.out, preview.SchemaText(s.current))
	case ":save":
		if arg == "" {
			return fmt.Errorf("usage: :save <path>")
		}
		path, err := utils.ExpandHome(arg)
		if err != nil {
			return err
		}
		if err := loader.WriteCSV(s.current, path); err != nil {
			return fmt.Errorf("save: %w", err)
		}
		fmt.Fprintf(s.out, "✓ Wrote %d rows to %s\n", s.current.Nrow(), path)
	case ":reset":
		s.current = s.original
		fmt.Fprintf(s.out, "✓ Table reset (%d rows, %d columns)\n", s.current.Nrow(), s.current.Ncol())
	default:
		return fmt.Errorf("unknown command: %s (type :help for commands)", fields[0])
	}
	return nil
}

// run reads lines until EOF or :quit. Command errors are printed and the
// loop continues.
func (s *shellSession) run(rl lineReader) error {
	defer rl.Close()
	s.log.Debug("shell started", "rows", s.current.Nrow(), "cols", s.current.Ncol())
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if err := s.Execute(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(s.out, "✗ Error:", err)
		}
	}
}

var shellCmd = &cobra.Command{
	Use:   "shell <file>",
	Short: "Transform a table interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkInput(args[0]); err != nil {
			return err
		}
		opt, err := loaderOptions(shellDelimiter, shellSheet, shellSheetIdx)
		if err != nil {
			return err
		}
		df, err := loadTable(args[0], opt)
		if err != nil {
			return err
		}

		history := settings().ShellHistoryFile
		if history != "" {
			if history, err = utils.ExpandHome(history); err != nil {
				return err
			}
		}
		rl, err := readline.NewFromConfig(&readline.Config{
			Prompt:          "qtable> ",
			HistoryFile:     history,
			InterruptPrompt: "^C",
			EOFPrompt:       ":quit",
		})
		if err != nil {
			return fmt.Errorf("init readline: %w", err)
		}

		out := cmd.OutOrStdout()
		s := newShellSession(df, previewRows(shellRows), out)
		fmt.Fprintf(out, "Loaded %s: %d rows, %d columns. Type :help for commands.\n", args[0], df.Nrow(), df.Ncol())
		return s.run(rl)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().IntVar(&shellRows, "rows", -1, "preview rows after each instruction (default from config)")
	shellCmd.Flags().StringVar(&shellDelimiter, "delimiter", "", "CSV delimiter: ',', ';', '|' or 'tab'")
	shellCmd.Flags().StringVar(&shellSheet, "sheet-name", "", "XLSX sheet name")
	shellCmd.Flags().IntVar(&shellSheetIdx, "sheet-index", 0, "XLSX sheet index (1-based)")
}
