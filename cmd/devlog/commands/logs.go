package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mash-protocol/devlog/internal/app"
	"github.com/mash-protocol/devlog/internal/dump"
	"github.com/mash-protocol/devlog/internal/filter"
	"github.com/mash-protocol/devlog/pkg/log"
)

func newListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List configured logs",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for inst := a.Engine.Next(nil); inst != nil; inst = a.Engine.Next(inst) {
				fmt.Fprintf(w, "%-16s %-8s %s\n", inst.Name(), inst.Level(), inst.Arg())
			}
			return nil
		},
	}
}

// collect returns the rows of the named logs, or of every log when names
// is empty.
func collect(a *app.App, names []string, f *filter.Filter) ([]dump.Row, error) {
	if len(names) == 0 {
		return dump.CollectAll(a.Engine, f)
	}
	var rows []dump.Row
	for _, name := range names {
		inst, err := a.Find(name)
		if err != nil {
			return nil, err
		}
		r, err := dump.Collect(a.Engine, inst, f)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
	}
	return rows, nil
}

func newDumpCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [log...]",
		Short: "Print log entries in human-readable format",
		Long: `Print the entries of the given logs, or of every configured log.

Filter expressions are CEL over level, module, index, ts_us, log, text,
size, wall and json, e.g. --filter 'level >= WARN && module == 4'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			f, err := compileFilter(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return dump.All(a.Engine, cmd.OutOrStdout(), f)
			}
			rows, err := collect(a, args, f)
			if err != nil {
				return err
			}
			for _, r := range rows {
				dump.Format(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
	cmd.Flags().String("filter", "", "CEL filter expression")
	return cmd
}

func newExportCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [log...]",
		Short: "Export log entries as JSON Lines, CSV or CBOR",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			f, err := compileFilter(cmd)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			rows, err := collect(a, args, f)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				out, err := os.Create(output)
				if err != nil {
					return errors.Wrap(err, "failed to create output file")
				}
				defer out.Close()
				w = out
			}
			return dump.Export(w, rows, format)
		},
	}
	cmd.Flags().String("filter", "", "CEL filter expression")
	cmd.Flags().StringP("format", "f", dump.FormatJSONL, "Output format: jsonl|csv|cbor")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newStatsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [log...]",
		Short: "Show statistics about log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			f, err := compileFilter(cmd)
			if err != nil {
				return err
			}
			rows, err := collect(a, args, f)
			if err != nil {
				return err
			}
			dump.PrintStats(cmd.OutOrStdout(), dump.ComputeStats(rows))
			return nil
		},
	}
	cmd.Flags().String("filter", "", "CEL filter expression")
	return cmd
}

func newFlushCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "flush <log>",
		Short: "Erase all entries of a log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			inst, err := a.Find(args[0])
			if err != nil {
				return err
			}
			if err := a.Engine.Flush(inst); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "flushed %s\n", inst.Name())
			return nil
		},
	}
}

func newAppendCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "append <log> <level> <module> <message...>",
		Short: "Append an entry to a log",
		Example: `  devlog append boot warn os "battery low"
  devlog append ble error nimble_host conn 3 lost`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			inst, err := a.Find(args[0])
			if err != nil {
				return err
			}
			level, err := log.ParseLevel(args[1])
			if err != nil {
				return err
			}
			module, err := log.ParseModule(args[2])
			if err != nil {
				return err
			}

			err = a.Engine.Printf(inst, module, level, "%s", strings.Join(args[3:], " "))
			if log.IsFiltered(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "filtered: %s is below %s\n", level, inst.Level())
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "appended #%d to %s\n", a.Engine.Info().Index, inst.Name())
			return nil
		},
	}
}
