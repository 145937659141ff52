package commands

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mash-protocol/devlog/internal/dump"
	"github.com/mash-protocol/devlog/internal/filter"
	"github.com/mash-protocol/devlog/pkg/log"
	"github.com/mash-protocol/devlog/pkg/log/file"
)

// ViewOptions specifies which records of a log file the view command prints.
type ViewOptions struct {
	Log       string
	Module    string
	MinLevel  string
	TimeStart string
	TimeEnd   string
	Expr      string
}

// fileFilter converts the options into a reader filter.
func (o ViewOptions) fileFilter() (file.Filter, error) {
	f := file.Filter{Log: o.Log}

	if o.Module != "" {
		m, err := log.ParseModule(o.Module)
		if err != nil {
			return f, err
		}
		f.Module = &m
	}
	if o.MinLevel != "" {
		l, err := log.ParseLevel(o.MinLevel)
		if err != nil {
			return f, err
		}
		f.MinLevel = &l
	}
	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return f, errors.Wrap(err, "invalid --since format")
		}
		f.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return f, errors.Wrap(err, "invalid --until format")
		}
		f.TimeEnd = &t
	}
	return f, nil
}

// RunView prints the records of the log file at path that match opts.
func RunView(path string, opts ViewOptions, output io.Writer) error {
	ff, err := opts.fileFilter()
	if err != nil {
		return err
	}
	expr, err := filter.Compile(opts.Expr)
	if err != nil {
		return errors.Wrap(err, "invalid --filter")
	}

	reader, err := file.NewFilteredReader(path, ff)
	if err != nil {
		return errors.Wrap(err, "failed to open log file")
	}
	defer reader.Close()

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to read record")
		}
		rows, err := dump.FromRecords([]file.Record{rec}, expr)
		if err != nil {
			return err
		}
		for _, r := range rows {
			dump.Format(output, r)
		}
	}
}

func newViewCommand() *cobra.Command {
	var opts ViewOptions
	cmd := &cobra.Command{
		Use:   "view <file.dlog>",
		Short: "View a CBOR log file without loading the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunView(args[0], opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.Log, "log", "", "Only records of this log")
	cmd.Flags().StringVar(&opts.Module, "module", "", "Only records of this module (name or id)")
	cmd.Flags().StringVar(&opts.MinLevel, "min-level", "", "Only records at or above this level")
	cmd.Flags().StringVar(&opts.TimeStart, "since", "", "Only records at or after this time (RFC3339)")
	cmd.Flags().StringVar(&opts.TimeEnd, "until", "", "Only records before this time (RFC3339)")
	cmd.Flags().StringVar(&opts.Expr, "filter", "", "CEL filter expression")
	return cmd
}
