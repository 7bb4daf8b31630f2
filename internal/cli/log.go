package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cairn/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Start string
	End   string
}

const logDateLayout = "2006-01-02"

// NewLogCommand creates the log command over the audit log.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the audit log, newest first",
		Long: `Show the audit log, newest first.

--start and --end take dates (YYYY-MM-DD) and select the inclusive
range; --end defaults to now.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end", "", "range end date (YYYY-MM-DD)")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	eng, _, cleanup, err := opts.OpenEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	var entries []store.LogEntry
	if opts.Start == "" && opts.End == "" {
		entries, err = eng.Logs(cmd.Context())
	} else {
		var start, end time.Time
		if opts.Start != "" {
			start, err = time.Parse(logDateLayout, opts.Start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
		}
		if opts.End != "" {
			end, err = time.Parse(logDateLayout, opts.End)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			// Make the end date inclusive.
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		entries, err = eng.LogRange(cmd.Context(), start, end)
	}
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		type jsonEntry struct {
			Name    string    `json:"name"`
			Date    time.Time `json:"date"`
			Message string    `json:"message"`
			OpID    string    `json:"op_id,omitempty"`
		}
		out := make([]jsonEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, jsonEntry{Name: e.Name, Date: e.Date, Message: e.Message, OpID: e.OpID})
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %s\n", e.Date.Format("2006-01-02 15:04:05"), e.Name, e.Message)
	}
	return nil
}
