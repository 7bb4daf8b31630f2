package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VarsOptions holds flags for the vars command.
type VarsOptions struct {
	*RootOptions
	Provenance bool
}

// NewVarsCommand creates the vars command: an item's effective variables.
func NewVarsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VarsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "vars <item>",
		Short: "Show an item's effective variables",
		Long: `Show an item's effective variables: its own variables merged with the
variables of every tag it belongs to. Longer tag names win collisions,
the item's own variables win over any tag.

With --provenance, each variable also names the tag it came from.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := opts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if opts.Provenance {
				entries, err := eng.ProvenanceVars(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				for _, entry := range entries {
					if entry.Tag != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (from %s)\n", entry.Key, displayValue(entry.Value), entry.Tag)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", entry.Key, displayValue(entry.Value))
					}
				}
				return nil
			}

			merged, err := eng.EffectiveVars(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), merged)
			}
			for _, key := range merged.SortedKeys() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, displayValue(merged[key]))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Provenance, "provenance", false, "show which tag contributed each variable")

	return cmd
}
