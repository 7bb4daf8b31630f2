package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cairn/internal/inventory"
)

// InventoryOptions holds flags for the inventory command.
type InventoryOptions struct {
	*RootOptions
	List bool
	Host string
}

// NewInventoryCommand creates the inventory command: the aggregation
// view orchestration tooling consumes.
func NewInventoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InventoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Emit the aggregated inventory as JSON",
		Long: `Emit the aggregated inventory as JSON: one group per tag plus the
reserved _meta group with each item's effective variables.

The allow_tags list in the configuration file restricts output to items
reachable from those tags; filtered groups stay present but empty.

With --host, only that item's effective variables are printed. --list
requests the full grouping explicitly; it is also the default, the flag
exists for callers that always pass it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cfg, cleanup, err := opts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if opts.Host != "" {
				merged, err := eng.EffectiveVars(cmd.Context(), opts.Host)
				if err != nil {
					return err
				}
				return printCompactJSON(cmd.OutOrStdout(), merged)
			}

			doc, err := eng.Inventory(cmd.Context(), inventory.InventoryOptions{
				AllowTags: cfg.Inventory.AllowTags,
			})
			if err != nil {
				return fmt.Errorf("build inventory: %w", err)
			}
			return printCompactJSON(cmd.OutOrStdout(), doc)
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "print the full grouping (the default)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "print one item's effective variables instead of the grouping")

	return cmd
}
