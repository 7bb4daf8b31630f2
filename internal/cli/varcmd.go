package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cairn/internal/vars"
)

// VarOptions holds flags for the var command group.
type VarOptions struct {
	*RootOptions
	Tag bool
}

// NewVarCommand creates the var command group for entity-own variables.
func NewVarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VarOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "var",
		Short: "Manage an entity's own variables",
	}

	cmd.PersistentFlags().BoolVar(&opts.Tag, "tag", false, "operate on a tag instead of an item")

	cmd.AddCommand(newVarSetCommand(opts))
	cmd.AddCommand(newVarRemoveCommand(opts))

	return cmd
}

func newVarSetCommand(opts *VarOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <entity> <key> <value>",
		Short: "Set a variable",
		Long: `Set a variable on an item (or, with --tag, on a tag).

The value is parsed as JSON when possible, so lists and maps keep their
shape; anything that does not parse is stored as a plain string:

  cairn var set host1 ntp_server pool.ntp.org
  cairn var set --tag linux dns '["10.0.0.1","10.0.0.2"]'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := opts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			name, key := args[0], args[1]
			value := parseValueArg(args[2])

			if opts.Tag {
				err = eng.SetTagVar(cmd.Context(), name, key, value)
			} else {
				err = eng.SetItemVar(cmd.Context(), name, key, value)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, displayValue(value))
			return nil
		},
	}
}

func newVarRemoveCommand(opts *VarOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <entity> <key>",
		Short:         "Remove a variable",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := opts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			name, key := args[0], args[1]
			if opts.Tag {
				err = eng.RemoveTagVar(cmd.Context(), name, key)
			} else {
				err = eng.RemoveItemVar(cmd.Context(), name, key)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", key)
			return nil
		},
	}
}

// parseValueArg interprets a command line value: valid JSON keeps its
// shape, anything else becomes a plain string.
func parseValueArg(arg string) vars.Value {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(arg), &raw); err == nil {
		if value, err := vars.FromJSON(raw); err == nil {
			return value
		}
	}
	return vars.String(arg)
}

// displayValue renders a value for text output.
func displayValue(v vars.Value) string {
	return vars.Display(v)
}
