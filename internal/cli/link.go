package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLinkCommand creates the link command group for relation edges.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage item relations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "tag <item> <tag>",
		Short:         "Add an item to a tag",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.AddTag(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s tagged %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "untag <item> <tag>",
		Short:         "Remove an item from a tag",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.RemoveTag(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s untagged %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "child <parent> <child>",
		Short:         "Add a child item to a parent item",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.AddChild(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has child %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "unchild <parent> <child>",
		Short:         "Remove a child item from a parent item",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.RemoveChild(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s no longer has child %s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}
