package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewItemCommand creates the item command group.
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage inventory items",
	}

	cmd.AddCommand(newItemListCommand(rootOpts))
	cmd.AddCommand(newItemShowCommand(rootOpts))
	cmd.AddCommand(newItemCreateCommand(rootOpts))
	cmd.AddCommand(newItemRemoveCommand(rootOpts))

	return cmd
}

func newItemListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all items",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			refs, err := eng.ListItems(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), refs)
			}
			for _, ref := range refs {
				fmt.Fprintln(cmd.OutOrStdout(), ref.Name)
			}
			return nil
		},
	}
}

func newItemShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show an item's document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := eng.GetItemView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Item: %s\n", view.Name)
			if len(view.Tags) > 0 {
				names := make([]string, 0, len(view.Tags))
				for _, t := range view.Tags {
					names = append(names, t.Name)
				}
				fmt.Fprintf(out, "Tags: %s\n", strings.Join(names, ", "))
			}
			if len(view.Children) > 0 {
				names := make([]string, 0, len(view.Children))
				for _, c := range view.Children {
					names = append(names, c.Name)
				}
				fmt.Fprintf(out, "Children: %s\n", strings.Join(names, ", "))
			}
			for _, entry := range view.Vars {
				if entry.Tag != "" {
					fmt.Fprintf(out, "  %s = %s (from %s)\n", entry.Key, displayValue(entry.Value), entry.Tag)
				} else {
					fmt.Fprintf(out, "  %s = %s\n", entry.Key, displayValue(entry.Value))
				}
			}
			return nil
		},
	}
}

func newItemCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create <name>",
		Short:         "Create an item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			item, err := eng.CreateItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created item %s\n", item.Name)
			return nil
		},
	}
}

func newItemRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <name>",
		Short:         "Delete an item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.DeleteItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed item %s\n", args[0])
			return nil
		},
	}
}
