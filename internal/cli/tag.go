package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage inventory tags",
	}

	cmd.AddCommand(newTagListCommand(rootOpts))
	cmd.AddCommand(newTagShowCommand(rootOpts))
	cmd.AddCommand(newTagCreateCommand(rootOpts))
	cmd.AddCommand(newTagRemoveCommand(rootOpts))

	return cmd
}

func newTagListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all tags",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			refs, err := eng.ListTags(cmd.Context())
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

func newTagShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show a tag's document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := eng.GetTagView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tag: %s\n", view.Name)
			if len(view.Items) > 0 {
				names := make([]string, 0, len(view.Items))
				for _, i := range view.Items {
					names = append(names, i.Name)
				}
				fmt.Fprintf(out, "Items: %s\n", strings.Join(names, ", "))
			}
			for _, key := range view.Vars.SortedKeys() {
				fmt.Fprintf(out, "  %s = %s\n", key, displayValue(view.Vars[key]))
			}
			return nil
		},
	}
}

func newTagCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create <name>",
		Short:         "Create a tag",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			tag, err := eng.CreateTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created tag %s\n", tag.Name)
			return nil
		},
	}
}

func newTagRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <name>",
		Short:         "Delete a tag",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, cleanup, err := rootOpts.OpenEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := eng.DeleteTag(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed tag %s\n", args[0])
			return nil
		},
	}
}
