package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cairn/internal/inventory"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Kind string
}

// NewApplyCommand creates the apply command: reconcile an entity
// against a desired-state JSON document.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Reconcile an entity against a desired-state document",
		Long: `Reconcile an entity against a desired-state JSON document.

Reads the document from the given file, or from stdin when the file is
omitted or "-". The entity is created when it does not exist yet, then
brought to the submitted state with exactly the adds and removes needed.

The kind is taken from --kind, or guessed from the document: a document
with an "items" section is a tag, anything else an item.

Example:
  cairn apply host1.json
  echo '{"name":"linux","vars":{"os":"debian"}}' | cairn apply --kind tag`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "entity kind (item|tag); guessed from the document when empty")

	return cmd
}

func runApply(opts *ApplyOptions, cmd *cobra.Command, args []string) error {
	data, err := readDocument(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	kind := opts.Kind
	if kind == "" {
		kind = guessKind(data)
	}

	eng, _, cleanup, err := opts.OpenEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	switch kind {
	case "item":
		var doc inventory.ItemDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse item document: %w", err)
		}
		view, err := eng.ApplyItem(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	case "tag":
		var doc inventory.TagDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse tag document: %w", err)
		}
		view, err := eng.ApplyTag(cmd.Context(), doc)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), view)
	default:
		return fmt.Errorf("invalid kind %q: must be item or tag", kind)
	}
}

func readDocument(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// guessKind inspects the document's sections: only tag documents carry
// an items list.
func guessKind(data []byte) string {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return "item"
	}
	if _, ok := probe["items"]; ok {
		return "tag"
	}
	return "item"
}
