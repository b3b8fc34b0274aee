package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newPutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "Store JSON-LD documents",
		Long:  "Store a JSON-LD document, or a JSON array of documents, read from a file or '-' for stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, doc := range docs {
				if err := a.store.Put(cmd.Context(), doc); err != nil {
					return err
				}
				a.logger.Info("stored resource", "id", doc["id"])
			}
			return nil
		},
	}
}

func readDocuments(cmd *cobra.Command, name string) ([]map[string]any, error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err == nil {
		return []map[string]any{doc}, nil
	}
	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON object or array of objects: %w", name, err)
	}
	return docs, nil
}

func newGetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <uri>",
		Short: "Print a stored resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("resource %s not found", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), doc)
		},
	}
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <uri>",
		Short: "Remove a stored resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.store.Remove(cmd.Context(), args[0])
		},
	}
}

func newQueryCmd(flags *globalFlags) *cobra.Command {
	var one bool
	cmd := &cobra.Command{
		Use:   "query <criteria>",
		Short: "Find resources matching example criteria",
		Long: `Find resources matching a JSON-LD example, e.g.

  ldgraph query '{"type": "Note", "name": "Hello"}'

Criteria are expanded against the ActivityStreams context.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var criteria map[string]any
			if err := json.Unmarshal([]byte(args[0]), &criteria); err != nil {
				return fmt.Errorf("criteria must be a JSON object: %w", err)
			}
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if one {
				doc, err := a.store.QueryOne(cmd.Context(), criteria)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			results, err := a.store.Query(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			if results == nil {
				results = []map[string]any{}
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().BoolVar(&one, "one", false, "Print only the first match (null when none)")
	return cmd
}
