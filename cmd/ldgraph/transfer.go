package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/geoknoesis/ldgraph/graph"
	"github.com/geoknoesis/ldgraph/rdf"
)

// importBatch bounds the triples handed to one Add call.
const importBatch = 1000

func newExportCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the graph as N-Triples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			triples, err := a.store.Graph().Match(cmd.Context(), graph.Pattern{})
			if err != nil {
				return err
			}
			tw := rdf.NewTripleWriter(w)
			for _, t := range triples {
				if err := tw.Write(t); err != nil {
					return err
				}
			}
			if err := tw.Close(); err != nil {
				return err
			}
			a.logger.Debug("exported graph", "triples", len(triples))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add N-Triples to the graph",
		Long:  "Add the triples of an N-Triples file, or '-' for stdin, to the graph. Existing triples are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			a, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			g := a.store.Graph()
			tr := rdf.NewTripleReader(r)
			batch := make([]rdf.Triple, 0, importBatch)
			var total int
			for {
				t, err := tr.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				batch = append(batch, t)
				if len(batch) == importBatch {
					if err := g.Add(cmd.Context(), batch...); err != nil {
						return err
					}
					total += len(batch)
					batch = batch[:0]
				}
			}
			if err := g.Add(cmd.Context(), batch...); err != nil {
				return err
			}
			total += len(batch)
			a.logger.Info("imported triples", "count", total)
			return nil
		},
	}
}
