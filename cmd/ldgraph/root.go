package main

import (
	"github.com/spf13/cobra"
)

const rootLongDesc string = `ldgraph persists JSON-LD resources in an RDF graph.

Documents are expanded, stored as triples and read back compacted:
  ldgraph put note.json             Store a document
  ldgraph get <uri>                 Print a stored resource
  ldgraph query '{"type":"Note"}'   Find resources by example
  ldgraph search <text>             Full-text search over indexed types
  ldgraph serve                     Run the HTTP API`

const rootShortDesc string = "ldgraph - JSON-LD resource store"

type globalFlags struct {
	configFile string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "ldgraph",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to ldgraph.toml (default: ./ldgraph.toml when present)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("backend", "", "Storage backend: memory or badger")
	cmd.PersistentFlags().String("dir", "", "Badger data directory")
	cmd.PersistentFlags().String("graph", "", "Name of the graph to use")
	cmd.PersistentFlags().String("index", "", "Path to the SQLite search index (default: in-memory)")

	cmd.AddCommand(
		newPutCmd(flags),
		newGetCmd(flags),
		newRemoveCmd(flags),
		newQueryCmd(flags),
		newSearchCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newServeCmd(flags),
	)

	return cmd
}
