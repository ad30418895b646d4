package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openfroyo/strata/pkg/config"
	"github.com/openfroyo/strata/pkg/stores"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newStoreCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage stored settings documents",
		Long: `Manage settings documents stored in the workspace database.

Stored documents survive edits to the source files and can be resolved
without re-parsing, which makes them useful as known-good snapshots.`,
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "./data/strata.db", "path to the workspace database")

	cmd.AddCommand(newStoreSaveCommand(&dbPath))
	cmd.AddCommand(newStoreLoadCommand(&dbPath))
	cmd.AddCommand(newStoreListCommand(&dbPath))
	cmd.AddCommand(newStoreDeleteCommand(&dbPath))

	return cmd
}

// openStore opens and migrates the workspace database.
func openStore(ctx context.Context, dbPath string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func newStoreSaveCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <source>...",
		Short: "Parse sources and store the document under a name",
		Example: `  # Snapshot the current settings as "terminal"
  strata store save terminal settings.cue`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, sources := args[0], args[1:]

			doc, err := config.NewParser().Parse(cmd.Context(), sources)
			if err != nil {
				return fmt.Errorf("failed to parse sources: %w", err)
			}
			if len(doc.Errors) > 0 {
				reportValidationErrors(doc.Errors)
				return fmt.Errorf("refusing to store a document with %d error(s)", len(doc.Errors))
			}

			store, err := openStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveDocument(cmd.Context(), name, doc); err != nil {
				return fmt.Errorf("failed to save document: %w", err)
			}

			log.Info().
				Str("name", name).
				Int("settings", len(doc.Settings)).
				Int("layers", len(doc.Layers)).
				Msg("Document stored")

			fmt.Printf("✓ Stored document %q (%d settings, %d layers)\n",
				name, len(doc.Settings), len(doc.Layers))
			return nil
		},
	}
}

func newStoreLoadCommand(dbPath *string) *cobra.Command {
	var layerName string

	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Load a stored document and resolve its layers",
		Example: `  # Resolve every layer of the stored document
  strata store load terminal

  # Resolve a single layer
  strata store load terminal --layer profile`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.LoadDocument(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load document: %w", err)
			}

			graph, err := config.BuildGraph(doc)
			if err != nil {
				return fmt.Errorf("stored document is not resolvable: %w", err)
			}

			layers := graph.Order
			if layerName != "" {
				if _, ok := graph.Layer(layerName); !ok {
					return fmt.Errorf("unknown layer: %s", layerName)
				}
				layers = []string{layerName}
			}

			out := make(map[string]map[string]any, len(layers))
			for _, name := range layers {
				node, _ := graph.Layer(name)
				out[name] = node.ResolveAll()
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&layerName, "layer", "l", "", "layer to resolve (default: all layers)")

	return cmd
}

func newStoreListCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListDocuments(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list documents: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}

			if len(records) == 0 {
				fmt.Println("No stored documents")
				return nil
			}
			for _, r := range records {
				fmt.Printf("%s\t(updated %s)\n", r.Name, r.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newStoreDeleteCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete document: %w", err)
			}

			fmt.Printf("✓ Deleted document %q\n", args[0])
			return nil
		},
	}
}
