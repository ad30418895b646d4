package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openfroyo/strata/pkg/stores"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// starterDocument is the settings document written by `strata init`.
const starterDocument = `// Strata settings document.
//
// Declare settings once, then layer values on top of each other.
// A layer inherits anything it does not set from its parents, in order.

settings: [
	{name: "fontSize", kind: "required", type: "int", default: 12},
	{name: "fontFace", kind: "required", type: "string", default: "Cascadia Mono"},
	{name: "colorScheme", kind: "nullable", type: "string"},
]

layers: [
	{name: "defaults", values: {}},
	{
		name:    "profile"
		parents: ["defaults"]
		values: {
			fontSize: 14
		}
	},
]
`

func newInitCommand() *cobra.Command {
	var (
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a Strata workspace",
		Long: `Initialize a new Strata workspace with a starter settings document and
a SQLite database for stored documents.`,
		Example: `  # Initialize in the current directory
  strata init

  # Initialize with a custom data directory
  strata init --data-dir /var/lib/strata`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().
				Str("data_dir", dataDir).
				Msg("Initializing workspace")

			ctx := context.Background()

			if err := os.MkdirAll(dataDir, 0700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dataDir, err)
			}
			fmt.Printf("✓ Created directory: %s\n", dataDir)

			// Initialize the SQLite database
			dbPath := filepath.Join(dataDir, "strata.db")
			store, err := stores.NewSQLiteStore(stores.Config{
				Path: dbPath,
			})
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}
			defer store.Close()

			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Printf("✓ Initialized SQLite database: %s\n", dbPath)

			// Write the starter settings document unless one already exists
			docPath := "./settings.cue"
			if _, err := os.Stat(docPath); os.IsNotExist(err) {
				if err := os.WriteFile(docPath, []byte(starterDocument), 0644); err != nil {
					return fmt.Errorf("failed to write settings document: %w", err)
				}
				fmt.Printf("✓ Created settings document: %s\n", docPath)
			} else {
				fmt.Printf("• Settings document already exists: %s\n", docPath)
			}

			fmt.Println("\nWorkspace initialized. Try:")
			fmt.Println("  strata validate settings.cue")
			fmt.Println("  strata resolve settings.cue --layer profile")

			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "data directory for the workspace")

	return cmd
}
