package stores_test

import (
	"context"
	"fmt"
	"log"

	"github.com/openfroyo/strata/pkg/config"
	"github.com/openfroyo/strata/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a new SQLite store.
func ExampleNewSQLiteStore() {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path: ":memory:", // Use in-memory database for example
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}
	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_SaveDocument stores a settings document and reads it back.
func ExampleSQLiteStore_SaveDocument() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	doc := &config.Document{
		Settings: []config.SettingConfig{
			{Name: "fontSize", Kind: "required", Type: "int", Default: 12},
		},
		Layers: []config.LayerConfig{
			{Name: "defaults", Values: map[string]any{"fontSize": 14}},
		},
	}

	if err := store.SaveDocument(ctx, "terminal", doc); err != nil {
		log.Fatal(err)
	}

	loaded, err := store.LoadDocument(ctx, "terminal")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(len(loaded.Settings), len(loaded.Layers))
	// Output: 1 1
}
