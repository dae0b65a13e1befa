// Command bootstrap seeds the catalog database from a YAML seed file.
//
// Seed descriptions frequently come from scraped or pasted HTML, so they
// are flattened to plain text before insert.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/findfood/engine/internal/htmltext"
	"github.com/findfood/engine/pkg/findfood/catalog/sqlite"
	"github.com/findfood/engine/pkg/findfood/config"
)

func main() {
	var (
		dbPath   = flag.String("db", "", "Catalog database path (required)")
		seedPath = flag.String("seed", "", "YAML seed file (required)")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}
	if *seedPath == "" {
		log.Fatal("--seed required")
	}

	ctx := context.Background()

	seed, err := config.LoadSeed(*seedPath)
	if err != nil {
		log.Fatalf("load seed: %v", err)
	}
	if len(seed.Items) == 0 {
		log.Fatal("seed file contains no items")
	}

	store, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	inserted := 0
	for _, si := range seed.Items {
		it := si.Item()
		if it.Title == "" {
			log.Printf("Warning: skipping seed item with empty title (kind=%s)", it.Kind)
			continue
		}
		it.Description = htmltext.Flatten(it.Description)
		it.Steps = htmltext.Flatten(it.Steps)
		if _, err := store.UpsertItem(ctx, it); err != nil {
			log.Fatalf("insert %q: %v", it.Title, err)
		}
		inserted++
	}

	log.Printf("Seeded %d items into %s", inserted, *dbPath)
}
