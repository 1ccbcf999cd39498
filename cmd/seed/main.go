package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/pokeromcodex/server/internal/catalog"
	"github.com/pokeromcodex/server/internal/models"
	"github.com/pokeromcodex/server/internal/storage"
)

func main() {
	dbPath := flag.String("db", "./romcodex.db", "SQLite database path")
	seedFile := flag.String("seeds", "./seeds/roms.json", "Rom dump to import")
	flag.Parse()

	store, err := storage.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	count, err := seedRoms(store, *seedFile)
	if err != nil {
		log.Fatalf("Failed to seed %s: %v", *seedFile, err)
	}

	log.Printf("Seeded %d roms from %s", count, *seedFile)
}

func seedRoms(store *storage.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var roms []models.Rom
	if err := json.Unmarshal(data, &roms); err != nil {
		return 0, err
	}

	// Precompute slugs so lookups never need the scan fallback.
	for i := range roms {
		if roms[i].Slug == "" {
			roms[i].Slug = catalog.Slugify(roms[i].Name)
		}
	}

	if err := store.BulkUpsertRoms(context.Background(), roms); err != nil {
		return 0, err
	}
	return len(roms), nil
}
