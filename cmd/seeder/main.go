package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/shuttlereg/internal/database"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/spf13/cobra"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{"DB_NAME": "shuttlereg.db"}
	for _, key := range []string{"DB_NAME", "TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"} {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	return config
}

// readDocuments accepts either a list of tournament documents carrying an
// "id" or an object keyed by tournament id.
func readDocuments(path string) ([]tournament.Tournament, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]tournament.Tournament, 0, len(list))
		for _, doc := range list {
			out = append(out, tournament.FromDocument("", doc))
		}
		return out, nil
	}
	var byID map[string]map[string]any
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, err
	}
	out := make([]tournament.Tournament, 0, len(byID))
	for id, doc := range byID {
		out = append(out, tournament.FromDocument(id, doc))
	}
	return out, nil
}

var seedFile string

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Import tournament documents into the database",
	Run: func(cmd *cobra.Command, args []string) {
		seed(seedFile)
	},
}

func seed(file string) {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	tournaments, err := readDocuments(file)
	if err != nil {
		log.Fatalf("Failed to read %s: %s", file, err)
	}
	for _, t := range tournaments {
		if t.ID == "" {
			log.Fatalf("Tournament %q has no id", t.Name)
		}
	}

	startTime := time.Now()
	if err := tournament.New(db).UpsertMany(context.Background(), tournaments); err != nil {
		log.Fatalf("Failed to upsert tournaments: %s", err)
	}
	log.Info("Successfully seeded tournaments.", "count", len(tournaments), "duration", time.Since(startTime))
}

func main() {
	rootCmd.Flags().StringVar(&seedFile, "file", "seed/tournaments.json", "Tournament documents to import")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
