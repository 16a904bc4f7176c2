package database

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/database/migrations"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// InitDB opens the database and applies all pending migrations. With an empty
// primaryURL it opens a local SQLite file at dbPath (":memory:" works for
// tests); otherwise it connects to the remote libSQL primary. The returned
// teardown closes the connection.
func InitDB(dbPath string, primaryURL string, authToken string) (*sql.DB, func(), error) {
	var (
		db      *sql.DB
		dialect string
		err     error
	)
	if primaryURL == "" {
		log.Info("Initializing local-only SQLite database", "path", dbPath)
		db, err = sql.Open("sqlite3", dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local database: %w", err)
		}
		if dbPath == ":memory:" {
			// Every new connection to :memory: is a fresh, empty database.
			db.SetMaxOpenConns(1)
		}
		dialect = "sqlite3"
	} else {
		log.Info("Initializing Turso database", "url", primaryURL)
		db, err = sql.Open("libsql", primaryURL+"?authToken="+authToken)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db %s: %w", primaryURL, err)
		}
		dialect = "turso"
	}

	if err := migrate(db, dialect); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	teardown := func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}
	return db, teardown, nil
}

func migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(log.Default())
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.Up(db, "."); err != nil {
		return err
	}
	log.Info("Database initialized successfully")
	return nil
}
