package db

import (
	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

// DB is the process-wide database handle, opened once at startup and shared
// by every request handler.
var DB *sqlx.DB

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS rentals (
		id TEXT PRIMARY KEY,
		user TEXT NOT NULL,
		street TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		zip TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		image_url TEXT NOT NULL DEFAULT '',
		mortgage INTEGER NOT NULL DEFAULT 0,
		pmi INTEGER NOT NULL DEFAULT 0,
		insurance INTEGER NOT NULL DEFAULT 0,
		property_tax INTEGER NOT NULL DEFAULT 0,
		hoa INTEGER NOT NULL DEFAULT 0,
		management_fees INTEGER NOT NULL DEFAULT 0,
		misc INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS rentals_user_street_zip
		ON rentals (user, street, zip);`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		user TEXT NOT NULL,
		prop_id TEXT NOT NULL DEFAULT '',
		prop_name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		amount INTEGER NOT NULL,
		vendor TEXT NOT NULL,
		description TEXT NOT NULL,
		date TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS expenses_prop_id ON expenses (prop_id);`,
}

func init() {
	// sqlx does not know the modernc driver name out of the box.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Connect opens the sqlite database at path and applies the schema.
func Connect(path string) error {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return err
	}
	if err := conn.Ping(); err != nil {
		return err
	}

	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}

	DB = conn
	return nil
}

// Close releases the shared handle at process shutdown.
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}
