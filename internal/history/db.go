package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
	PRAGMA busy_timeout       = 10000;
	PRAGMA journal_mode       = WAL;
	PRAGMA journal_size_limit = 200000000;
	PRAGMA synchronous        = NORMAL;
	PRAGMA foreign_keys       = ON;
	PRAGMA temp_store         = MEMORY;
	PRAGMA cache_size         = -16000;

	create table if not exists transcriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
		name text not null,
		blake3_hash text not null unique,
		language text not null,
		detected_language text,
		duration_ms integer not null,
		created_at integer not null
	);

	create table if not exists segments (
		id integer not null,
		transcription_id integer not null references transcriptions(id) on delete cascade,
		text text not null,
		start_ms integer not null,
		end_ms integer not null,
		confidence real,
		speaker text not null default '',
		primary key (id, transcription_id)
	);`

// Open opens (creating if needed) the history database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open history: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history: apply schema: %w", err)
	}

	return db, nil
}
