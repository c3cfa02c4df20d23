package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory journal.
const MemoryPath = ":memory:"

// OpenJournal opens the sqlite signup journal at path and migrates it.
// File databases use WAL mode with a busy timeout; an in-memory database is
// pinned to one connection so every query sees the same data.
// PRE: path is a file path or MemoryPath
// POST: Returns a migrated database or an error; the caller closes it
func OpenJournal(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	if path == MemoryPath {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal unreachable: %w", err)
	}
	if err := MigrateDB(db, path); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
