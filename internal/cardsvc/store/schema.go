package store

import "github.com/avvvet/gate-services/internal/storage"

// Schema is the cards/scans layout. seedUID is registered when no card exists.
func Schema(seedUID string) storage.Schema {
	return storage.Schema{
		Name: "cards",
		Tables: []storage.Table{
			{Name: "cards", DDL: `
				CREATE TABLE IF NOT EXISTS cards (
					uid        TEXT PRIMARY KEY,
					created_at TEXT DEFAULT (datetime('now','localtime'))
				)`},
			{Name: "scans", DDL: `
				CREATE TABLE IF NOT EXISTS scans (
					id  INTEGER PRIMARY KEY AUTOINCREMENT,
					uid TEXT NOT NULL,
					ts  TEXT DEFAULT (datetime('now','localtime')),
					FOREIGN KEY(uid) REFERENCES cards(uid)
				)`},
		},
		Seed: &storage.Seed{
			Count:  `SELECT COUNT(*) FROM cards`,
			Insert: `INSERT INTO cards (uid) VALUES (?) ON CONFLICT(uid) DO NOTHING`,
			Args:   []any{seedUID},
		},
	}
}
