package store

import "github.com/avvvet/gate-services/internal/storage"

func Schema(seedTitle string) storage.Schema {
	return storage.Schema{
		Name: "todos",
		Tables: []storage.Table{
			{Name: "todos", DDL: `
				CREATE TABLE IF NOT EXISTS todos (
					id    INTEGER PRIMARY KEY AUTOINCREMENT,
					title TEXT NOT NULL,
					done  INTEGER NOT NULL DEFAULT 0
				)`},
		},
		Seed: &storage.Seed{
			Count:  `SELECT COUNT(*) FROM todos`,
			Insert: `INSERT INTO todos (title) SELECT ? WHERE NOT EXISTS (SELECT 1 FROM todos)`,
			Args:   []any{seedTitle},
		},
	}
}
