package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avvvet/gate-services/internal/todosvc/models"
)

var ErrNotFound = errors.New("not found")

type TodoStore struct {
	db *sql.DB
}

func NewTodoStore(db *sql.DB) *TodoStore {
	return &TodoStore{db: db}
}

func (s *TodoStore) List(ctx context.Context) ([]*models.Todo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, done FROM todos ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		var td models.Todo
		if err := rows.Scan(&td.ID, &td.Title, &td.Done); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, &td)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	return todos, nil
}

func (s *TodoStore) Get(ctx context.Context, id int64) (*models.Todo, error) {
	return s.one(ctx, "get", `SELECT id, title, done FROM todos WHERE id = ?`, id)
}

func (s *TodoStore) Create(ctx context.Context, title string) (*models.Todo, error) {
	return s.one(ctx, "create", `
		INSERT INTO todos (title) VALUES (?)
		RETURNING id, title, done
	`, title)
}

// Update applies the non-nil fields of patch in one statement.
func (s *TodoStore) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	return s.one(ctx, "update", `
		UPDATE todos
		SET title = COALESCE(?, title),
		    done  = COALESCE(?, done)
		WHERE id = ?
		RETURNING id, title, done
	`, nullString(patch.Title), nullInt(patch.Done), id)
}

func (s *TodoStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TodoStore) one(ctx context.Context, op, query string, args ...any) (*models.Todo, error) {
	var td models.Todo
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&td.ID, &td.Title, &td.Done)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s todo: %w", op, err)
	}
	return &td, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
