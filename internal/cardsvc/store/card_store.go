package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avvvet/gate-services/internal/cardsvc/models"
)

type CardStore struct {
	db *sql.DB
}

func NewCardStore(db *sql.DB) *CardStore {
	return &CardStore{db: db}
}

// List returns every card, most recently registered first.
func (s *CardStore) List(ctx context.Context) ([]*models.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, created_at
		FROM cards
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []*models.Card{}
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.UID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	return cards, nil
}

func (s *CardStore) GetByUID(ctx context.Context, uid string) (*models.Card, error) {
	var c models.Card
	err := s.db.QueryRowContext(ctx, `
		SELECT uid, created_at
		FROM cards
		WHERE uid = ?
	`, uid).Scan(&c.UID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get card %q: %w", uid, err)
	}

	return &c, nil
}

// Create registers uid and fails with ErrConflict when it is already known.
func (s *CardStore) Create(ctx context.Context, uid string) (*models.Card, error) {
	var c models.Card
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cards (uid) VALUES (?)
		ON CONFLICT(uid) DO NOTHING
		RETURNING uid, created_at
	`, uid).Scan(&c.UID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("could not create card %q: %w", uid, err)
	}

	return &c, nil
}

// EnsureExists registers uid unless it already is. It reports whether a row
// was inserted.
func (s *CardStore) EnsureExists(ctx context.Context, uid string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO cards (uid) VALUES (?) ON CONFLICT(uid) DO NOTHING`, uid)
	if err != nil {
		return false, fmt.Errorf("could not register card %q: %w", uid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
