package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avvvet/gate-services/internal/cardsvc/models"
)

type ScanStore struct {
	db *sql.DB
}

func NewScanStore(db *sql.DB) *ScanStore {
	return &ScanStore{db: db}
}

// Create logs one pass of uid. The card must exist, otherwise ErrUnknownCard.
func (s *ScanStore) Create(ctx context.Context, uid string) (*models.Scan, error) {
	var sc models.Scan
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO scans (uid) VALUES (?)
		RETURNING id, uid, ts
	`, uid).Scan(&sc.ID, &sc.UID, &sc.TS)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownCard
		}
		return nil, fmt.Errorf("failed to log scan for %q: %w", uid, err)
	}

	return &sc, nil
}

func (s *ScanStore) ListByUID(ctx context.Context, uid string, limit int) ([]*models.Scan, error) {
	return s.list(ctx, `
		SELECT id, uid, ts
		FROM scans
		WHERE uid = ?
		ORDER BY id DESC
		LIMIT ?
	`, uid, limit)
}

func (s *ScanStore) ListRecent(ctx context.Context, limit int) ([]*models.Scan, error) {
	return s.list(ctx, `
		SELECT id, uid, ts
		FROM scans
		ORDER BY id DESC
		LIMIT ?
	`, limit)
}

func (s *ScanStore) list(ctx context.Context, query string, args ...any) ([]*models.Scan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	scans := []*models.Scan{}
	for rows.Next() {
		var sc models.Scan
		if err := rows.Scan(&sc.ID, &sc.UID, &sc.TS); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}

	return scans, nil
}

// CountToday counts the scans of uid on the current local date.
func (s *ScanStore) CountToday(ctx context.Context, uid string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM scans
		WHERE uid = ?
		  AND date(ts) = date('now','localtime')
	`, uid).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count scans for %q: %w", uid, err)
	}
	return n, nil
}
