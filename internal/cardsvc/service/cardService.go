package service

import (
	"context"
	"strings"

	"github.com/avvvet/gate-services/internal/cardsvc/models"
	"github.com/avvvet/gate-services/internal/cardsvc/store"
	"github.com/avvvet/gate-services/internal/comm"
)

const (
	DefaultScanListLimit = 50
	MaxScanListLimit     = 500
)

type CardService struct {
	cards  *store.CardStore
	scans  *store.ScanStore
	notify comm.Notifier
}

func NewCardService(cards *store.CardStore, scans *store.ScanStore, notify comm.Notifier) *CardService {
	if notify == nil {
		notify = comm.Discard{}
	}
	return &CardService{cards: cards, scans: scans, notify: notify}
}

func (s *CardService) ListCards(ctx context.Context) ([]*models.Card, error) {
	return s.cards.List(ctx)
}

func (s *CardService) GetCard(ctx context.Context, uid string) (*models.Card, error) {
	return s.cards.GetByUID(ctx, uid)
}

func (s *CardService) RegisterCard(ctx context.Context, uid string) (*models.Card, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, &ValidationError{Field: "uid", Message: "uid is required"}
	}

	card, err := s.cards.Create(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.notify.Notify(comm.NewEvent(comm.SubjectCardCreated, card))
	return card, nil
}

// CardScans lists the scans of a registered card, newest first.
func (s *CardService) CardScans(ctx context.Context, uid string, limit int) ([]*models.Scan, error) {
	if _, err := s.cards.GetByUID(ctx, uid); err != nil {
		return nil, err
	}
	return s.scans.ListByUID(ctx, uid, clampLimit(limit))
}

func (s *CardService) RecentScans(ctx context.Context, limit int) ([]*models.Scan, error) {
	return s.scans.ListRecent(ctx, clampLimit(limit))
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultScanListLimit
	case limit > MaxScanListLimit:
		return MaxScanListLimit
	}
	return limit
}
