package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/gate-services/internal/cardsvc/models"
	"github.com/avvvet/gate-services/internal/cardsvc/store"
	"github.com/avvvet/gate-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// GateService decides whether a presented card opens the gate. Every pass is
// logged; a card is let through at most DailyLimit times per local day.
type GateService struct {
	cards  *store.CardStore
	scans  *store.ScanStore
	notify comm.Notifier

	DailyLimit int
	Debounce   time.Duration // same card again within this window is ignored

	mu       sync.Mutex // serializes scans, like a single reader
	lastUID  string
	lastSeen time.Time
	now      func() time.Time
}

func NewGateService(cards *store.CardStore, scans *store.ScanStore, notify comm.Notifier, dailyLimit int, debounce time.Duration) *GateService {
	if notify == nil {
		notify = comm.Discard{}
	}
	return &GateService{
		cards:      cards,
		scans:      scans,
		notify:     notify,
		DailyLimit: dailyLimit,
		Debounce:   debounce,
		now:        time.Now,
	}
}

func (s *GateService) Scan(ctx context.Context, uid string) (*models.GateDecision, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, &ValidationError{Field: "uid", Message: "uid is required"}
	}

	d := &models.GateDecision{UID: uid, Limit: s.DailyLimit}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Only a repeat of the last accepted card is ignored; another card in
	// between resets it.
	now := s.now()
	if s.Debounce > 0 && uid == s.lastUID && now.Sub(s.lastSeen) < s.Debounce {
		d.Debounced = true
		log.Debugf("[gate] ignoring repeated scan of %s", uid)
		return d, nil
	}

	created, err := s.cards.EnsureExists(ctx, uid)
	if err != nil {
		return nil, err
	}
	if created {
		log.Infof("[gate] new card registered: %s", uid)
	}
	d.NewCard = created

	scan, err := s.scans.Create(ctx, uid)
	if err != nil {
		return nil, err
	}
	d.Scan = scan
	s.lastUID, s.lastSeen = uid, now

	count, err := s.scans.CountToday(ctx, uid)
	if err != nil {
		return nil, err
	}
	d.TodayCount = count
	d.Allowed = count <= s.DailyLimit

	if d.Allowed {
		log.Infof("[gate] %s allowed (scan %d/%d)", uid, count, s.DailyLimit)
	} else {
		log.Infof("[gate] %s refused: scan %d is over the daily limit of %d", uid, count, s.DailyLimit)
	}

	s.notify.Notify(comm.NewEvent(comm.SubjectGateScan, d))
	return d, nil
}
