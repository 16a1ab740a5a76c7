package main

import (
	"context"
	"net/http"
	"time"

	config "github.com/avvvet/gate-services/configs"
	cardcfg "github.com/avvvet/gate-services/internal/cardsvc/config"
	"github.com/avvvet/gate-services/internal/cardsvc/handlers"
	"github.com/avvvet/gate-services/internal/cardsvc/service"
	"github.com/avvvet/gate-services/internal/cardsvc/store"
	"github.com/avvvet/gate-services/internal/cardsvc/ws"
	"github.com/avvvet/gate-services/internal/comm"
	natscli "github.com/avvvet/gate-services/internal/nats"
	"github.com/avvvet/gate-services/internal/server"
	"github.com/avvvet/gate-services/internal/storage"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg := cardcfg.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := storage.ResolveWritableDatabase(ctx, cfg.PreferredPath, cfg.FallbackPath, cfg.Storage)
	if err != nil {
		log.Fatalf("[sqlite] Failed to acquire a writable database: %v", err)
	}
	defer db.Close()
	if db.Mode() == storage.ModePreferred {
		log.Infof("[sqlite] Using intended DB at: %s", db.Path())
	} else {
		log.Warnf("[sqlite] Using fallback DB at: %s", db.Path())
	}

	seeded, err := storage.Initialize(ctx, db.DB, store.Schema(cfg.SeedCardUID))
	if err != nil {
		log.Fatalf("[sqlite] Failed to initialize schema: %v", err)
	}
	if seeded {
		log.Infof("[sqlite] Seeded one card (uid: %s)", cfg.SeedCardUID)
	}

	// event fan-out: live dashboards always, NATS when configured
	hub := ws.NewWs()
	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: invalid NATS configuration: %v", err)
	}
	defer n.Close()
	if n != nil {
		log.Infof("NATS connection established successfully %s", n.Url)
	}
	notify := comm.Notifiers{hub, n}

	cardStore := store.NewCardStore(db.DB)
	scanStore := store.NewScanStore(db.DB)
	cardService := service.NewCardService(cardStore, scanStore, notify)
	gateService := service.NewGateService(cardStore, scanStore, notify, cfg.DailyScanLimit, cfg.ScanDebounce)

	r := server.NewRouter(server.Options{RateLimit: cfg.RateLimit, CORSOrigins: cfg.CORSOrigins})
	h := handlers.NewHandler(cardService, gateService)
	h.SetRoutes(r, hub.HandleWebSocket, cfg.StaticDir)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := server.Run(SERVICE_NAME, srv); err != nil {
		db.Close()
		log.Fatalf("%s service stopped: %v", SERVICE_NAME, err)
	}
}
