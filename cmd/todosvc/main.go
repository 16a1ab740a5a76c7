package main

import (
	"context"
	"net/http"
	"time"

	config "github.com/avvvet/gate-services/configs"
	natscli "github.com/avvvet/gate-services/internal/nats"
	"github.com/avvvet/gate-services/internal/server"
	"github.com/avvvet/gate-services/internal/storage"
	todocfg "github.com/avvvet/gate-services/internal/todosvc/config"
	"github.com/avvvet/gate-services/internal/todosvc/handlers"
	"github.com/avvvet/gate-services/internal/todosvc/service"
	"github.com/avvvet/gate-services/internal/todosvc/store"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "todo"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg := todocfg.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := storage.ResolveWritableDatabase(ctx, cfg.PreferredPath, cfg.FallbackPath, cfg.Storage)
	if err != nil {
		log.Fatalf("[sqlite] Failed to acquire a writable database: %v", err)
	}
	defer db.Close()
	log.Infof("[sqlite] Using %s DB at: %s", db.Mode(), db.Path())

	seeded, err := storage.Initialize(ctx, db.DB, store.Schema(cfg.SeedTitle))
	if err != nil {
		log.Fatalf("[sqlite] Failed to initialize schema: %v", err)
	}
	if seeded {
		log.Infof("[sqlite] Seeded one todo (%q)", cfg.SeedTitle)
	}

	n, err := natscli.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Fatalf("Error: invalid NATS configuration: %v", err)
	}
	defer n.Close()

	todoService := service.NewTodoService(store.NewTodoStore(db.DB), n)

	r := server.NewRouter(server.Options{RateLimit: cfg.RateLimit, CORSOrigins: cfg.CORSOrigins})
	handlers.NewHandler(todoService).SetRoutes(r)

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
