package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fundra.org/internal/httpapi"
	"fundra.org/internal/obs"
	"fundra.org/internal/portal"
	"fundra.org/internal/store/pg"
	"fundra.org/internal/stream"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	// Store selection: PostgreSQL when a DSN is configured, otherwise the
	// in-memory store (development and demos).
	var (
		svc portal.Service
		db  *sql.DB
	)
	if dsn := os.Getenv("FUNDRA_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		svc = store
		db = store.DB()
	} else {
		svc = portal.NewInMemory()
	}

	if os.Getenv("FUNDRA_DEMO_SEED") == "1" {
		if err := portal.SeedDemo(context.Background(), svc); err != nil {
			log.Fatalf("seed demo data: %v", err)
		}
	}

	feed := stream.New()
	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, svc, feed)

	addr := os.Getenv("FUNDRA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting fundra-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
