package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deckhand/internal/anki"
	"deckhand/internal/auth"
	"deckhand/internal/config"
	"deckhand/internal/db"
	"deckhand/internal/export"
	httpx "deckhand/internal/http"
	"deckhand/internal/jobs"
	"deckhand/internal/prefs"
	"deckhand/internal/review"
	"deckhand/internal/store"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	cardStore := &store.Store{DB: gdb}
	prefStore := &prefs.Store{DB: gdb}
	exporter := &export.Service{
		Cards: cardStore,
		Anki:  anki.NewClient(cfg.AnkiConnectURL),
	}

	sess := review.NewSession(cardStore, exporter, prefStore, review.SessionOptions{
		PageSize: cfg.PendingPageSize,
	})
	if err := sess.Refresh(context.Background()); err != nil {
		log.Printf("initial card load failed: %v\n", err)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	r := httpx.NewRouter(cfg, httpx.Deps{
		DB:      gdb,
		JWT:     jwtSvc,
		Session: sess,
		Store:   cardStore,
		Prefs:   prefStore,
	})

	// image generation worker
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.ImageProviderURL != "" {
		worker := &jobs.Worker{
			ID:       "worker-1",
			Repo:     &jobs.Repo{DB: gdb},
			DB:       gdb,
			Provider: jobs.NewHTTPProvider(cfg.ImageProviderURL),
		}
		go worker.Run(ctx)
	} else {
		log.Println("IMAGE_PROVIDER_URL not set, image generation jobs will stay queued")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
