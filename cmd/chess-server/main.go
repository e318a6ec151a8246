package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Herorishi1234/chess-game/internal/auth"
	"github.com/Herorishi1234/chess-game/internal/bot"
	appcfg "github.com/Herorishi1234/chess-game/internal/config"
	"github.com/Herorishi1234/chess-game/internal/gateway"
	"github.com/Herorishi1234/chess-game/internal/httpapi"
	"github.com/Herorishi1234/chess-game/internal/match"
	"github.com/Herorishi1234/chess-game/internal/obslog"
	"github.com/Herorishi1234/chess-game/internal/store"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	var repo store.Repository
	var closeRepo func() error
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres init error: %v", err)
		}
		repo = pg
		closeRepo = pg.Close
		obslog.L().Info("store_ready", zap.String("backend", "postgres"))
	} else {
		repo = store.NewMemory()
		obslog.L().Info("store_ready", zap.String("backend", "memory"))
	}

	var snaps *store.SnapshotStore
	if cfg.RedisURL != "" {
		snaps, err = store.NewSnapshotStore(cfg.RedisURL, cfg.Retention())
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		obslog.L().Info("snapshot_cache_ready")
	}

	authMgr, err := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		log.Fatalf("auth init error: %v", err)
	}

	engine := bot.NewMinimax(3)
	coord := match.New(repo, snaps, engine, match.Options{
		BotName:   cfg.BotName,
		BotBudget: cfg.BotBudget(),
		Retention: cfg.Retention(),
	})

	mux := http.NewServeMux()
	api := httpapi.NewServer(repo, coord, authMgr, cfg.OpenListLimit, cfg.LeaderboardTop)
	api.Register(mux)
	gw := gateway.New(coord, authMgr)
	mux.HandleFunc("GET /ws", gw.ServeWS)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("server_listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	obslog.L().Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	coord.Close()
	_ = snaps.Close()
	if closeRepo != nil {
		_ = closeRepo()
	}
}
