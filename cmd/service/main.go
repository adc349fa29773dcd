package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"neontune/internal/extractor"
	"neontune/internal/provider"
	"neontune/internal/realtime"
	"neontune/internal/session"
)

func main() {
	cfg, err := loadConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}

	var store session.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("neontune: db connect: %v", err)
		}
		defer pool.Close()

		if err := session.AutoMigrate(ctx, pool); err != nil {
			log.Fatalf("neontune: migrate: %v", err)
		}
		store = session.NewPostgresStore(pool)
	}

	yt := provider.NewYouTubeClient(cfg.YouTubeAPIKeys, cfg.YouTubeAPIURL, cfg.YouTubeTimeout)
	searcher := provider.NewSearcher(yt, provider.NewPageCache(rdb, cfg.SearchCacheTTL))
	limiter := provider.NewIPRateLimiter(cfg.StreamRateLimitRPS, cfg.StreamRateBurst)
	prov := provider.NewServer(searcher, extractor.New(), limiter)

	hub := realtime.NewHub()
	go hub.Run(ctx)

	tokens := session.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTokenTTL)
	rt := realtime.NewServer(hub, rdb, tokens, cfg.frontendBaseURL)

	var publisher session.Publisher = hub
	if rdb != nil {
		publisher = session.NewRedisPublisher(rdb)
		go rt.RunRedisSubscriber(ctx)
	}
	sessions := session.NewServer(session.NewRegistry(store), store, searcher, publisher, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, prov, sessions, rt),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("neontune listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("neontune: %v", err)
	}
}
