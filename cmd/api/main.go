package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/lighted-app/lighted-backend/config"
	"github.com/lighted-app/lighted-backend/internal/auth"
	"github.com/lighted-app/lighted-backend/internal/bootstrap"
	"github.com/lighted-app/lighted-backend/internal/migrations"
	"github.com/lighted-app/lighted-backend/internal/projects"
	"github.com/lighted-app/lighted-backend/internal/realtime"
	"github.com/lighted-app/lighted-backend/internal/storage"
)

const serviceName = "lighted-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.Database.DSN()

	if err := runMigrations(ctx, dsn); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	var (
		rdb      *redis.Client
		notifier *realtime.Notifier
		hub      *realtime.Hub
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		notifier = realtime.NewNotifier(rdb)
		hub = realtime.NewHub(rdb, cfg.Server.AllowedOrigins)
		go hub.Run(ctx)
	} else {
		log.Println("REDIS_ADDR not set, realtime updates disabled")
	}

	var uploads projects.Uploader
	if cfg.AWS.Bucket != "" {
		uploader, err := storage.NewS3Uploader(ctx, cfg.AWS)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		uploads = uploader
	} else {
		log.Println("AWS_BUCKET_NAME not set, thumbnail uploads disabled")
	}

	var google auth.CredentialVerifier
	if cfg.Google.ClientID != "" {
		google = auth.NewGoogleVerifier(cfg.Google.ClientID)
	} else {
		log.Println("GOOGLE_CLIENT_ID not set, Google login disabled")
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DB:             pool,
		Redis:          rdb,
		Tokens:         auth.NewIssuer(cfg.JWT.Secret),
		Google:         google,
		Uploads:        uploads,
		Notifier:       notifier,
		Hub:            hub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("%s listening on :%s", serviceName, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrations.Up(ctx, db)
}
