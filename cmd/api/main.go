package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"filez/api/internal/access"
	"filez/api/internal/app"
	"filez/api/internal/blob"
	"filez/api/internal/config"
	"filez/api/internal/docs"
	"filez/api/internal/logging"
	"filez/api/internal/search"
	"filez/api/internal/session"
	"filez/api/internal/store"
	"filez/api/internal/users"
	"filez/api/internal/zoffice"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.Env)
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}
	dataStore := store.NewPostgresStore(db)

	var blobs blob.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		blobs, err = blob.NewMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
		log.Infof("document content stored in minio bucket %s", cfg.MinioBucket)
	} else {
		blobs, err = blob.NewLocal(cfg.UploadDir)
		if err != nil {
			log.Fatalf("upload dir unavailable: %v", err)
		}
		log.Infof("document content stored under %s", cfg.UploadDir)
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient)

	var sessions *session.RedisStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		sessions, err = session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer sessions.Close()
		log.Info("session revocation backed by redis")
	} else {
		log.Warn("no redis configured, logout relies on token expiry")
	}

	templates := docs.NewTemplates(cfg.TemplateDir)
	docService := docs.NewService(dataStore, blobs, templates, cfg.ShareUser, log)
	userService := users.NewService(dataStore)
	evaluator := access.NewEvaluator(dataStore, cfg.Privileged(), cfg.ShareUser)
	builder := zoffice.NewBuilder(zoffice.Config{
		Scheme:          cfg.ZOfficeScheme,
		Host:            cfg.ZOfficeHost,
		Port:            cfg.ZOfficePort,
		Context:         cfg.ZOfficeContext,
		Secret:          cfg.ZOfficeSecret,
		FEIntegration:   cfg.ZOfficeFEIntegration,
		RepoID:          cfg.RepoID,
		TokenName:       cfg.TokenName,
		CallbackHost:    cfg.CallbackHost,
		CallbackPort:    cfg.CallbackPort,
		CallbackContext: cfg.CallbackContext,
	})

	service := &app.Service{
		Cfg:      cfg,
		Log:      log,
		Users:    userService,
		Docs:     docService,
		Access:   evaluator,
		Sessions: sessions,
		Search:   searchService,
		ZOffice:  builder,
	}
	if err := service.Bootstrap(ctx); err != nil {
		log.Warnf("bootstrap error (will retry on next restart): %v", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           service.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infof("filez api listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
}
