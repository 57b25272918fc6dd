package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewithrodrick/portfolio-backend/internal/config"
	"github.com/codewithrodrick/portfolio-backend/internal/database"
	"github.com/codewithrodrick/portfolio-backend/internal/handlers"
	"github.com/codewithrodrick/portfolio-backend/internal/routes"
	"github.com/codewithrodrick/portfolio-backend/internal/services"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := slog.Default()

	db, err := database.ConnectPostgres(cfg.PostgresURI)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	if !skipMigrations {
		if err := database.RunMigrations(db, "up"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	defer rdb.Close()

	var archive handlers.ContactArchive
	if cfg.MongoURI != "" {
		client, mdb, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			logger.Warn("MongoDB unavailable, contact messages will not be archived", "error", err)
		} else {
			defer database.DisconnectMongo(client)
			contactArchive := services.NewContactArchive(mdb)
			if err := contactArchive.EnsureIndexes(cmd.Context()); err != nil {
				logger.Warn("failed to ensure contact archive indexes", "error", err)
			}
			archive = contactArchive
		}
	}

	blobs := newBlobStore(cmd.Context(), cfg, logger)

	tokens := services.NewConnectorTokenSource(cfg.MailConnectorHostname, cfg.MailConnectorToken, nil)
	if cfg.MailConnectorHostname == "" || cfg.MailConnectorToken == "" {
		logger.Warn("mail connector not configured, contact form submissions will fail")
	}
	mailer := services.NewGmailMailer(tokens, cfg.MailFromFallback, services.WithGmailLogger(logger))

	h := handlers.New(handlers.Deps{
		Admins:   services.NewAdminStore(db),
		Content:  services.NewContentStore(db),
		Sessions: services.NewSessionStore(rdb, cfg.SessionTTL),
		Blobs:    blobs,
		Mailer:   mailer,
		Archive:  archive,
		Logger:   logger,
	}, handlers.Options{
		CookieName:           cfg.SessionCookieName,
		SessionTTL:           cfg.SessionTTL,
		SecureCookies:        cfg.IsProduction(),
		UploadMaxBytes:       cfg.UploadMaxBytes,
		ContactFallbackEmail: cfg.ContactFallbackEmail,
		UploadsDir:           cfg.UploadsDir,
		TrustProxy:           cfg.TrustProxy,
	})

	router := routes.NewRouter(h, routes.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		SecurityHeaders: cfg.IsProduction(),
		MetricsEnabled:  cfg.MetricsEnabled,
		TrustProxy:      cfg.TrustProxy,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// newBlobStore picks the upload backend. A misconfigured backend degrades to
// one that rejects uploads, leaving the rest of the API available.
func newBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) services.BlobStore {
	switch cfg.UploadBackend {
	case "cloudinary":
		store, err := services.NewCloudinaryBlobStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			logger.Warn("Cloudinary unavailable, image uploads disabled", "error", err)
			return services.NotConfiguredBlobStore{}
		}
		logger.Info("image uploads go to Cloudinary", "folder", cfg.CloudinaryFolder)
		return store
	case "s3":
		store, err := services.NewS3BlobStore(ctx, cfg.S3)
		if err != nil {
			logger.Warn("S3 storage unavailable, image uploads disabled", "error", err)
			return services.NotConfiguredBlobStore{}
		}
		logger.Info("image uploads go to S3", "bucket", cfg.S3.Bucket)
		return store
	case "":
		logger.Warn("no upload backend configured, image uploads disabled")
	default:
		logger.Warn("unknown upload backend, image uploads disabled", "backend", cfg.UploadBackend)
	}
	return services.NotConfiguredBlobStore{}
}
