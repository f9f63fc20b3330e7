package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/monocle-dev/taskdeck/db"
	"github.com/monocle-dev/taskdeck/internal/auth"
	"github.com/monocle-dev/taskdeck/internal/config"
	"github.com/monocle-dev/taskdeck/internal/deals"
	"github.com/monocle-dev/taskdeck/internal/handlers"
	"github.com/monocle-dev/taskdeck/internal/realtime"
	"github.com/monocle-dev/taskdeck/internal/router"
	"github.com/monocle-dev/taskdeck/internal/session"
	"github.com/monocle-dev/taskdeck/internal/tasks"
	"github.com/monocle-dev/taskdeck/internal/uploads"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if port != "" {
				cfg.Port = port
			}

			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")

	return cmd
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.MigrateDatabase(conn); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	files, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(cfg.SecretKey, conn, session.CookieOptions{
		Domain: cfg.Cookie.Domain,
		Secure: cfg.Cookie.Secure,
	})
	if err != nil {
		return err
	}

	h := &handlers.Handler{
		DB:       conn,
		Sessions: sessions,
		Local:    auth.NewLocalService(conn),
		Tasks:    tasks.NewService(conn, files),
		Deals:    newDealsClient(ctx, cfg),
		Hub:      realtime.NewHub(cfg.AllowedOrigins),
	}

	if cfg.OAuth.Enabled() {
		provider, err := auth.NewGoogleProvider(ctx, cfg.OAuth)
		if err != nil {
			return fmt.Errorf("failed to set up Google sign-in: %w", err)
		}
		h.Delegated = auth.NewDelegatedService(conn, provider)
	} else {
		log.Println("OAUTH_CLIENT_ID not set, Google sign-in disabled")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.NewRouter(h, cfg.AllowedOrigins, files.Dir()),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Taskdeck listening on :%s", cfg.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func newDealsClient(ctx context.Context, cfg *config.Config) *deals.Client {
	if cfg.RedisAddr == "" {
		return deals.NewClient(cfg.DealsURL)
	}

	cache := deals.NewRedisCache(cfg.RedisAddr)

	if err := cache.Ping(ctx); err != nil {
		log.Printf("Redis at %s unreachable, deals will not be cached: %v", cfg.RedisAddr, err)
		return deals.NewClient(cfg.DealsURL)
	}

	log.Println("Redis connection successful.")

	return deals.NewClient(cfg.DealsURL, deals.WithCache(cache, cfg.DealsCacheTTL))
}
