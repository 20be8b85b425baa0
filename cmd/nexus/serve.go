package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/nexus-talent/internal/handlers"
	"alfredoptarigan/nexus-talent/internal/services"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()
			if port != "" {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApplication(ctx, cfg, log, true)
			if err != nil {
				return err
			}

			storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
			if err := storageService.EnsureUploadDir(); err != nil {
				return err
			}
			parser := services.NewDocumentParser(log)

			h := handlers.Handlers{
				Chat:           handlers.NewChatHandler(a.orchestrator, log),
				Role:           handlers.NewRoleHandler(a.orchestrator, a.workspace, log),
				Candidate:      handlers.NewCandidateHandler(a.orchestrator, a.workspace, a.search, log),
				Playbook:       handlers.NewPlaybookHandler(a.orchestrator, a.workspace, log),
				JobDescription: handlers.NewJobDescriptionHandler(a.orchestrator, a.workspace, storageService, parser, cfg.Storage.MaxFileSize, log),
			}
			log.Info("✅ Handlers initialized")

			app := fiber.New(fiber.Config{
				AppName:      "Nexus Talent API",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 5 * time.Minute,
				BodyLimit:    int(cfg.Storage.MaxFileSize),
				ErrorHandler: handlers.ErrorHandler,
			})

			app.Use(recover.New())
			app.Use(logger.New(logger.Config{
				Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
				TimeFormat: "2006-01-02 15:04:05",
			}))
			app.Use(cors.New(cors.Config{
				AllowOrigins: "*",
				AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
				AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			}))

			handlers.SetupRoutes(app, h)
			app.Get("/", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{
					"message": "Nexus Talent API",
					"version": version,
				})
			})

			g, gctx := errgroup.WithContext(ctx)

			if a.worker != nil {
				a.worker.Start(gctx)
				g.Go(func() error {
					<-gctx.Done()
					a.worker.Stop()
					return nil
				})
			}

			g.Go(func() error {
				addr := fmt.Sprintf(":%s", cfg.Server.Port)
				log.Info("🚀 Server starting", zap.String("addr", addr))
				return app.Listen(addr)
			})

			g.Go(func() error {
				<-gctx.Done()
				log.Info("🛑 Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return app.ShutdownWithContext(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
			log.Info("✅ Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PORT)")
	return cmd
}
