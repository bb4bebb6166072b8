package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docuquery/backend/internal/config"
	"github.com/docuquery/backend/internal/database"
	"github.com/docuquery/backend/internal/handlers"
	"github.com/docuquery/backend/internal/middleware"
	"github.com/docuquery/backend/internal/services"
	"github.com/docuquery/backend/internal/storage"
	"github.com/docuquery/backend/pkg/logger"
	"github.com/docuquery/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	accessService := services.NewAccessService(db)
	workspaceService := services.NewWorkspaceService(db, accessService)
	aiClient := services.NewAIClient(cfg.AI)

	authHandler := handlers.NewAuthHandler(db)
	workspacesHandler := handlers.NewWorkspacesHandler(workspaceService, storageClient)
	documentsHandler := handlers.NewDocumentsHandler(workspaceService, storageClient, aiClient)
	chatHandler := handlers.NewChatHandler(workspaceService, aiClient)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	wsRoutes := api.Group("/workspaces", authMiddleware.RequireAuth)
	wsRoutes.Post("/", workspacesHandler.Create)
	wsRoutes.Get("/owner", workspacesHandler.ListOwned)
	wsRoutes.Get("/member", workspacesHandler.ListJoined)
	wsRoutes.Get("/code/:code", workspacesHandler.GetByCode)
	wsRoutes.Post("/join", workspacesHandler.Join)
	wsRoutes.Post("/:id/documents/upload", documentsHandler.Upload)
	wsRoutes.Post("/:id/documents", documentsHandler.Add)
	wsRoutes.Get("/:id/documents/:docId/download", documentsHandler.Download)
	wsRoutes.Get("/:id/documents", documentsHandler.List)
	wsRoutes.Delete("/:id/documents/:docId", documentsHandler.Remove)
	wsRoutes.Post("/:id/chat", chatHandler.Chat)
	wsRoutes.Get("/:id", workspacesHandler.Get)
	wsRoutes.Delete("/:id", workspacesHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":       cfg.Server.Port,
		"address":    listenAddr,
		"ai_service": cfg.AI.BaseURL,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
