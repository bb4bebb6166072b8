package handlers

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/docuquery/backend/internal/config"
	"github.com/docuquery/backend/internal/database"
	"github.com/docuquery/backend/internal/middleware"
	"github.com/docuquery/backend/internal/models"
	"github.com/docuquery/backend/internal/services"
	"github.com/docuquery/backend/pkg/logger"
	"github.com/docuquery/backend/pkg/utils"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func newTestEnv(t *testing.T, aiBaseURL string) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	accessService := services.NewAccessService(db)
	workspaceService := services.NewWorkspaceService(db, accessService)

	var aiClient *services.AIClient
	if aiBaseURL != "" {
		aiClient = services.NewAIClient(config.AIConfig{BaseURL: aiBaseURL, Timeout: 5 * time.Second})
	}

	authHandler := NewAuthHandler(db)
	workspacesHandler := NewWorkspacesHandler(workspaceService, nil)
	documentsHandler := NewDocumentsHandler(workspaceService, nil, aiClient)
	chatHandler := NewChatHandler(workspaceService, aiClient)
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

	return &testEnv{app: app, db: db}
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, "")
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func dataObject(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %+v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()

	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %+v", body)
	}
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %T", body["data"])
	}
	return data
}

func assertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	body := decodeJSONMap(t, resp)
	if resp.StatusCode != expectedStatus {
		t.Fatalf("expected status code %d, got %d (body %+v)", expectedStatus, resp.StatusCode, body)
	}
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expectedMessage {
		t.Fatalf("expected error message %q, got %q", expectedMessage, got)
	}
}
