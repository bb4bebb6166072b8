package handlers

import (
	"strings"

	"github.com/docuquery/backend/internal/middleware"
	"github.com/docuquery/backend/internal/services"
	"github.com/docuquery/backend/internal/storage"
	"github.com/docuquery/backend/pkg/logger"
	"github.com/docuquery/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type WorkspacesHandler struct {
	Service *services.WorkspaceService
	Storage *storage.MinIOClient
}

func NewWorkspacesHandler(service *services.WorkspaceService, storageClient *storage.MinIOClient) *WorkspacesHandler {
	return &WorkspacesHandler{Service: service, Storage: storageClient}
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

func (h *WorkspacesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}
	if len(req.Name) > 120 {
		return utils.Error(c, fiber.StatusBadRequest, "name must be at most 120 characters")
	}

	ws, err := h.Service.Create(c.UserContext(), currentUser.ID, req.Name)
	if err != nil {
		return serviceError(c, err, "failed creating workspace")
	}

	logger.InfoWithUser(currentUser.ID.String(), "workspace_created", map[string]interface{}{
		"workspace_id":   ws.ID.String(),
		"workspace_name": ws.Name,
		"code":           ws.Code,
	})

	return utils.Success(c, fiber.StatusCreated, ws)
}

func (h *WorkspacesHandler) ListOwned(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaces, err := h.Service.ListOwned(c.UserContext(), currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed listing workspaces")
	}

	return utils.Success(c, fiber.StatusOK, workspaces)
}

func (h *WorkspacesHandler) ListJoined(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaces, err := h.Service.ListJoined(c.UserContext(), currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed listing joined workspaces")
	}

	return utils.Success(c, fiber.StatusOK, workspaces)
}

func (h *WorkspacesHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}

	ws, err := h.Service.GetByID(c.UserContext(), workspaceID, currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed loading workspace")
	}

	return utils.Success(c, fiber.StatusOK, ws)
}

// GetByCode is the pre-join preview: any authenticated user holding a share
// code may look the workspace up, no membership required.
func (h *WorkspacesHandler) GetByCode(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return utils.Error(c, fiber.StatusBadRequest, "code is required")
	}

	ws, err := h.Service.GetByCode(c.UserContext(), code)
	if err != nil {
		return serviceError(c, err, "failed loading workspace")
	}

	return utils.Success(c, fiber.StatusOK, ws)
}

type joinWorkspaceRequest struct {
	Code string `json:"code"`
}

func (h *WorkspacesHandler) Join(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req joinWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return utils.Error(c, fiber.StatusBadRequest, "code is required")
	}

	ws, err := h.Service.Join(c.UserContext(), currentUser.ID, req.Code)
	if err != nil {
		return serviceError(c, err, "failed joining workspace")
	}

	logger.InfoWithUser(currentUser.ID.String(), "workspace_joined", map[string]interface{}{
		"workspace_id": ws.ID.String(),
		"code":         ws.Code,
	})

	return utils.Success(c, fiber.StatusOK, ws)
}

func (h *WorkspacesHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}

	storagePaths, err := h.Service.Delete(c.UserContext(), workspaceID, currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed deleting workspace")
	}

	// Archived objects are removed best-effort once the rows are gone; an
	// orphaned object is preferable to a dangling document row.
	if h.Storage != nil {
		for _, path := range storagePaths {
			_ = h.Storage.Delete(c.UserContext(), path)
		}
	}

	logger.InfoWithUser(currentUser.ID.String(), "workspace_deleted", map[string]interface{}{
		"workspace_id": workspaceID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
