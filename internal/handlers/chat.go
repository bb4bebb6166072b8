package handlers

import (
	"strings"

	"github.com/docuquery/backend/internal/middleware"
	"github.com/docuquery/backend/internal/services"
	"github.com/docuquery/backend/pkg/logger"
	"github.com/docuquery/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	Service *services.WorkspaceService
	AI      *services.AIClient
}

func NewChatHandler(service *services.WorkspaceService, ai *services.AIClient) *ChatHandler {
	return &ChatHandler{Service: service, AI: ai}
}

type chatRequest struct {
	CollectionName string `json:"collectionName"`
	Question       string `json:"question"`
}

// Chat proxies a question to the AI service. Membership and collection
// existence are both verified before anything leaves this process.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.CollectionName = strings.TrimSpace(req.CollectionName)
	req.Question = strings.TrimSpace(req.Question)
	if req.CollectionName == "" || req.Question == "" {
		return utils.Error(c, fiber.StatusBadRequest, "collectionName and question are required")
	}

	ws, err := h.Service.GetByID(c.UserContext(), workspaceID, currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed loading workspace")
	}

	if _, err := h.Service.ValidateCollection(c.UserContext(), workspaceID, req.CollectionName); err != nil {
		return serviceError(c, err, "failed validating collection")
	}

	answer, err := h.AI.Chat(c.UserContext(), ws.Code, req.CollectionName, req.Question)
	if err != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "chat_proxy_failed", err, map[string]interface{}{
			"workspace_id":    workspaceID.String(),
			"collection_name": req.CollectionName,
		})
		return utils.Error(c, fiber.StatusBadGateway, "ai service unavailable")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"answer": answer})
}
