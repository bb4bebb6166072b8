package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docuquery/backend/internal/middleware"
	"github.com/docuquery/backend/internal/services"
	"github.com/docuquery/backend/internal/storage"
	"github.com/docuquery/backend/pkg/logger"
	"github.com/docuquery/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DocumentsHandler struct {
	Service *services.WorkspaceService
	Storage *storage.MinIOClient
	AI      *services.AIClient
}

func NewDocumentsHandler(service *services.WorkspaceService, storageClient *storage.MinIOClient, ai *services.AIClient) *DocumentsHandler {
	return &DocumentsHandler{Service: service, Storage: storageClient, AI: ai}
}

type addDocumentRequest struct {
	Filename       string `json:"filename"`
	CollectionName string `json:"collectionName"`
}

// Add creates a metadata-only document record; the file itself lives
// wherever the caller already ingested it.
func (h *DocumentsHandler) Add(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}

	var req addDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Filename = strings.TrimSpace(req.Filename)
	req.CollectionName = strings.TrimSpace(req.CollectionName)
	if req.Filename == "" || req.CollectionName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "filename and collectionName are required")
	}

	doc, err := h.Service.AddDocument(c.UserContext(), workspaceID, currentUser.ID, services.AddDocumentInput{
		Filename:       req.Filename,
		CollectionName: req.CollectionName,
	})
	if err != nil {
		return serviceError(c, err, "failed adding document")
	}

	logger.InfoWithUser(currentUser.ID.String(), "document_added", map[string]interface{}{
		"workspace_id":    workspaceID.String(),
		"document_id":     doc.ID.String(),
		"collection_name": doc.CollectionName,
	})

	return utils.Success(c, fiber.StatusCreated, doc)
}

// Upload accepts the PDF itself: the original is archived in object storage
// and the content is relayed to the AI service so the collection can answer
// questions about it.
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if h.Storage == nil || h.AI == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "document upload is not configured")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}

	collectionName := strings.TrimSpace(c.FormValue("collectionName"))
	if collectionName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "collectionName is required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	if err := h.Service.Access.AssertOwner(c.UserContext(), workspaceID, currentUser.ID); err != nil {
		return serviceError(c, err, "failed validating ownership")
	}
	ws, err := h.Service.GetByID(c.UserContext(), workspaceID, currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed loading workspace")
	}
	if _, err := h.Service.ValidateCollection(c.UserContext(), workspaceID, collectionName); err == nil {
		return utils.Error(c, fiber.StatusConflict, services.ErrCollectionExists.Error())
	} else if !errors.Is(err, services.ErrDocumentNotFound) {
		return serviceError(c, err, "failed validating collection name")
	}

	objectName := fmt.Sprintf("workspaces/%s/%s/%s", workspaceID, uuid.NewString(), fileHeader.Filename)

	archive, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading uploaded file")
	}
	defer archive.Close()

	if err := h.Storage.Upload(c.UserContext(), objectName, archive, fileHeader.Size, fileHeader.Header.Get("Content-Type")); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed archiving file")
	}

	ingest, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading uploaded file")
	}
	defer ingest.Close()

	if err := h.AI.IngestDocument(c.UserContext(), ws.Code, collectionName, fileHeader.Filename, ingest); err != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "document_ingest_failed", err, map[string]interface{}{
			"workspace_id":    workspaceID.String(),
			"collection_name": collectionName,
		})
		_ = h.Storage.Delete(c.UserContext(), objectName)
		return utils.Error(c, fiber.StatusBadGateway, "ai service rejected the document")
	}

	doc, err := h.Service.AddDocument(c.UserContext(), workspaceID, currentUser.ID, services.AddDocumentInput{
		Filename:       fileHeader.Filename,
		CollectionName: collectionName,
		StoragePath:    &objectName,
		Size:           fileHeader.Size,
	})
	if err != nil {
		_ = h.Storage.Delete(c.UserContext(), objectName)
		return serviceError(c, err, "failed adding document")
	}

	logger.InfoWithUser(currentUser.ID.String(), "document_uploaded", map[string]interface{}{
		"workspace_id":    workspaceID.String(),
		"document_id":     doc.ID.String(),
		"collection_name": doc.CollectionName,
		"size":            doc.Size,
	})

	return utils.Success(c, fiber.StatusCreated, doc)
}

func (h *DocumentsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}

	docs, err := h.Service.ListDocuments(c.UserContext(), workspaceID, currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed listing documents")
	}

	return utils.Success(c, fiber.StatusOK, docs)
}

func (h *DocumentsHandler) Download(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "document storage is not configured")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}
	docID, err := parseUUID(c.Params("docId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid document id")
	}

	if err := h.Service.Access.AssertMember(c.UserContext(), workspaceID, currentUser.ID); err != nil {
		return serviceError(c, err, "failed validating membership")
	}

	doc, err := h.Service.GetDocument(c.UserContext(), workspaceID, docID)
	if err != nil {
		return serviceError(c, err, "failed loading document")
	}
	if doc.StoragePath == nil {
		return utils.Error(c, fiber.StatusNotFound, "no archived file for this document")
	}

	obj, err := h.Storage.Download(c.UserContext(), *doc.StoragePath)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching archived file")
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.SendStream(obj)
}

func (h *DocumentsHandler) Remove(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	workspaceID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid workspace id")
	}
	docID, err := parseUUID(c.Params("docId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid document id")
	}

	doc, err := h.Service.RemoveDocument(c.UserContext(), workspaceID, docID, currentUser.ID)
	if err != nil {
		return serviceError(c, err, "failed removing document")
	}

	if doc != nil && doc.StoragePath != nil && h.Storage != nil {
		_ = h.Storage.Delete(c.UserContext(), *doc.StoragePath)
	}

	if doc != nil {
		logger.InfoWithUser(currentUser.ID.String(), "document_removed", map[string]interface{}{
			"workspace_id": workspaceID.String(),
			"document_id":  docID.String(),
		})
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
