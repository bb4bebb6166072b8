package services

import (
	"context"
	"errors"
	"strings"

	"github.com/docuquery/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkspaceService orchestrates workspace, membership and document CRUD.
// Authorization goes through the two access policies; the database's unique
// indexes remain the final arbiter for concurrent creates and joins.
type WorkspaceService struct {
	DB     *gorm.DB
	Access *AccessService
}

func NewWorkspaceService(db *gorm.DB, access *AccessService) *WorkspaceService {
	return &WorkspaceService{DB: db, Access: access}
}

// generateShareCode returns the first segment of a random UUID: 8 hex chars,
// short enough to type and unique enough for the expected workspace count.
func generateShareCode() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

func (s *WorkspaceService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Workspace, error) {
	ws := models.Workspace{
		Name:    name,
		Code:    generateShareCode(),
		OwnerID: ownerID,
	}

	if err := s.DB.WithContext(ctx).Create(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *WorkspaceService) ListOwned(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := s.DB.WithContext(ctx).
		Preload("Documents").
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&workspaces).Error
	return workspaces, err
}

func (s *WorkspaceService) ListJoined(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := s.DB.WithContext(ctx).
		Model(&models.Workspace{}).
		Preload("Documents").
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ?", userID).
		Order("workspaces.created_at DESC").
		Find(&workspaces).Error
	return workspaces, err
}

func (s *WorkspaceService) GetByID(ctx context.Context, workspaceID, userID uuid.UUID) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.DB.WithContext(ctx).Preload("Documents").First(&ws, "id = ?", workspaceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	if err := s.Access.AssertMember(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	return &ws, nil
}

func (s *WorkspaceService) GetByCode(ctx context.Context, code string) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.DB.WithContext(ctx).First(&ws, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// Join redeems a share code. Joining twice is a no-op: the membership upsert
// does nothing on conflict with the (workspace_id, user_id) unique index.
func (s *WorkspaceService) Join(ctx context.Context, userID uuid.UUID, code string) (*models.Workspace, error) {
	ws, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	member := models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      userID,
	}
	err = s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&member).Error
	if err != nil {
		return nil, err
	}

	return ws, nil
}

type AddDocumentInput struct {
	Filename       string
	CollectionName string
	StoragePath    *string
	Size           int64
}

func (s *WorkspaceService) AddDocument(ctx context.Context, workspaceID, userID uuid.UUID, input AddDocumentInput) (*models.Document, error) {
	if err := s.Access.AssertOwner(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	if _, err := s.ValidateCollection(ctx, workspaceID, input.CollectionName); err == nil {
		return nil, ErrCollectionExists
	} else if !errors.Is(err, ErrDocumentNotFound) {
		return nil, err
	}

	doc := models.Document{
		Filename:       input.Filename,
		CollectionName: input.CollectionName,
		WorkspaceID:    workspaceID,
		StoragePath:    input.StoragePath,
		Size:           input.Size,
	}

	if err := s.DB.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *WorkspaceService) GetDocument(ctx context.Context, workspaceID, docID uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := s.DB.WithContext(ctx).First(&doc, "id = ? AND workspace_id = ?", docID, workspaceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// RemoveDocument deletes a document scoped to its workspace. Removing an
// absent document succeeds with a nil result so callers can tell whether
// there is an archived object to clean up.
func (s *WorkspaceService) RemoveDocument(ctx context.Context, workspaceID, docID, userID uuid.UUID) (*models.Document, error) {
	if err := s.Access.AssertOwner(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	doc, err := s.GetDocument(ctx, workspaceID, docID)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, err
	}

	err = s.DB.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", docID, workspaceID).
		Delete(&models.Document{}).Error
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *WorkspaceService) ListDocuments(ctx context.Context, workspaceID, userID uuid.UUID) ([]models.Document, error) {
	if err := s.Access.AssertMember(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	var docs []models.Document
	err := s.DB.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// Delete removes a workspace and everything hanging off it. Documents go
// first, then membership rows, then the workspace row itself. Returns the
// storage paths of archived document files so the caller can remove the
// objects after the rows are gone.
func (s *WorkspaceService) Delete(ctx context.Context, workspaceID, userID uuid.UUID) ([]string, error) {
	if err := s.Access.AssertOwner(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	var docs []models.Document
	if err := s.DB.WithContext(ctx).Where("workspace_id = ?", workspaceID).Find(&docs).Error; err != nil {
		return nil, err
	}

	var storagePaths []string
	for _, doc := range docs {
		if doc.StoragePath != nil {
			storagePaths = append(storagePaths, *doc.StoragePath)
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.WorkspaceMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workspace{}, "id = ?", workspaceID).Error
	})
	if err != nil {
		return nil, err
	}

	return storagePaths, nil
}

// ValidateCollection confirms that a document with the given collection name
// exists in the workspace; chat requests must pass it before anything is
// proxied to the AI service.
func (s *WorkspaceService) ValidateCollection(ctx context.Context, workspaceID uuid.UUID, collectionName string) (*models.Document, error) {
	var doc models.Document
	err := s.DB.WithContext(ctx).
		First(&doc, "workspace_id = ? AND collection_name = ?", workspaceID, collectionName).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}
