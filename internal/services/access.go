package services

import (
	"context"
	"errors"

	"github.com/docuquery/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accessRole int

const (
	roleMember accessRole = iota
	roleOwner
)

// AccessService resolves a workspace and decides whether a caller holds a
// given role in it. Two named policies share one decision function: the
// owner always passes, and membership rows only satisfy the member role.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// AssertMember succeeds when the caller owns the workspace or holds a
// membership row for it.
func (a *AccessService) AssertMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return a.require(ctx, workspaceID, userID, roleMember)
}

// AssertOwner succeeds only for the workspace owner.
func (a *AccessService) AssertOwner(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return a.require(ctx, workspaceID, userID, roleOwner)
}

func (a *AccessService) require(ctx context.Context, workspaceID, userID uuid.UUID, role accessRole) error {
	var ws models.Workspace
	if err := a.DB.WithContext(ctx).First(&ws, "id = ?", workspaceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWorkspaceNotFound
		}
		return err
	}

	if ws.OwnerID == userID {
		return nil
	}

	if role == roleOwner {
		return ErrNotOwner
	}

	var count int64
	err := a.DB.WithContext(ctx).
		Model(&models.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}

	return nil
}
