package models

import "github.com/google/uuid"

// WorkspaceMember records a non-owner participant. The owner never gets a
// membership row; ownership itself grants access.
type WorkspaceMember struct {
	BaseModel
	WorkspaceID uuid.UUID `json:"workspaceID" gorm:"type:uuid;not null;index;uniqueIndex:idx_workspace_user"`
	UserID      uuid.UUID `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_workspace_user"`

	Workspace Workspace `json:"workspace,omitempty" gorm:"foreignKey:WorkspaceID"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
