package models

import "github.com/google/uuid"

type Workspace struct {
	BaseModel
	Name string `json:"name" gorm:"type:varchar(150);not null"`
	// Code is the short public token handed out to invitees; unique across
	// all workspaces.
	Code    string    `json:"code" gorm:"type:varchar(16);uniqueIndex;not null"`
	OwnerID uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;index"`

	Owner     User              `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Documents []Document        `json:"documents,omitempty" gorm:"foreignKey:WorkspaceID"`
	Members   []WorkspaceMember `json:"-" gorm:"foreignKey:WorkspaceID"`
}
