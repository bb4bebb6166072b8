package models

import "github.com/google/uuid"

type Document struct {
	BaseModel
	Filename string `json:"filename" gorm:"type:varchar(255);not null"`
	// CollectionName identifies the AI knowledge collection backing this
	// document; unique within its workspace.
	CollectionName string    `json:"collectionName" gorm:"type:varchar(150);not null;uniqueIndex:idx_workspace_collection"`
	WorkspaceID    uuid.UUID `json:"workspaceID" gorm:"type:uuid;not null;index;uniqueIndex:idx_workspace_collection"`
	Size           int64     `json:"size" gorm:"not null;default:0"`
	// StoragePath is set only when the file itself was uploaded through the
	// backend and archived in object storage.
	StoragePath *string `json:"-" gorm:"type:text"`

	Workspace Workspace `json:"-" gorm:"foreignKey:WorkspaceID;references:ID"`
}
