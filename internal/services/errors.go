package services

import "errors"

// Sentinel failures surfaced by the workspace and access services. Handlers
// map them onto HTTP statuses; nothing below the HTTP boundary retries or
// recovers.
var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrNotMember         = errors.New("not a member of this workspace")
	ErrNotOwner          = errors.New("only the workspace owner can perform this action")
	ErrCollectionExists  = errors.New("collection name already exists in this workspace")
)
