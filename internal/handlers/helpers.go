package handlers

import (
	"errors"
	"strings"

	"github.com/docuquery/backend/internal/services"
	"github.com/docuquery/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// serviceError maps the service error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrDocumentNotFound):
		return utils.Error(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrNotOwner):
		return utils.Error(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrCollectionExists):
		return utils.Error(c, fiber.StatusConflict, err.Error())
	default:
		return utils.Error(c, fiber.StatusInternalServerError, fallback)
	}
}
