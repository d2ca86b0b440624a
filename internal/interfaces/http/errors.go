package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billy-api/internal/application/dto"
	"github.com/jhoicas/billy-api/internal/domain"
)

// writeError traduce los errores de dominio al código HTTP y al cuerpo dto.ErrorResponse.
// Los errores no tipados responden 500 sin exponer el detalle.
func writeError(c *fiber.Ctx, err error) error {
	var (
		validation *domain.ValidationError
		conflict   *domain.ConflictError
		refs       *domain.ReferentialIntegrityError
		restricted *domain.RestrictedFieldError
		state      *domain.InvalidStateError
		locked     *domain.LockedError
		creds      *domain.CredentialsError
		notFound   *domain.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return respond(c, fiber.StatusBadRequest, "VALIDATION", validation.Error())
	case errors.As(err, &conflict):
		return respond(c, fiber.StatusConflict, "CONFLICT", conflict.Error())
	case errors.As(err, &refs):
		return respond(c, fiber.StatusConflict, "REFERENTIAL_INTEGRITY", refs.Error())
	case errors.As(err, &restricted):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:             "RESTRICTED_FIELD",
			Message:          restricted.Error(),
			RestrictedFields: restricted.Fields,
		})
	case errors.As(err, &state):
		return respond(c, fiber.StatusBadRequest, "INVALID_STATE", state.Error())
	case errors.As(err, &locked):
		return respond(c, fiber.StatusLocked, "ACCOUNT_LOCKED",
			fmt.Sprintf("Cuenta bloqueada. Intente nuevamente en %d minutos.", locked.MinutesLeft(time.Now())))
	case errors.As(err, &creds):
		return respond(c, fiber.StatusUnauthorized, "UNAUTHORIZED", creds.Error())
	case errors.As(err, &notFound):
		return respond(c, fiber.StatusNotFound, "NOT_FOUND", notFound.Error())
	case errors.Is(err, domain.ErrNotFound):
		return respond(c, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado")
	case errors.Is(err, domain.ErrLastAdmin):
		return respond(c, fiber.StatusConflict, "LAST_ADMIN", domain.ErrLastAdmin.Error())
	case errors.Is(err, domain.ErrInactiveUser):
		return respond(c, fiber.StatusForbidden, "FORBIDDEN", "Usuario inactivo")
	case errors.Is(err, domain.ErrForbidden):
		return respond(c, fiber.StatusForbidden, "FORBIDDEN", "No tiene permisos para esta operación")
	case errors.Is(err, domain.ErrUnauthorized):
		return respond(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas")
	default:
		c.Locals(localError, err)
		return respond(c, fiber.StatusInternalServerError, "INTERNAL", "error interno del servidor")
	}
}

const localError = "internal_error"

func respond(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func invalidBody(c *fiber.Ctx) error {
	return respond(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
}
