package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrValidation           = errors.New("entrada inválida")
	ErrConflict             = errors.New("recurso duplicado")
	ErrReferentialIntegrity = errors.New("el recurso está referenciado")
	ErrRestrictedField      = errors.New("campos restringidos")
	ErrInvalidState         = errors.New("operación no permitida en el estado actual")
	ErrAuthorityRejected    = errors.New("documento rechazado por la autoridad tributaria")
	ErrAuthorityUnavailable = errors.New("autoridad tributaria no disponible")

	ErrUnauthorized  = errors.New("no autorizado")
	ErrForbidden     = errors.New("acceso denegado")
	ErrInactiveUser  = errors.New("usuario inactivo")
	ErrAccountLocked = errors.New("cuenta bloqueada")
	ErrLastAdmin     = errors.New("no se puede eliminar el último administrador activo")
)

// ValidationError describe un campo mal formado o faltante.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid construye un ValidationError.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// ConflictError violación de unicidad sobre Field.
type ConflictError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ya existe un %s con %s %q", e.Entity, e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ReferentialIntegrityError operación bloqueada por referencias existentes.
type ReferentialIntegrityError struct {
	Entity string
	Reason string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("no se puede eliminar %s: %s", e.Entity, e.Reason)
}

func (e *ReferentialIntegrityError) Is(target error) bool { return target == ErrReferentialIntegrity }

// RestrictedFieldError lista los campos que no se pueden modificar.
type RestrictedFieldError struct {
	Fields []string
}

func (e *RestrictedFieldError) Error() string {
	return "el cliente tiene ventas facturadas, no se pueden modificar: " + strings.Join(e.Fields, ", ")
}

func (e *RestrictedFieldError) Is(target error) bool { return target == ErrRestrictedField }

// InvalidStateError operación ilegal para el estado del ciclo de vida.
type InvalidStateError struct {
	Entity  string
	Current string
	Op      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s en estado %s no admite %s", e.Entity, e.Current, e.Op)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// LockedError cuenta bloqueada hasta Until.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return "cuenta bloqueada hasta " + e.Until.Format(time.RFC3339)
}

func (e *LockedError) Is(target error) bool { return target == ErrAccountLocked }

// MinutesLeft minutos restantes de bloqueo, redondeado hacia arriba.
func (e *LockedError) MinutesLeft(now time.Time) int {
	d := e.Until.Sub(now)
	if d <= 0 {
		return 0
	}
	m := int(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}

// CredentialsError credenciales inválidas con intentos restantes antes del bloqueo.
type CredentialsError struct {
	Remaining int
}

func (e *CredentialsError) Error() string {
	if e.Remaining <= 0 {
		return "Cuenta bloqueada por múltiples intentos fallidos."
	}
	return fmt.Sprintf("Credenciales inválidas. %d intentos restantes.", e.Remaining)
}

func (e *CredentialsError) Is(target error) bool { return target == ErrUnauthorized }

// NotFoundError recurso inexistente con mensaje para el usuario.
type NotFoundError struct {
	Entity string
	Msg    string
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Entity + " no encontrado"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
