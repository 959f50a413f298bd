package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tu-usuario/almacen-api/internal/domain"
)

// Códigos de error PostgreSQL que se traducen a errores de dominio.
const (
	codeUniqueViolation     = "23505"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
	codeForeignKeyViolation = "23503"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isForeignKeyViolation verifica si un error es una violación de clave foránea (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeForeignKeyViolation
	}
	return strings.Contains(err.Error(), codeForeignKeyViolation)
}

// isSerializationFailure detecta aborts por conflicto de transacción
// (serialization_failure o deadlock_detected). Son reintentables: el caller
// puede repetir la operación completa desde cero.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFail || pgErr.Code == codeDeadlockDetected
	}
	return false
}

// translateError convierte señales propias del store en errores de dominio,
// para no filtrar internos de PostgreSQL hacia arriba.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	if isSerializationFailure(err) {
		return domain.ErrConflict
	}
	return err
}
