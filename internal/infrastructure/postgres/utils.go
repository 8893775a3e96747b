package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isCheckViolation 23514: un CHECK de la tabla rechazó la fila (stock negativo, reservado > stock).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// serializationCode devuelve el código si el error es un fallo de serialización (40001)
// o un deadlock (40P01); ambos se tratan como conflicto de concurrencia.
func serializationCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return pgErr.Code, true
	}
	return "", false
}

// mapError traduce errores del driver a errores de dominio reintentables.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if code, ok := serializationCode(err); ok {
		return &domain.ConcurrentModificationError{Entity: "transacción", ID: code}
	}
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
