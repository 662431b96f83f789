package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx: los repositorios funcionan con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeCheckViolation       = "23514"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// mapError traduce códigos de PostgreSQL a errores de dominio. Los errores de dominio pasan tal cual.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeLockNotAvailable:
		return &domain.Error{Kind: domain.ErrLockTimeout, Message: "could not acquire stock lock: " + pgErr.Message}
	case codeSerializationFailure, codeDeadlockDetected:
		return &domain.Error{Kind: domain.ErrConflict, Message: "concurrent update, retry: " + pgErr.Message}
	case codeUniqueViolation:
		return &domain.Error{Kind: domain.ErrConflict, Field: pgErr.ConstraintName, Message: "duplicate key: " + pgErr.ConstraintName}
	case codeCheckViolation:
		return &domain.Error{Kind: domain.ErrInvalidArgument, Field: pgErr.ConstraintName, Message: "constraint violated: " + pgErr.ConstraintName}
	}
	return err
}

// validID evita consultar con ids que no son uuid (no existen por construcción).
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullUUID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOnly(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Truncate(24 * time.Hour)
}

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

