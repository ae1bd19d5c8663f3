package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/postgres"
)

// ──────────────────────────────────────────────────────────────────────────────
// Querier falso: responde como PostgreSQL ante un parámetro uuid malformado
// ──────────────────────────────────────────────────────────────────────────────

type rowErr struct{ err error }

func (r rowErr) Scan(...any) error { return r.err }

type failingQuerier struct{ err error }

func (q failingQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, q.err
}

func (q failingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, q.err
}

func (q failingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return rowErr{err: q.err}
}

func invalidUUID() error {
	return &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "no-es-uuid"`}
}

// ──────────────────────────────────────────────────────────────────────────────
// 22P02 → no encontrado
// ──────────────────────────────────────────────────────────────────────────────

func TestRepositories_IDMalformado_NoEncontrado(t *testing.T) {
	ctx := context.Background()
	r := postgres.Repositories(failingQuerier{err: invalidUUID()})

	l, err := r.ContractLines.GetByContractAndBudget(ctx, "no-es-uuid", "tampoco")
	require.NoError(t, err)
	assert.Nil(t, l)

	err = r.Contracts.Delete(ctx, "no-es-uuid")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "delete: %v", err)

	_, err = r.DocumentLines.CountByContractLine(ctx, "no-es-uuid")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "count: %v", err)

	_, err = r.SettlementLines.ListByDocumentLines(ctx, "no-es-uuid", []string{"x"})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "list: %v", err)
}

func TestRepositories_OtrosErrores_SeMantienen(t *testing.T) {
	ctx := context.Background()
	r := postgres.Repositories(failingQuerier{err: &pgconn.PgError{Code: "57014", Message: "canceling statement"}})

	_, err := r.ContractLines.GetByContractAndBudget(ctx, "a", "b")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	var pgErr *pgconn.PgError
	err = r.Contracts.Delete(ctx, "a")
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "57014", pgErr.Code)
}
