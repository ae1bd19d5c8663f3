package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/memory"
)

func newImplementation(id, fundingID string) *entity.Implementation {
	now := time.Now()
	return &entity.Implementation{
		ID: id, FundingProjectID: fundingID, State: entity.ImplementationStateDraft,
		Currency: entity.Currency{Code: "RON", Places: 2}, CreatedAt: now, UpdatedAt: now,
	}
}

func TestRun_ErrorDescartaLosCambios(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Run(ctx, func(r implementation.Repositories) error {
		require.NoError(t, r.Implementations.Create(ctx, newImplementation("i1", "F1")))
		got, err := r.Implementations.GetByID(ctx, "i1")
		require.NoError(t, err)
		require.NotNil(t, got, "visible dentro de la transacción")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Repositories().Implementations.GetByID(ctx, "i1")
	require.NoError(t, err)
	assert.Nil(t, got, "rollback: nada queda visible")
}

func TestRun_ConfirmaAlTerminarSinError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Run(ctx, func(r implementation.Repositories) error {
		return r.Implementations.Create(ctx, newImplementation("i1", "F1"))
	})
	require.NoError(t, err)

	got, err := store.Repositories().Implementations.GetByID(ctx, "i1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "F1", got.FundingProjectID)
}

func TestRun_ContextoCancelado(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Run(ctx, func(implementation.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestImplementations_UnaPorProyecto(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	r := store.Repositories()

	require.NoError(t, r.Implementations.Create(ctx, newImplementation("i1", "F1")))
	err := r.Implementations.Create(ctx, newImplementation("i2", "F1"))
	require.Error(t, err)
	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeDuplicateReference, ve.Code)
}

func TestContracts_ListadoEnOrdenDeInsercionYPaginado(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	r := store.Repositories()
	require.NoError(t, r.Implementations.Create(ctx, newImplementation("i1", "F1")))
	for _, n := range []string{"C-3", "C-1", "C-2"} {
		require.NoError(t, r.Contracts.Create(ctx, &entity.Contract{ID: "id-" + n, ImplementationID: "i1", Number: n, Name: "Obra " + n}))
	}

	all, err := r.Contracts.List(ctx, repository.ContractFilter{ImplementationID: "i1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "C-3", all[0].Number)

	page, err := r.Contracts.List(ctx, repository.ContractFilter{ImplementationID: "i1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "C-1", page[0].Number)
}
