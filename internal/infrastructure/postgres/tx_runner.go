package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
)

var _ implementation.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Repositories arma el conjunto de repositorios sobre q (pool o tx).
func Repositories(base Querier) implementation.Repositories {
	q := idQuerier{q: base}
	return implementation.Repositories{
		Funding:         NewFundingRepository(q),
		Implementations: NewImplementationRepository(q),
		BudgetLines:     NewBudgetProxyRepository(q),
		Acquisitions:    NewAcquisitionProxyRepository(q),
		Activities:      NewActivityProxyRepository(q),
		Contracts:       NewContractRepository(q),
		ContractLines:   NewContractLineRepository(q),
		Documents:       NewDocumentRepository(q),
		DocumentLines:   NewDocumentLineRepository(q),
		Settlements:     NewSettlementRepository(q),
		SettlementLines: NewSettlementLineRepository(q),
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos implementation.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(Repositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
