package implementation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios que cuentan los barridos agrupados
// ──────────────────────────────────────────────────────────────────────────────

type countingContractLines struct {
	repository.ContractLineRepository
	scans int
}

func (c *countingContractLines) ListByBudgetProxyLines(ctx context.Context, implIDs, proxyIDs []string) ([]*entity.ContractLine, error) {
	c.scans++
	return c.ContractLineRepository.ListByBudgetProxyLines(ctx, implIDs, proxyIDs)
}

type countingDocumentLines struct {
	repository.DocumentLineRepository
	scans int
}

func (c *countingDocumentLines) ListByBudgetProxyLines(ctx context.Context, implIDs, proxyIDs []string) ([]entity.DocumentLineRef, error) {
	c.scans++
	return c.DocumentLineRepository.ListByBudgetProxyLines(ctx, implIDs, proxyIDs)
}

type countingSettlementLines struct {
	repository.SettlementLineRepository
	scans int
}

func (c *countingSettlementLines) ListByBudgetProxyLines(ctx context.Context, implIDs, proxyIDs []string) ([]entity.SettlementLineRef, error) {
	c.scans++
	return c.SettlementLineRepository.ListByBudgetProxyLines(ctx, implIDs, proxyIDs)
}

// ──────────────────────────────────────────────────────────────────────────────
// Acumulados
// ──────────────────────────────────────────────────────────────────────────────

func TestBudgetRollups_TresBarridosParaVariasLineas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)
	f.newContractLine(t, e.contractID, e.proxyC, "300")

	r := f.store.Repositories()
	cl := &countingContractLines{ContractLineRepository: r.ContractLines}
	dl := &countingDocumentLines{DocumentLineRepository: r.DocumentLines}
	sl := &countingSettlementLines{SettlementLineRepository: r.SettlementLines}
	r.ContractLines, r.DocumentLines, r.SettlementLines = cl, dl, sl

	proxies, err := r.BudgetLines.ListByImplementation(ctx, e.implID)
	require.NoError(t, err)
	require.Len(t, proxies, 2)

	rollups, masters, err := implementation.NewEngine(logger.Nop()).BudgetRollups(ctx, r, proxies)
	require.NoError(t, err)
	assert.Equal(t, 1, cl.scans, "líneas de contrato")
	assert.Equal(t, 1, dl.scans, "líneas de documento")
	assert.Equal(t, 1, sl.scans, "líneas de decontare")
	assert.Len(t, masters, 2)

	require.Contains(t, rollups, e.proxyB)
	require.Contains(t, rollups, e.proxyC)
	assertDec(t, "1452", rollups[e.proxyB].ContractTotal, "contrato B")
	assertDec(t, "1270.5", rollups[e.proxyB].DocumentsTotal, "documentos B")
	assertDec(t, "60.5", rollups[e.proxyB].Balance, "sold B")
	assertDec(t, "363", rollups[e.proxyC].ContractTotal, "contrato C")
	assertDec(t, "0", rollups[e.proxyC].DocumentsTotal, "documentos C")
}
