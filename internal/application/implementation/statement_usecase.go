package implementation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

// StatementUseCase situación completa de una implementación y sus exportaciones
// (hoja de cálculo y PDF de decontare).
type StatementUseCase struct {
	d           Deps
	engine      *Engine
	contracts   *ContractUseCase
	documents   *DocumentUseCase
	settlements *SettlementUseCase
	exporter    StatementExporter
	pdf         SettlementPDFGenerator
}

// NewStatementUseCase construye el caso de uso. exporter y pdf pueden ser nil si la
// exportación correspondiente no está disponible.
func NewStatementUseCase(d Deps, engine *Engine, exporter StatementExporter, pdf SettlementPDFGenerator) *StatementUseCase {
	return &StatementUseCase{
		d:           d,
		engine:      engine,
		contracts:   NewContractUseCase(d, engine),
		documents:   NewDocumentUseCase(d, engine),
		settlements: NewSettlementUseCase(d, engine),
		exporter:    exporter,
		pdf:         pdf,
	}
}

// Statement presupuesto con acumulados, contratos, documentos y decontări de la implementación.
// Las cuatro lecturas son independientes y se hacen en paralelo fuera de transacción.
func (uc *StatementUseCase) Statement(ctx context.Context, implementationID string) (*dto.StatementResponse, error) {
	r := uc.d.Repos
	sc, err := loadScope(ctx, r, implementationID)
	if err != nil {
		return nil, err
	}

	var (
		budget      []dto.BudgetLineResponse
		contracts   *dto.ContractListResponse
		documents   *dto.DocumentListResponse
		settlements *dto.SettlementListResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if budget, err = budgetLines(gctx, r, uc.engine, implementationID); err != nil {
			return fmt.Errorf("situación: presupuesto: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if contracts, err = uc.contracts.List(gctx, repository.ContractFilter{ImplementationID: implementationID}); err != nil {
			return fmt.Errorf("situación: contratos: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if documents, err = uc.documents.List(gctx, repository.DocumentFilter{ImplementationID: implementationID}); err != nil {
			return fmt.Errorf("situación: documentos: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if settlements, err = uc.settlements.List(gctx, repository.SettlementFilter{ImplementationID: implementationID}); err != nil {
			return fmt.Errorf("situación: decontări: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.StatementResponse{
		Implementation: *toImplementationResponse(sc.impl, sc.funding),
		BudgetLines:    budget,
		Contracts:      contracts.Items,
		Documents:      documents.Items,
		Settlements:    settlements.Items,
	}, nil
}

// ExportXLSX genera la hoja de cálculo de la situación y el nombre de archivo sugerido.
func (uc *StatementUseCase) ExportXLSX(ctx context.Context, implementationID string) ([]byte, string, error) {
	if uc.exporter == nil {
		return nil, "", fmt.Errorf("%w: exportación a hoja de cálculo no configurada", domain.ErrInvalidInput)
	}
	st, err := uc.Statement(ctx, implementationID)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.exporter.ExportStatement(ctx, st)
	if err != nil {
		return nil, "", fmt.Errorf("exportación: %w", err)
	}
	uc.d.logger().Info().Str("implementation_id", implementationID).Int("bytes", len(data)).Msg("situación exportada")
	return data, fileName(st.Implementation.Code, "BazaProiect", "xlsx"), nil
}

// SettlementPDF genera el PDF de una decontare.
func (uc *StatementUseCase) SettlementPDF(ctx context.Context, settlementID string) ([]byte, string, error) {
	if uc.pdf == nil {
		return nil, "", fmt.Errorf("%w: generación de PDF no configurada", domain.ErrInvalidInput)
	}
	s, err := uc.settlements.GetByID(ctx, settlementID)
	if err != nil {
		return nil, "", err
	}
	sc, err := loadScope(ctx, uc.d.Repos, s.ImplementationID)
	if err != nil {
		return nil, "", err
	}
	impl := toImplementationResponse(sc.impl, sc.funding)
	data, err := uc.pdf.GenerateSettlementPDF(ctx, impl, s)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return data, fileName(impl.Code, "Decont_"+s.Number, "pdf"), nil
}

// fileName "<código>_<nombre>.<ext>" sin caracteres problemáticos en cabeceras HTTP.
func fileName(code, name, ext string) string {
	base := name
	if code != "" {
		base = code + "_" + name
	}
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ' ', ':', ';':
			return '_'
		}
		return r
	}, base)
	return base + "." + ext
}
