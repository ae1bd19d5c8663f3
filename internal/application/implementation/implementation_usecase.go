package implementation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/execution"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

// ImplementationUseCase alta y mantenimiento de implementaciones, sincronización con la
// financiación y consultas del presupuesto con sus acumulados.
type ImplementationUseCase struct {
	d      Deps
	engine *Engine
}

// NewImplementationUseCase construye el caso de uso.
func NewImplementationUseCase(d Deps, engine *Engine) *ImplementationUseCase {
	return &ImplementationUseCase{d: d, engine: engine}
}

// Create crea la implementación de un proyecto de financiación contratado (una por proyecto).
func (uc *ImplementationUseCase) Create(ctx context.Context, in dto.CreateImplementationRequest) (*dto.ImplementationResponse, error) {
	if err := requireRef(in.FundingProjectID, "proyecto de financiación"); err != nil {
		return nil, err
	}
	start, err := parseOptionalDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}

	var impl *entity.Implementation
	var funding *entity.FundingProject
	err = uc.d.Tx.Run(ctx, func(r Repositories) error {
		funding, err = r.Funding.GetProject(ctx, in.FundingProjectID)
		if err != nil {
			return fmt.Errorf("cargar financiación: %w", err)
		}
		if funding == nil {
			return domain.NewValidationError(domain.CodeRequiredReference,
				"el proyecto de financiación %s no existe", in.FundingProjectID)
		}
		if funding.Status != entity.FundingStatusContracted {
			return domain.NewValidationError(domain.CodeFundingNotContracted,
				"la implementación solo puede crearse para proyectos contratados (proyecto %s en estado %q)", funding.Code, funding.Status)
		}
		existing, err := r.Implementations.GetByFundingProject(ctx, funding.ID)
		if err != nil {
			return fmt.Errorf("buscar implementación existente: %w", err)
		}
		if existing != nil {
			return domain.NewValidationError(domain.CodeDuplicateReference,
				"ya existe una implementación para el proyecto %s", funding.Code)
		}

		currency := in.Currency
		if currency == "" {
			currency = uc.d.Defaults.Currency
		}
		if start == nil {
			start = funding.SigningDate
		}
		if end == nil {
			end = funding.EndDate
		}
		now := time.Now()
		impl = &entity.Implementation{
			ID:                uuid.New().String(),
			FundingProjectID:  funding.ID,
			ResponsibleUserID: in.ResponsibleUserID,
			StartDate:         start,
			EndDate:           end,
			Description:       in.Description,
			State:             entity.ImplementationStateDraft,
			Currency:          entity.NewCurrency(currency),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return r.Implementations.Create(ctx, impl)
	})
	if err != nil {
		return nil, err
	}
	uc.d.logger().Info().Str("implementation_id", impl.ID).Str("funding_project_id", impl.FundingProjectID).Msg("implementación creada")
	return toImplementationResponse(impl, funding), nil
}

// GetByID devuelve la implementación con los datos reflejados de la financiación.
func (uc *ImplementationUseCase) GetByID(ctx context.Context, id string) (*dto.ImplementationResponse, error) {
	sc, err := loadScope(ctx, uc.d.Repos, id)
	if err != nil {
		return nil, err
	}
	return toImplementationResponse(sc.impl, sc.funding), nil
}

// List lista implementaciones, opcionalmente por estado.
func (uc *ImplementationUseCase) List(ctx context.Context, state string, limit, offset int) (*dto.ImplementationListResponse, error) {
	list, err := uc.d.Repos.Implementations.List(ctx, repository.ImplementationFilter{State: state, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ImplementationResponse, 0, len(list))
	for _, impl := range list {
		funding, err := uc.d.Repos.Funding.GetProject(ctx, impl.FundingProjectID)
		if err != nil {
			return nil, err
		}
		items = append(items, *toImplementationResponse(impl, funding))
	}
	return &dto.ImplementationListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// Update modifica fechas, descripción, responsable o estado. El proyecto de financiación no cambia.
func (uc *ImplementationUseCase) Update(ctx context.Context, id string, in dto.UpdateImplementationRequest) (*dto.ImplementationResponse, error) {
	var impl *entity.Implementation
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		var err error
		impl, err = lockImplementation(ctx, r, id)
		if err != nil {
			return err
		}
		if in.FundingProjectID != nil && *in.FundingProjectID != impl.FundingProjectID {
			return domain.NewValidationError(domain.CodeImmutableField,
				"no se puede cambiar el proyecto de financiación de la implementación %s", impl.ID)
		}
		if in.ResponsibleUserID != nil {
			impl.ResponsibleUserID = *in.ResponsibleUserID
		}
		if in.StartDate != nil {
			if impl.StartDate, err = parseOptionalDate("start_date", *in.StartDate); err != nil {
				return err
			}
		}
		if in.EndDate != nil {
			if impl.EndDate, err = parseOptionalDate("end_date", *in.EndDate); err != nil {
				return err
			}
		}
		if in.Description != nil {
			impl.Description = *in.Description
		}
		if in.State != nil {
			if !entity.ValidImplementationState(*in.State) {
				return domain.NewValidationError(domain.CodeInvalidInput, "estado de implementación desconocido: %q", *in.State)
			}
			impl.State = *in.State
		}
		impl.UpdatedAt = time.Now()
		return r.Implementations.Update(ctx, impl)
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, impl.ID)
}

// SyncBudget crea las líneas de presupuesto que faltan respecto a la financiación.
// Nunca borra: las líneas retiradas del presupuesto maestro se conservan.
func (uc *ImplementationUseCase) SyncBudget(ctx context.Context, id string) (*dto.SyncResponse, error) {
	out := &dto.SyncResponse{ImplementationID: id, CreatedIDs: []string{}}
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		impl, err := lockImplementation(ctx, r, id)
		if err != nil {
			return err
		}
		masters, err := r.Funding.ListBudgetLines(ctx, impl.FundingProjectID)
		if err != nil {
			return fmt.Errorf("listar presupuesto de la financiación: %w", err)
		}
		existing, err := r.BudgetLines.ListByImplementation(ctx, impl.ID)
		if err != nil {
			return fmt.Errorf("listar líneas de presupuesto: %w", err)
		}
		synced := make(map[string]bool, len(existing))
		for _, p := range existing {
			synced[p.FundingBudgetLineID] = true
		}
		now := time.Now()
		for _, m := range masters {
			if synced[m.ID] {
				continue
			}
			p := &entity.BudgetProxyLine{
				ID:                  uuid.New().String(),
				ImplementationID:    impl.ID,
				FundingBudgetLineID: m.ID,
				CreatedAt:           now,
			}
			if err := r.BudgetLines.Create(ctx, p); err != nil {
				return err
			}
			out.CreatedIDs = append(out.CreatedIDs, p.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Created = len(out.CreatedIDs)
	uc.d.logger().Info().Str("implementation_id", id).Int("created", out.Created).Msg("presupuesto sincronizado")
	return out, nil
}

// SyncAcquisitions crea las adquisiciones que faltan respecto a la financiación.
func (uc *ImplementationUseCase) SyncAcquisitions(ctx context.Context, id string) (*dto.SyncResponse, error) {
	out := &dto.SyncResponse{ImplementationID: id, CreatedIDs: []string{}}
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		impl, err := lockImplementation(ctx, r, id)
		if err != nil {
			return err
		}
		masters, err := r.Funding.ListAcquisitions(ctx, impl.FundingProjectID)
		if err != nil {
			return fmt.Errorf("listar adquisiciones de la financiación: %w", err)
		}
		existing, err := r.Acquisitions.ListByImplementation(ctx, impl.ID)
		if err != nil {
			return err
		}
		synced := make(map[string]bool, len(existing))
		for _, a := range existing {
			synced[a.FundingAcquisitionID] = true
		}
		for _, m := range masters {
			if synced[m.ID] {
				continue
			}
			a := &entity.AcquisitionProxyLine{ID: uuid.New().String(), ImplementationID: impl.ID, FundingAcquisitionID: m.ID, CreatedAt: time.Now()}
			if err := r.Acquisitions.Create(ctx, a); err != nil {
				return err
			}
			out.CreatedIDs = append(out.CreatedIDs, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Created = len(out.CreatedIDs)
	uc.d.logger().Info().Str("implementation_id", id).Int("created", out.Created).Msg("adquisiciones sincronizadas")
	return out, nil
}

// SyncActivities crea las actividades que faltan respecto a la financiación.
func (uc *ImplementationUseCase) SyncActivities(ctx context.Context, id string) (*dto.SyncResponse, error) {
	out := &dto.SyncResponse{ImplementationID: id, CreatedIDs: []string{}}
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		impl, err := lockImplementation(ctx, r, id)
		if err != nil {
			return err
		}
		masters, err := r.Funding.ListActivities(ctx, impl.FundingProjectID)
		if err != nil {
			return fmt.Errorf("listar actividades de la financiación: %w", err)
		}
		existing, err := r.Activities.ListByImplementation(ctx, impl.ID)
		if err != nil {
			return err
		}
		synced := make(map[string]bool, len(existing))
		for _, a := range existing {
			synced[a.FundingActivityID] = true
		}
		for _, m := range masters {
			if synced[m.ID] {
				continue
			}
			a := &entity.ActivityProxyLine{ID: uuid.New().String(), ImplementationID: impl.ID, FundingActivityID: m.ID, CreatedAt: time.Now()}
			if err := r.Activities.Create(ctx, a); err != nil {
				return err
			}
			out.CreatedIDs = append(out.CreatedIDs, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Created = len(out.CreatedIDs)
	uc.d.logger().Info().Str("implementation_id", id).Int("created", out.Created).Msg("actividades sincronizadas")
	return out, nil
}

// Budget devuelve todas las líneas de presupuesto de la implementación con sus acumulados.
func (uc *ImplementationUseCase) Budget(ctx context.Context, id string) ([]dto.BudgetLineResponse, error) {
	return budgetLines(ctx, uc.d.Repos, uc.engine, id)
}

func budgetLines(ctx context.Context, r Repositories, engine *Engine, implementationID string) ([]dto.BudgetLineResponse, error) {
	impl, err := r.Implementations.GetByID(ctx, implementationID)
	if err != nil {
		return nil, err
	}
	if impl == nil {
		return nil, domain.ErrNotFound
	}
	proxies, err := r.BudgetLines.ListByImplementation(ctx, implementationID)
	if err != nil {
		return nil, err
	}
	rollups, masters, err := engine.BudgetRollups(ctx, r, proxies)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BudgetLineResponse, 0, len(proxies))
	for _, p := range proxies {
		out = append(out, toBudgetLineResponse(p, masters[p.FundingBudgetLineID], rollups[p.ID]))
	}
	return out, nil
}

// BudgetLineDetail detalle de una línea de presupuesto: acumulados y líneas imputadas.
func (uc *ImplementationUseCase) BudgetLineDetail(ctx context.Context, budgetProxyLineID string) (*dto.BudgetLineDetailResponse, error) {
	r := uc.d.Repos
	proxy, err := r.BudgetLines.GetByID(ctx, budgetProxyLineID)
	if err != nil {
		return nil, err
	}
	if proxy == nil {
		return nil, domain.ErrNotFound
	}
	rollups, masters, err := uc.engine.BudgetRollups(ctx, r, []*entity.BudgetProxyLine{proxy})
	if err != nil {
		return nil, err
	}
	master := masters[proxy.FundingBudgetLineID]
	out := &dto.BudgetLineDetailResponse{
		Line:            toBudgetLineResponse(proxy, master, rollups[proxy.ID]),
		ContractLines:   []dto.ContractLineResponse{},
		DocumentLines:   []dto.DocumentLineResponse{},
		SettlementLines: []dto.SettlementLineResponse{},
	}
	impls := []string{proxy.ImplementationID}
	ids := []string{proxy.ID}
	label := budgetLineLabel(master)

	contractLines, err := r.ContractLines.ListByBudgetProxyLines(ctx, impls, ids)
	if err != nil {
		return nil, err
	}
	for _, cl := range contractLines {
		out.ContractLines = append(out.ContractLines, toContractLineResponse(cl, label))
	}

	docRefs, err := r.DocumentLines.ListByBudgetProxyLines(ctx, impls, ids)
	if err != nil {
		return nil, err
	}
	labels, _, err := documentLineLabels(ctx, r, docRefs)
	if err != nil {
		return nil, err
	}
	for _, ref := range docRefs {
		out.DocumentLines = append(out.DocumentLines, toDocumentLineResponse(ref.Line, ref.BudgetProxyLineID, labels[ref.Line.ID]))
	}

	settlementRefs, err := r.SettlementLines.ListByBudgetProxyLines(ctx, impls, ids)
	if err != nil {
		return nil, err
	}
	lines := make([]*entity.SettlementLine, 0, len(settlementRefs))
	for _, ref := range settlementRefs {
		lines = append(lines, ref.Line)
	}
	panels, pc, err := uc.engine.SettlementPanels(ctx, r, proxy.ImplementationID, lines)
	if err != nil {
		return nil, err
	}
	views, err := settlementLineViews(ctx, r, pc)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		out.SettlementLines = append(out.SettlementLines, toSettlementLineResponse(l, views[l.DocumentLineID], panels[l.ID], pc.NonReimbCoef))
	}
	return out, nil
}

// Acquisitions adquisiciones de la implementación con lo contratado sobre cada una.
func (uc *ImplementationUseCase) Acquisitions(ctx context.Context, id string) ([]dto.AcquisitionLineResponse, error) {
	r := uc.d.Repos
	sc, err := loadScope(ctx, r, id)
	if err != nil {
		return nil, err
	}
	proxies, err := r.Acquisitions.ListByImplementation(ctx, id)
	if err != nil {
		return nil, err
	}
	masters, err := r.Funding.ListAcquisitions(ctx, sc.impl.FundingProjectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Acquisition, len(masters))
	for _, m := range masters {
		byID[m.ID] = m
	}
	contracts, lines, err := contractsWithLines(ctx, r, id)
	if err != nil {
		return nil, err
	}
	contracted := execution.AcquisitionContracted(contracts, lines)

	out := make([]dto.AcquisitionLineResponse, 0, len(proxies))
	for _, p := range proxies {
		t, ok := contracted[p.FundingAcquisitionID]
		if !ok {
			t = execution.ZeroContractTotals()
		}
		item := dto.AcquisitionLineResponse{
			ID:                   p.ID,
			FundingAcquisitionID: p.FundingAcquisitionID,
			PlannedBase:          decimal.Zero,
			PlannedVAT:           decimal.Zero,
			ContractedBase:       t.Base,
			ContractedVAT:        t.VAT,
			ContractedTotal:      t.Total,
		}
		if m := byID[p.FundingAcquisitionID]; m != nil {
			item.Sequence = m.Sequence
			item.Code = m.Code
			item.Name = m.Name
			item.DateStart = formatOptionalDate(m.DateStart)
			item.DateEnd = formatOptionalDate(m.DateEnd)
			item.PlannedBase = m.Base
			item.PlannedVAT = m.VAT
		}
		out = append(out, item)
	}
	return out, nil
}

// Activities actividades de la implementación con las fechas extremas de sus contratos.
func (uc *ImplementationUseCase) Activities(ctx context.Context, id string) ([]dto.ActivityLineResponse, error) {
	r := uc.d.Repos
	sc, err := loadScope(ctx, r, id)
	if err != nil {
		return nil, err
	}
	proxies, err := r.Activities.ListByImplementation(ctx, id)
	if err != nil {
		return nil, err
	}
	masters, err := r.Funding.ListActivities(ctx, sc.impl.FundingProjectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Activity, len(masters))
	for _, m := range masters {
		byID[m.ID] = m
	}
	contracts, err := r.Contracts.List(ctx, repository.ContractFilter{ImplementationID: id})
	if err != nil {
		return nil, err
	}
	bounds := execution.ActivityDateBounds(contracts)

	out := make([]dto.ActivityLineResponse, 0, len(proxies))
	for _, p := range proxies {
		b := bounds[p.FundingActivityID]
		item := dto.ActivityLineResponse{
			ID:                p.ID,
			FundingActivityID: p.FundingActivityID,
			ContractStart:     formatOptionalDate(b.Start),
			ContractEnd:       formatOptionalDate(b.End),
		}
		if m := byID[p.FundingActivityID]; m != nil {
			item.Sequence = m.Sequence
			item.Name = m.Name
			item.PlannedStart = formatOptionalDate(m.DateStart)
			item.PlannedEnd = formatOptionalDate(m.DateEnd)
		}
		out = append(out, item)
	}
	return out, nil
}

func contractsWithLines(ctx context.Context, r Repositories, implementationID string) ([]*entity.Contract, []*entity.ContractLine, error) {
	contracts, err := r.Contracts.List(ctx, repository.ContractFilter{ImplementationID: implementationID})
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(contracts))
	for _, c := range contracts {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return contracts, nil, nil
	}
	lines, err := r.ContractLines.ListByContracts(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return contracts, lines, nil
}
