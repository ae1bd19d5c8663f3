package implementation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/execution"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

var contractLineFields = []execution.Field{
	execution.FieldContractLineBudget,
	execution.FieldContractLineAmount,
	execution.FieldContractLineContract,
}

// ContractUseCase contratos de la implementación y sus líneas imputadas al presupuesto.
type ContractUseCase struct {
	d      Deps
	engine *Engine
}

// NewContractUseCase construye el caso de uso.
func NewContractUseCase(d Deps, engine *Engine) *ContractUseCase {
	return &ContractUseCase{d: d, engine: engine}
}

// Create da de alta un contrato en la implementación.
func (uc *ContractUseCase) Create(ctx context.Context, implementationID string, in dto.CreateContractRequest) (*dto.ContractResponse, error) {
	date, err := parseDate("contract_date", in.Date)
	if err != nil {
		return nil, err
	}
	c := &entity.Contract{
		ID:            uuid.New().String(),
		Name:          in.Name,
		Number:        in.Number,
		Date:          date,
		Type:          in.Type,
		AwardState:    in.AwardState,
		ProcedureType: in.ProcedureType,
		SEAPNumber:    in.SEAPNumber,
		SupplierName:  in.SupplierName,
		ActivityID:    in.ActivityID,
		AcquisitionID: in.AcquisitionID,
	}
	if c.Type == "" {
		c.Type = entity.ContractTypeOther
	}
	if c.AwardState == "" {
		c.AwardState = entity.AwardStateDraft
	}
	if c.ProcedureType == "" {
		c.ProcedureType = entity.ProcedureDirect
	}
	if c.SEAPDate, err = parseOptionalDate("seap_date", in.SEAPDate); err != nil {
		return nil, err
	}
	if c.StartDate, err = parseOptionalDate("start_date", in.StartDate); err != nil {
		return nil, err
	}
	if c.EndDate, err = parseOptionalDate("end_date", in.EndDate); err != nil {
		return nil, err
	}

	err = uc.d.Tx.Run(ctx, func(r Repositories) error {
		impl, err := lockImplementation(ctx, r, implementationID)
		if err != nil {
			return err
		}
		if err := checkProcurementRefs(ctx, r, impl, c); err != nil {
			return err
		}
		now := time.Now()
		c.ImplementationID = impl.ID
		c.CreatedAt, c.UpdatedAt = now, now
		return r.Contracts.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	uc.d.logger().Info().Str("implementation_id", implementationID).Str("contract_id", c.ID).Msg("contrato creado")
	return toContractResponse(c, nil, nil), nil
}

// GetByID devuelve el contrato con sus líneas y totales.
func (uc *ContractUseCase) GetByID(ctx context.Context, id string) (*dto.ContractResponse, error) {
	r := uc.d.Repos
	c, err := r.Contracts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return contractResponse(ctx, r, c)
}

func contractResponse(ctx context.Context, r Repositories, c *entity.Contract) (*dto.ContractResponse, error) {
	lines, err := r.ContractLines.ListByContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	names, err := budgetLineNames(ctx, r, c.ImplementationID)
	if err != nil {
		return nil, err
	}
	return toContractResponse(c, lines, names), nil
}

// List contratos de una implementación filtrados por estado de adjudicación o texto.
func (uc *ContractUseCase) List(ctx context.Context, f repository.ContractFilter) (*dto.ContractListResponse, error) {
	r := uc.d.Repos
	list, err := r.Contracts.List(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	byContract := map[string][]*entity.ContractLine{}
	if len(ids) > 0 {
		lines, err := r.ContractLines.ListByContracts(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			byContract[l.ContractID] = append(byContract[l.ContractID], l)
		}
	}
	var names map[string]string
	if f.ImplementationID != "" {
		if names, err = budgetLineNames(ctx, r, f.ImplementationID); err != nil {
			return nil, err
		}
	}
	items := make([]dto.ContractResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *toContractResponse(c, byContract[c.ID], names))
	}
	return &dto.ContractListResponse{Items: items, Page: dto.PageResponse{Limit: f.Limit, Offset: f.Offset}}, nil
}

// Update modifica la cabecera del contrato.
func (uc *ContractUseCase) Update(ctx context.Context, id string, in dto.UpdateContractRequest) (*dto.ContractResponse, error) {
	var out *dto.ContractResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		c, impl, err := lockContract(ctx, r, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Number != nil {
			c.Number = *in.Number
		}
		if in.Date != nil {
			if c.Date, err = parseDate("contract_date", *in.Date); err != nil {
				return err
			}
		}
		if in.Type != nil {
			c.Type = *in.Type
		}
		if in.AwardState != nil {
			c.AwardState = *in.AwardState
		}
		if in.ProcedureType != nil {
			c.ProcedureType = *in.ProcedureType
		}
		if in.SEAPNumber != nil {
			c.SEAPNumber = *in.SEAPNumber
		}
		if in.SEAPDate != nil {
			if c.SEAPDate, err = parseOptionalDate("seap_date", *in.SEAPDate); err != nil {
				return err
			}
		}
		if in.SupplierName != nil {
			c.SupplierName = *in.SupplierName
		}
		if in.StartDate != nil {
			if c.StartDate, err = parseOptionalDate("start_date", *in.StartDate); err != nil {
				return err
			}
		}
		if in.EndDate != nil {
			if c.EndDate, err = parseOptionalDate("end_date", *in.EndDate); err != nil {
				return err
			}
		}
		if in.ActivityID != nil {
			c.ActivityID = *in.ActivityID
		}
		if in.AcquisitionID != nil {
			c.AcquisitionID = *in.AcquisitionID
		}
		if err := checkProcurementRefs(ctx, r, impl, c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now()
		if err := r.Contracts.Update(ctx, c); err != nil {
			return err
		}
		out, err = contractResponse(ctx, r, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete borra un contrato sin líneas ni documentos.
func (uc *ContractUseCase) Delete(ctx context.Context, id string) error {
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		c, _, err := lockContract(ctx, r, id)
		if err != nil {
			return err
		}
		n, err := r.ContractLines.CountByContract(ctx, c.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return hasDependents("el contrato", c.DisplayName(), n, "líneas")
		}
		docs, err := r.Documents.List(ctx, repository.DocumentFilter{ImplementationID: c.ImplementationID, ContractID: c.ID})
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return hasDependents("el contrato", c.DisplayName(), len(docs), "documentos")
		}
		return r.Contracts.Delete(ctx, c.ID)
	})
	if err != nil {
		return err
	}
	uc.d.logger().Info().Str("contract_id", id).Msg("contrato eliminado")
	return nil
}

// CreateLine imputa una parte del contrato a una línea de presupuesto de la misma implementación.
func (uc *ContractUseCase) CreateLine(ctx context.Context, contractID string, in dto.CreateContractLineRequest) (*dto.ContractLineMutationResponse, error) {
	if err := requireRef(in.BudgetProxyLineID, "línea de presupuesto"); err != nil {
		return nil, err
	}
	rate, err := rateOrDefault(in.VATRate, uc.d.Defaults.VATRate)
	if err != nil {
		return nil, err
	}

	var out *dto.ContractLineMutationResponse
	err = uc.d.Tx.Run(ctx, func(r Repositories) error {
		c, impl, err := lockContract(ctx, r, contractID)
		if err != nil {
			return err
		}
		proxy, err := checkBudgetProxy(ctx, r, impl, in.BudgetProxyLineID)
		if err != nil {
			return err
		}
		if err := checkUniqueContractLine(ctx, r, c, proxy.ID, ""); err != nil {
			return err
		}
		now := time.Now()
		l := &entity.ContractLine{
			ID:                uuid.New().String(),
			ContractID:        c.ID,
			BudgetProxyLineID: proxy.ID,
			Name:              in.Name,
			VATRate:           rate,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		l.Amount.SetBase(in.BaseAmount, rate, impl.Currency)
		if in.VATAmount != nil {
			l.Amount.SetVAT(*in.VATAmount)
		}
		if err := r.ContractLines.Create(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, l, Change{
			ImplementationID:   impl.ID,
			Fields:             contractLineFields,
			BudgetProxyLineIDs: []string{proxy.ID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLine modifica la línea de contrato: primero base y tasa, después un IVA explícito.
func (uc *ContractUseCase) UpdateLine(ctx context.Context, id string, in dto.UpdateContractLineRequest) (*dto.ContractLineMutationResponse, error) {
	var out *dto.ContractLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, c, impl, err := lockContractLine(ctx, r, id)
		if err != nil {
			return err
		}
		ch := Change{ImplementationID: impl.ID, BudgetProxyLineIDs: []string{l.BudgetProxyLineID}}

		if in.BudgetProxyLineID != nil && *in.BudgetProxyLineID != l.BudgetProxyLineID {
			if err := requireRef(*in.BudgetProxyLineID, "línea de presupuesto"); err != nil {
				return err
			}
			proxy, err := checkBudgetProxy(ctx, r, impl, *in.BudgetProxyLineID)
			if err != nil {
				return err
			}
			if err := checkUniqueContractLine(ctx, r, c, proxy.ID, l.ID); err != nil {
				return err
			}
			l.BudgetProxyLineID = proxy.ID
			ch.BudgetProxyLineIDs = append(ch.BudgetProxyLineIDs, proxy.ID)
			ch.Fields = append(ch.Fields, execution.FieldContractLineBudget)
		}
		if in.Name != nil {
			l.Name = *in.Name
		}
		rateChanged := false
		if in.VATRate != nil {
			if err := entity.ValidateVATRate(*in.VATRate); err != nil {
				return err
			}
			rateChanged = !in.VATRate.Equal(l.VATRate)
			l.VATRate = *in.VATRate
		}
		if in.BaseAmount != nil || in.VATAmount != nil || rateChanged {
			entity.AmountChange{Base: in.BaseAmount, VAT: in.VATAmount}.Apply(&l.Amount, l.VATRate, rateChanged, impl.Currency)
			ch.Fields = append(ch.Fields, execution.FieldContractLineAmount)
		}
		l.UpdatedAt = time.Now()
		if err := r.ContractLines.Update(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, l, ch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResetLineVAT vuelve el IVA de la línea a modo automático.
func (uc *ContractUseCase) ResetLineVAT(ctx context.Context, id string) (*dto.ContractLineMutationResponse, error) {
	var out *dto.ContractLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, _, impl, err := lockContractLine(ctx, r, id)
		if err != nil {
			return err
		}
		l.Amount.ResetAuto(l.VATRate, impl.Currency)
		l.UpdatedAt = time.Now()
		if err := r.ContractLines.Update(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, l, Change{
			ImplementationID:   impl.ID,
			Fields:             []execution.Field{execution.FieldContractLineAmount},
			BudgetProxyLineIDs: []string{l.BudgetProxyLineID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteLine borra una línea de contrato que no está referenciada por líneas de documento.
func (uc *ContractUseCase) DeleteLine(ctx context.Context, id string) (*dto.RecalculatedResponse, error) {
	var out *dto.RecalculatedResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, _, impl, err := lockContractLine(ctx, r, id)
		if err != nil {
			return err
		}
		n, err := r.DocumentLines.CountByContractLine(ctx, l.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return hasDependents("la línea de contrato", l.DisplayName(), n, "líneas de documento")
		}
		if err := r.ContractLines.Delete(ctx, l.ID); err != nil {
			return err
		}
		rc, err := uc.engine.Recalculate(ctx, r, Change{
			ImplementationID:   impl.ID,
			Fields:             contractLineFields,
			BudgetProxyLineIDs: []string{l.BudgetProxyLineID},
		})
		if err != nil {
			return err
		}
		out = toRecalculatedResponse(rc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *ContractUseCase) lineMutation(ctx context.Context, r Repositories, l *entity.ContractLine, ch Change) (*dto.ContractLineMutationResponse, error) {
	rc, err := uc.engine.Recalculate(ctx, r, ch)
	if err != nil {
		return nil, err
	}
	names, err := budgetLineNames(ctx, r, ch.ImplementationID)
	if err != nil {
		return nil, err
	}
	return &dto.ContractLineMutationResponse{
		Line:         toContractLineResponse(l, names[l.BudgetProxyLineID]),
		Recalculated: toRecalculatedResponse(rc),
	}, nil
}

// lockContract carga el contrato y bloquea su implementación.
func lockContract(ctx context.Context, r Repositories, id string) (*entity.Contract, *entity.Implementation, error) {
	c, err := r.Contracts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar contrato: %w", err)
	}
	if c == nil {
		return nil, nil, domain.ErrNotFound
	}
	impl, err := lockImplementation(ctx, r, c.ImplementationID)
	if err != nil {
		return nil, nil, err
	}
	return c, impl, nil
}

func lockContractLine(ctx context.Context, r Repositories, id string) (*entity.ContractLine, *entity.Contract, *entity.Implementation, error) {
	l, err := r.ContractLines.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cargar línea de contrato: %w", err)
	}
	if l == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	c, impl, err := lockContract(ctx, r, l.ContractID)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, c, impl, nil
}

// checkBudgetProxy exige que la línea de presupuesto exista y sea de la misma implementación.
func checkBudgetProxy(ctx context.Context, r Repositories, impl *entity.Implementation, id string) (*entity.BudgetProxyLine, error) {
	proxy, err := r.BudgetLines.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cargar línea de presupuesto: %w", err)
	}
	if proxy == nil {
		return nil, domain.NewValidationError(domain.CodeRequiredReference, "la línea de presupuesto %s no existe", id)
	}
	if proxy.ImplementationID != impl.ID {
		return nil, domain.NewValidationError(domain.CodeCrossImplementation,
			"la línea de presupuesto %s pertenece a otra implementación (%s, se esperaba %s)", id, proxy.ImplementationID, impl.ID)
	}
	return proxy, nil
}

func checkUniqueContractLine(ctx context.Context, r Repositories, c *entity.Contract, proxyID, selfID string) error {
	existing, err := r.ContractLines.GetByContractAndBudget(ctx, c.ID, proxyID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return domain.NewValidationError(domain.CodeDuplicateReference,
			"el contrato %s ya tiene una línea para la línea de presupuesto %s", c.DisplayName(), proxyID)
	}
	return nil
}

// checkProcurementRefs la actividad y la adquisición, si se indican, deben ser del proyecto financiado.
func checkProcurementRefs(ctx context.Context, r Repositories, impl *entity.Implementation, c *entity.Contract) error {
	if c.ActivityID != "" {
		a, err := r.Funding.GetActivity(ctx, c.ActivityID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.NewValidationError(domain.CodeRequiredReference, "la actividad %s no existe", c.ActivityID)
		}
		if a.FundingProjectID != impl.FundingProjectID {
			return domain.NewValidationError(domain.CodeCrossImplementation,
				"la actividad %s no pertenece al proyecto de la implementación %s", c.ActivityID, impl.ID)
		}
	}
	if c.AcquisitionID != "" {
		a, err := r.Funding.GetAcquisition(ctx, c.AcquisitionID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.NewValidationError(domain.CodeRequiredReference, "la adquisición %s no existe", c.AcquisitionID)
		}
		if a.FundingProjectID != impl.FundingProjectID {
			return domain.NewValidationError(domain.CodeCrossImplementation,
				"la adquisición %s no pertenece al proyecto de la implementación %s", c.AcquisitionID, impl.ID)
		}
	}
	return nil
}
