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

var settlementLineFields = []execution.Field{
	execution.FieldSettlementLineDoc,
	execution.FieldSettlementLineAmount,
	execution.FieldSettlementLineHeader,
}

// SettlementUseCase decontări (solicitudes de reembolso) y sus líneas, con el control frente
// a la parte no reembolsable y los paneles de documento y presupuesto.
type SettlementUseCase struct {
	d      Deps
	engine *Engine
}

// NewSettlementUseCase construye el caso de uso.
func NewSettlementUseCase(d Deps, engine *Engine) *SettlementUseCase {
	return &SettlementUseCase{d: d, engine: engine}
}

// Create da de alta una decontare en la implementación.
func (uc *SettlementUseCase) Create(ctx context.Context, implementationID string, in dto.CreateSettlementRequest) (*dto.SettlementResponse, error) {
	date, err := parseDate("settlement_date", in.Date)
	if err != nil {
		return nil, err
	}
	s := &entity.Settlement{ID: uuid.New().String(), Number: in.Number, Date: date, Notes: in.Notes}

	var out *dto.SettlementResponse
	err = uc.d.Tx.Run(ctx, func(r Repositories) error {
		impl, err := lockImplementation(ctx, r, implementationID)
		if err != nil {
			return err
		}
		now := time.Now()
		s.ImplementationID = impl.ID
		s.CreatedAt, s.UpdatedAt = now, now
		if err := r.Settlements.Create(ctx, s); err != nil {
			return err
		}
		out, err = uc.settlementResponse(ctx, r, s)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.d.logger().Info().Str("implementation_id", implementationID).Str("settlement_id", s.ID).Msg("decontare creada")
	return out, nil
}

// GetByID devuelve la decontare con sus líneas y los paneles de cada una.
func (uc *SettlementUseCase) GetByID(ctx context.Context, id string) (*dto.SettlementResponse, error) {
	r := uc.d.Repos
	s, err := r.Settlements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return uc.settlementResponse(ctx, r, s)
}

func (uc *SettlementUseCase) settlementResponse(ctx context.Context, r Repositories, s *entity.Settlement) (*dto.SettlementResponse, error) {
	sc, err := loadScope(ctx, r, s.ImplementationID)
	if err != nil {
		return nil, err
	}
	lines, err := r.SettlementLines.ListBySettlement(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	panels, pc, err := uc.engine.SettlementPanels(ctx, r, s.ImplementationID, lines)
	if err != nil {
		return nil, err
	}
	views, err := settlementLineViews(ctx, r, pc)
	if err != nil {
		return nil, err
	}
	totals := entity.SumSettlementLines(lines)
	out := &dto.SettlementResponse{
		ID:                  s.ID,
		ImplementationID:    s.ImplementationID,
		DisplayName:         s.DisplayName(),
		Number:              s.Number,
		Date:                formatDate(s.Date),
		Notes:               s.Notes,
		AportValoare:        decimal.Zero,
		AmountEligBaseTotal: totals.EligibleBase,
		AmountEligVATTotal:  totals.EligibleVAT,
		AmountTotal:         totals.Total,
		Lines:               make([]dto.SettlementLineResponse, 0, len(lines)),
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
	if sc.funding != nil {
		out.AportValoare = sc.funding.ContributionValue
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, toSettlementLineResponse(l, views[l.DocumentLineID], panels[l.ID], pc.NonReimbCoef))
	}
	return out, nil
}

// List decontări de una implementación.
func (uc *SettlementUseCase) List(ctx context.Context, f repository.SettlementFilter) (*dto.SettlementListResponse, error) {
	r := uc.d.Repos
	list, err := r.Settlements.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SettlementResponse, 0, len(list))
	for _, s := range list {
		resp, err := uc.settlementResponse(ctx, r, s)
		if err != nil {
			return nil, err
		}
		items = append(items, *resp)
	}
	return &dto.SettlementListResponse{Items: items, Page: dto.PageResponse{Limit: f.Limit, Offset: f.Offset}}, nil
}

// Update modifica número, fecha o notas de la decontare.
func (uc *SettlementUseCase) Update(ctx context.Context, id string, in dto.UpdateSettlementRequest) (*dto.SettlementResponse, error) {
	var out *dto.SettlementResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		s, _, err := lockSettlement(ctx, r, id)
		if err != nil {
			return err
		}
		if in.Number != nil {
			s.Number = *in.Number
		}
		if in.Date != nil {
			if s.Date, err = parseDate("settlement_date", *in.Date); err != nil {
				return err
			}
		}
		if in.Notes != nil {
			s.Notes = *in.Notes
		}
		s.UpdatedAt = time.Now()
		if err := r.Settlements.Update(ctx, s); err != nil {
			return err
		}
		out, err = uc.settlementResponse(ctx, r, s)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete borra una decontare sin líneas.
func (uc *SettlementUseCase) Delete(ctx context.Context, id string) error {
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		s, _, err := lockSettlement(ctx, r, id)
		if err != nil {
			return err
		}
		n, err := r.SettlementLines.CountBySettlement(ctx, s.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return hasDependents("la decontare", s.DisplayName(), n, "líneas")
		}
		return r.Settlements.Delete(ctx, s.ID)
	})
	if err != nil {
		return err
	}
	uc.d.logger().Info().Str("settlement_id", id).Msg("decontare eliminada")
	return nil
}

// Propose importes que se proponen al elegir una línea de documento: lo pendiente del panel
// de documento con el IVA en automático.
func (uc *SettlementUseCase) Propose(ctx context.Context, settlementID, documentLineID string) (*dto.SettlementProposalResponse, error) {
	if err := requireRef(documentLineID, "línea de documento"); err != nil {
		return nil, err
	}
	r := uc.d.Repos
	s, err := r.Settlements.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	ref, err := checkDocumentLineRef(ctx, r, s.ImplementationID, documentLineID)
	if err != nil {
		return nil, err
	}
	panels, _, err := uc.engine.ProposalPanels(ctx, r, s.ImplementationID, *ref)
	if err != nil {
		return nil, err
	}
	amount := execution.ProposeSettlementAmount(panels.Document)
	return &dto.SettlementProposalResponse{
		DocumentLineID:           documentLineID,
		VATRate:                  ref.Line.VATRate,
		EligBase:                 amount.Base,
		EligVAT:                  amount.VAT,
		EligVATManual:            amount.VATManual,
		SettlementPanelsResponse: toPanelsResponse("", panels),
	}, nil
}

// CreateLine solicita un importe sobre una línea de documento. Sin importes se rellena con lo
// pendiente de la línea de documento; sin tasa se toma la de la línea de documento.
func (uc *SettlementUseCase) CreateLine(ctx context.Context, settlementID string, in dto.CreateSettlementLineRequest) (*dto.SettlementLineMutationResponse, error) {
	if err := requireRef(in.DocumentLineID, "línea de documento"); err != nil {
		return nil, err
	}
	if in.VATRate != nil {
		if err := entity.ValidateVATRate(*in.VATRate); err != nil {
			return nil, err
		}
	}

	var out *dto.SettlementLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		s, impl, err := lockSettlement(ctx, r, settlementID)
		if err != nil {
			return err
		}
		ref, err := checkDocumentLineRef(ctx, r, impl.ID, in.DocumentLineID)
		if err != nil {
			return err
		}
		rate, err := rateOrDefault(in.VATRate, ref.Line.VATRate)
		if err != nil {
			return err
		}
		panels, coef, err := uc.engine.ProposalPanels(ctx, r, impl.ID, *ref)
		if err != nil {
			return err
		}
		now := time.Now()
		l := &entity.SettlementLine{
			ID:             uuid.New().String(),
			SettlementID:   s.ID,
			DocumentLineID: ref.Line.ID,
			VATRate:        rate,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if in.EligBase == nil {
			l.Amount = execution.ProposeSettlementAmount(panels.Document)
		}
		entity.AmountChange{Base: in.EligBase, VAT: in.EligVAT}.Apply(&l.Amount, rate, false, impl.Currency)

		if err := uc.engine.EnforceNonReimbursable(ctx, r, impl.ID, l, *ref, coef); err != nil {
			return err
		}
		if err := r.SettlementLines.Create(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, impl.ID, l, Change{
			ImplementationID:   impl.ID,
			Fields:             settlementLineFields,
			BudgetProxyLineIDs: []string{ref.BudgetProxyLineID},
			DocumentLineIDs:    []string{ref.Line.ID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLine modifica la línea de decontare y vuelve a comprobar el tope no reembolsable.
func (uc *SettlementUseCase) UpdateLine(ctx context.Context, id string, in dto.UpdateSettlementLineRequest) (*dto.SettlementLineMutationResponse, error) {
	var out *dto.SettlementLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, _, impl, err := lockSettlementLine(ctx, r, id)
		if err != nil {
			return err
		}
		ref, err := checkDocumentLineRef(ctx, r, impl.ID, l.DocumentLineID)
		if err != nil {
			return err
		}
		ch := Change{
			ImplementationID:   impl.ID,
			BudgetProxyLineIDs: []string{ref.BudgetProxyLineID},
			DocumentLineIDs:    []string{ref.Line.ID},
		}
		if in.DocumentLineID != nil && *in.DocumentLineID != l.DocumentLineID {
			if err := requireRef(*in.DocumentLineID, "línea de documento"); err != nil {
				return err
			}
			if ref, err = checkDocumentLineRef(ctx, r, impl.ID, *in.DocumentLineID); err != nil {
				return err
			}
			l.DocumentLineID = ref.Line.ID
			ch.BudgetProxyLineIDs = append(ch.BudgetProxyLineIDs, ref.BudgetProxyLineID)
			ch.DocumentLineIDs = append(ch.DocumentLineIDs, ref.Line.ID)
			ch.Fields = append(ch.Fields, execution.FieldSettlementLineDoc)
		}
		rateChanged := false
		if in.VATRate != nil {
			if err := entity.ValidateVATRate(*in.VATRate); err != nil {
				return err
			}
			rateChanged = !in.VATRate.Equal(l.VATRate)
			l.VATRate = *in.VATRate
		}
		if in.EligBase != nil || in.EligVAT != nil || rateChanged {
			entity.AmountChange{Base: in.EligBase, VAT: in.EligVAT}.Apply(&l.Amount, l.VATRate, rateChanged, impl.Currency)
			ch.Fields = append(ch.Fields, execution.FieldSettlementLineAmount)
		}
		if err := uc.enforce(ctx, r, impl.ID, l, ref); err != nil {
			return err
		}
		l.UpdatedAt = time.Now()
		if err := r.SettlementLines.Update(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, impl.ID, l, ch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResetLineVAT vuelve el IVA solicitado a automático; el tope se comprueba de nuevo.
func (uc *SettlementUseCase) ResetLineVAT(ctx context.Context, id string) (*dto.SettlementLineMutationResponse, error) {
	var out *dto.SettlementLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, _, impl, err := lockSettlementLine(ctx, r, id)
		if err != nil {
			return err
		}
		ref, err := checkDocumentLineRef(ctx, r, impl.ID, l.DocumentLineID)
		if err != nil {
			return err
		}
		l.Amount.ResetAuto(l.VATRate, impl.Currency)
		if err := uc.enforce(ctx, r, impl.ID, l, ref); err != nil {
			return err
		}
		l.UpdatedAt = time.Now()
		if err := r.SettlementLines.Update(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, impl.ID, l, Change{
			ImplementationID:   impl.ID,
			Fields:             []execution.Field{execution.FieldSettlementLineAmount},
			BudgetProxyLineIDs: []string{ref.BudgetProxyLineID},
			DocumentLineIDs:    []string{ref.Line.ID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteLine borra una línea de decontare.
func (uc *SettlementUseCase) DeleteLine(ctx context.Context, id string) (*dto.RecalculatedResponse, error) {
	var out *dto.RecalculatedResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, _, impl, err := lockSettlementLine(ctx, r, id)
		if err != nil {
			return err
		}
		ref, err := r.DocumentLines.GetRef(ctx, l.DocumentLineID)
		if err != nil {
			return err
		}
		if err := r.SettlementLines.Delete(ctx, l.ID); err != nil {
			return err
		}
		ch := Change{ImplementationID: impl.ID, Fields: settlementLineFields, DocumentLineIDs: []string{l.DocumentLineID}}
		if ref != nil {
			ch.BudgetProxyLineIDs = []string{ref.BudgetProxyLineID}
		}
		rc, err := uc.engine.Recalculate(ctx, r, ch)
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

// GetLine devuelve la línea con sus paneles.
func (uc *SettlementUseCase) GetLine(ctx context.Context, id string) (*dto.SettlementLineResponse, error) {
	r := uc.d.Repos
	l, err := r.SettlementLines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	s, err := r.Settlements.GetByID(ctx, l.SettlementID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	resp, err := uc.lineResponse(ctx, r, s.ImplementationID, l)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (uc *SettlementUseCase) enforce(ctx context.Context, r Repositories, implementationID string, l *entity.SettlementLine, ref *entity.DocumentLineRef) error {
	sc, err := loadScope(ctx, r, implementationID)
	if err != nil {
		return err
	}
	return uc.engine.EnforceNonReimbursable(ctx, r, implementationID, l, *ref, sc.nonReimbursableCoef())
}

func (uc *SettlementUseCase) lineResponse(ctx context.Context, r Repositories, implementationID string, l *entity.SettlementLine) (dto.SettlementLineResponse, error) {
	panels, pc, err := uc.engine.SettlementPanels(ctx, r, implementationID, []*entity.SettlementLine{l})
	if err != nil {
		return dto.SettlementLineResponse{}, err
	}
	views, err := settlementLineViews(ctx, r, pc)
	if err != nil {
		return dto.SettlementLineResponse{}, err
	}
	return toSettlementLineResponse(l, views[l.DocumentLineID], panels[l.ID], pc.NonReimbCoef), nil
}

func (uc *SettlementUseCase) lineMutation(ctx context.Context, r Repositories, implementationID string, l *entity.SettlementLine, ch Change) (*dto.SettlementLineMutationResponse, error) {
	rc, err := uc.engine.Recalculate(ctx, r, ch)
	if err != nil {
		return nil, err
	}
	line, err := uc.lineResponse(ctx, r, implementationID, l)
	if err != nil {
		return nil, err
	}
	return &dto.SettlementLineMutationResponse{Line: line, Recalculated: toRecalculatedResponse(rc)}, nil
}

func lockSettlement(ctx context.Context, r Repositories, id string) (*entity.Settlement, *entity.Implementation, error) {
	s, err := r.Settlements.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar decontare: %w", err)
	}
	if s == nil {
		return nil, nil, domain.ErrNotFound
	}
	impl, err := lockImplementation(ctx, r, s.ImplementationID)
	if err != nil {
		return nil, nil, err
	}
	return s, impl, nil
}

func lockSettlementLine(ctx context.Context, r Repositories, id string) (*entity.SettlementLine, *entity.Settlement, *entity.Implementation, error) {
	l, err := r.SettlementLines.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cargar línea de decontare: %w", err)
	}
	if l == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	s, impl, err := lockSettlement(ctx, r, l.SettlementID)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, s, impl, nil
}

// checkDocumentLineRef exige que la línea de documento exista y sea de la implementación.
func checkDocumentLineRef(ctx context.Context, r Repositories, implementationID, documentLineID string) (*entity.DocumentLineRef, error) {
	ref, err := r.DocumentLines.GetRef(ctx, documentLineID)
	if err != nil {
		return nil, fmt.Errorf("cargar línea de documento: %w", err)
	}
	if ref == nil {
		return nil, domain.NewValidationError(domain.CodeRequiredReference, "la línea de documento %s no existe", documentLineID)
	}
	if ref.ImplementationID != implementationID {
		return nil, domain.NewValidationError(domain.CodeCrossImplementation,
			"la línea de documento %s pertenece a otra implementación (%s, se esperaba %s)", documentLineID, ref.ImplementationID, implementationID)
	}
	return ref, nil
}
