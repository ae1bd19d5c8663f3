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

var documentLineFields = []execution.Field{
	execution.FieldDocumentLineContract,
	execution.FieldDocumentLineAmount,
	execution.FieldDocumentLineDocument,
}

// DocumentUseCase documentos justificativos y sus líneas, con el control opcional
// del total documentado frente al valor del contrato.
type DocumentUseCase struct {
	d      Deps
	engine *Engine
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(d Deps, engine *Engine) *DocumentUseCase {
	return &DocumentUseCase{d: d, engine: engine}
}

// Create da de alta un documento sobre un contrato de la implementación.
func (uc *DocumentUseCase) Create(ctx context.Context, implementationID string, in dto.CreateDocumentRequest, enforceCeiling bool) (*dto.DocumentResponse, error) {
	if err := requireRef(in.ContractID, "contrato"); err != nil {
		return nil, err
	}
	date, err := parseDate("document_date", in.Date)
	if err != nil {
		return nil, err
	}
	doc := &entity.Document{
		ID:         uuid.New().String(),
		ContractID: in.ContractID,
		Type:       in.Type,
		Number:     in.Number,
		Date:       date,
		IssuerName: in.IssuerName,
		Notes:      in.Notes,
	}
	if doc.Type == "" {
		doc.Type = entity.DocumentTypeInvoice
	}

	var out *dto.DocumentResponse
	err = uc.d.Tx.Run(ctx, func(r Repositories) error {
		impl, err := lockImplementation(ctx, r, implementationID)
		if err != nil {
			return err
		}
		if _, err := checkContract(ctx, r, impl.ID, doc.ContractID); err != nil {
			return err
		}
		now := time.Now()
		doc.ImplementationID = impl.ID
		doc.CreatedAt, doc.UpdatedAt = now, now
		if err := r.Documents.Create(ctx, doc); err != nil {
			return err
		}
		if enforceCeiling {
			if _, err := uc.engine.EnforceDocumentCeiling(ctx, r, doc); err != nil {
				return err
			}
		}
		out, err = documentResponse(ctx, r, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.d.logger().Info().Str("implementation_id", implementationID).Str("document_id", doc.ID).Msg("documento creado")
	return out, nil
}

// GetByID devuelve el documento con sus líneas y totales.
func (uc *DocumentUseCase) GetByID(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	r := uc.d.Repos
	doc, err := r.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return documentResponse(ctx, r, doc)
}

func documentResponse(ctx context.Context, r Repositories, doc *entity.Document) (*dto.DocumentResponse, error) {
	lines, err := r.DocumentLines.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	contract, err := r.Contracts.GetByID(ctx, doc.ContractID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DocumentLineResponse, 0, len(lines))
	for _, l := range lines {
		cl, err := r.ContractLines.GetByID(ctx, l.ContractLineID)
		if err != nil {
			return nil, err
		}
		proxyID := ""
		if cl != nil {
			proxyID = cl.BudgetProxyLineID
		}
		items = append(items, toDocumentLineResponse(l, proxyID, entity.DocumentLineLabel(doc, cl, l)))
	}
	return toDocumentResponse(doc, contract, items, entity.SumDocumentLines(lines)), nil
}

// List documentos filtrados por implementación, contrato, tipo o texto.
func (uc *DocumentUseCase) List(ctx context.Context, f repository.DocumentFilter) (*dto.DocumentListResponse, error) {
	r := uc.d.Repos
	list, err := r.Documents.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.DocumentResponse, 0, len(list))
	for _, doc := range list {
		resp, err := documentResponse(ctx, r, doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *resp)
	}
	return &dto.DocumentListResponse{Items: items, Page: dto.PageResponse{Limit: f.Limit, Offset: f.Offset}}, nil
}

// Update modifica la cabecera. El contrato solo puede cambiarse mientras el documento no tenga líneas.
func (uc *DocumentUseCase) Update(ctx context.Context, id string, in dto.UpdateDocumentRequest, enforceCeiling bool) (*dto.DocumentResponse, error) {
	var out *dto.DocumentResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		doc, impl, err := lockDocument(ctx, r, id)
		if err != nil {
			return err
		}
		if in.ContractID != nil && *in.ContractID != doc.ContractID {
			if err := requireRef(*in.ContractID, "contrato"); err != nil {
				return err
			}
			if _, err := checkContract(ctx, r, impl.ID, *in.ContractID); err != nil {
				return err
			}
			n, err := r.DocumentLines.CountByDocument(ctx, doc.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.NewValidationError(domain.CodeInvalidInput,
					"no se puede cambiar el contrato del documento %s: tiene %d líneas", doc.DisplayName(), n)
			}
			doc.ContractID = *in.ContractID
		}
		if in.Type != nil {
			doc.Type = *in.Type
		}
		if in.Number != nil {
			doc.Number = *in.Number
		}
		if in.Date != nil {
			if doc.Date, err = parseDate("document_date", *in.Date); err != nil {
				return err
			}
		}
		if in.IssuerName != nil {
			doc.IssuerName = *in.IssuerName
		}
		if in.Notes != nil {
			doc.Notes = *in.Notes
		}
		doc.UpdatedAt = time.Now()
		if err := r.Documents.Update(ctx, doc); err != nil {
			return err
		}
		if enforceCeiling {
			if _, err := uc.engine.EnforceDocumentCeiling(ctx, r, doc); err != nil {
				return err
			}
		}
		out, err = documentResponse(ctx, r, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete borra un documento sin líneas.
func (uc *DocumentUseCase) Delete(ctx context.Context, id string) error {
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		doc, _, err := lockDocument(ctx, r, id)
		if err != nil {
			return err
		}
		n, err := r.DocumentLines.CountByDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return hasDependents("el documento", doc.DisplayName(), n, "líneas")
		}
		return r.Documents.Delete(ctx, doc.ID)
	})
	if err != nil {
		return err
	}
	uc.d.logger().Info().Str("document_id", id).Msg("documento eliminado")
	return nil
}

// Ceiling devuelve las sumas del control documento vs contrato sin rechazar nada.
func (uc *DocumentUseCase) Ceiling(ctx context.Context, id string) (*dto.DocumentCeilingResponse, error) {
	r := uc.d.Repos
	doc, err := r.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	c, err := uc.engine.DocumentCeiling(ctx, r, doc)
	if err != nil {
		return nil, err
	}
	return toCeilingResponse(doc, c), nil
}

// CreateLine imputa parte del documento a una línea del contrato del documento.
func (uc *DocumentUseCase) CreateLine(ctx context.Context, documentID string, in dto.CreateDocumentLineRequest, enforceCeiling bool) (*dto.DocumentLineMutationResponse, error) {
	if err := requireRef(in.ContractLineID, "línea de contrato"); err != nil {
		return nil, err
	}
	rate, err := rateOrDefault(in.VATRate, uc.d.Defaults.VATRate)
	if err != nil {
		return nil, err
	}

	var out *dto.DocumentLineMutationResponse
	err = uc.d.Tx.Run(ctx, func(r Repositories) error {
		doc, impl, err := lockDocument(ctx, r, documentID)
		if err != nil {
			return err
		}
		cl, err := checkContractLine(ctx, r, doc, in.ContractLineID)
		if err != nil {
			return err
		}
		now := time.Now()
		l := &entity.DocumentLine{
			ID:             uuid.New().String(),
			DocumentID:     doc.ID,
			ContractLineID: cl.ID,
			VATRate:        rate,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		entity.AmountChange{Base: &in.EligBaseAmount, VAT: in.EligVATAmount}.Apply(&l.Eligible, rate, false, impl.Currency)
		entity.AmountChange{Base: &in.NeeligBaseAmount, VAT: in.NeeligVATAmount}.Apply(&l.NonEligible, rate, false, impl.Currency)
		if err := r.DocumentLines.Create(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, doc, l, cl, enforceCeiling, Change{
			ImplementationID:   impl.ID,
			Fields:             documentLineFields,
			BudgetProxyLineIDs: []string{cl.BudgetProxyLineID},
			DocumentLineIDs:    []string{l.ID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLine modifica la línea: línea de contrato, tasa, importes y notas.
func (uc *DocumentUseCase) UpdateLine(ctx context.Context, id string, in dto.UpdateDocumentLineRequest, enforceCeiling bool) (*dto.DocumentLineMutationResponse, error) {
	var out *dto.DocumentLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, doc, impl, err := lockDocumentLine(ctx, r, id)
		if err != nil {
			return err
		}
		cl, err := r.ContractLines.GetByID(ctx, l.ContractLineID)
		if err != nil {
			return err
		}
		ch := Change{ImplementationID: impl.ID, DocumentLineIDs: []string{l.ID}}
		if cl != nil {
			ch.BudgetProxyLineIDs = append(ch.BudgetProxyLineIDs, cl.BudgetProxyLineID)
		}

		if in.ContractLineID != nil && *in.ContractLineID != l.ContractLineID {
			if err := requireRef(*in.ContractLineID, "línea de contrato"); err != nil {
				return err
			}
			if cl, err = checkContractLine(ctx, r, doc, *in.ContractLineID); err != nil {
				return err
			}
			l.ContractLineID = cl.ID
			ch.BudgetProxyLineIDs = append(ch.BudgetProxyLineIDs, cl.BudgetProxyLineID)
			ch.Fields = append(ch.Fields, execution.FieldDocumentLineContract)
		}
		rateChanged := false
		if in.VATRate != nil {
			if err := entity.ValidateVATRate(*in.VATRate); err != nil {
				return err
			}
			rateChanged = !in.VATRate.Equal(l.VATRate)
			l.VATRate = *in.VATRate
		}
		if in.EligBaseAmount != nil || in.EligVATAmount != nil || in.NeeligBaseAmount != nil || in.NeeligVATAmount != nil || rateChanged {
			entity.AmountChange{Base: in.EligBaseAmount, VAT: in.EligVATAmount}.Apply(&l.Eligible, l.VATRate, rateChanged, impl.Currency)
			entity.AmountChange{Base: in.NeeligBaseAmount, VAT: in.NeeligVATAmount}.Apply(&l.NonEligible, l.VATRate, rateChanged, impl.Currency)
			ch.Fields = append(ch.Fields, execution.FieldDocumentLineAmount)
		}
		if in.EligBaseAmount != nil || in.EligVATAmount != nil || rateChanged {
			if err := uc.engine.EnforceSettledWithinDocumentLine(ctx, r, impl.ID, l); err != nil {
				return err
			}
		}
		if in.Notes != nil {
			l.Notes = *in.Notes
		}
		l.UpdatedAt = time.Now()
		if err := r.DocumentLines.Update(ctx, l); err != nil {
			return err
		}
		out, err = uc.lineMutation(ctx, r, doc, l, cl, enforceCeiling, ch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResetLineVAT vuelve a automático el IVA elegible y el no elegible.
func (uc *DocumentUseCase) ResetLineVAT(ctx context.Context, id string, enforceCeiling bool) (*dto.DocumentLineMutationResponse, error) {
	var out *dto.DocumentLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, doc, impl, err := lockDocumentLine(ctx, r, id)
		if err != nil {
			return err
		}
		cl, err := r.ContractLines.GetByID(ctx, l.ContractLineID)
		if err != nil {
			return err
		}
		l.ResetVAT(impl.Currency)
		if err := uc.engine.EnforceSettledWithinDocumentLine(ctx, r, impl.ID, l); err != nil {
			return err
		}
		l.UpdatedAt = time.Now()
		if err := r.DocumentLines.Update(ctx, l); err != nil {
			return err
		}
		ch := Change{ImplementationID: impl.ID, Fields: []execution.Field{execution.FieldDocumentLineAmount}, DocumentLineIDs: []string{l.ID}}
		if cl != nil {
			ch.BudgetProxyLineIDs = []string{cl.BudgetProxyLineID}
		}
		out, err = uc.lineMutation(ctx, r, doc, l, cl, enforceCeiling, ch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteLine borra una línea no referenciada por decontări.
func (uc *DocumentUseCase) DeleteLine(ctx context.Context, id string, enforceCeiling bool) (*dto.DocumentLineMutationResponse, error) {
	var out *dto.DocumentLineMutationResponse
	err := uc.d.Tx.Run(ctx, func(r Repositories) error {
		l, doc, impl, err := lockDocumentLine(ctx, r, id)
		if err != nil {
			return err
		}
		n, err := r.SettlementLines.CountByDocumentLine(ctx, l.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return hasDependents("la línea de documento", l.ID, n, "líneas de decontare")
		}
		cl, err := r.ContractLines.GetByID(ctx, l.ContractLineID)
		if err != nil {
			return err
		}
		if err := r.DocumentLines.Delete(ctx, l.ID); err != nil {
			return err
		}
		ch := Change{ImplementationID: impl.ID, Fields: documentLineFields}
		if cl != nil {
			ch.BudgetProxyLineIDs = []string{cl.BudgetProxyLineID}
		}
		out = &dto.DocumentLineMutationResponse{Line: toDocumentLineResponse(l, "", entity.DocumentLineLabel(doc, cl, l))}
		if enforceCeiling {
			c, err := uc.engine.EnforceDocumentCeiling(ctx, r, doc)
			if err != nil {
				return err
			}
			out.Ceiling = toCeilingResponse(doc, c)
		}
		rc, err := uc.engine.Recalculate(ctx, r, ch)
		if err != nil {
			return err
		}
		out.Recalculated = toRecalculatedResponse(rc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchLines busca líneas de documento por número, emisor, notas o línea de contrato.
func (uc *DocumentUseCase) SearchLines(ctx context.Context, f repository.DocumentLineFilter) ([]dto.DocumentLineResponse, error) {
	r := uc.d.Repos
	refs, err := r.DocumentLines.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	labels, _, err := documentLineLabels(ctx, r, refs)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DocumentLineResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, toDocumentLineResponse(ref.Line, ref.BudgetProxyLineID, labels[ref.Line.ID]))
	}
	return out, nil
}

func (uc *DocumentUseCase) lineMutation(
	ctx context.Context, r Repositories,
	doc *entity.Document, l *entity.DocumentLine, cl *entity.ContractLine,
	enforceCeiling bool, ch Change,
) (*dto.DocumentLineMutationResponse, error) {
	proxyID := ""
	if cl != nil {
		proxyID = cl.BudgetProxyLineID
	}
	out := &dto.DocumentLineMutationResponse{Line: toDocumentLineResponse(l, proxyID, entity.DocumentLineLabel(doc, cl, l))}
	if enforceCeiling {
		c, err := uc.engine.EnforceDocumentCeiling(ctx, r, doc)
		if err != nil {
			return nil, err
		}
		out.Ceiling = toCeilingResponse(doc, c)
	}
	rc, err := uc.engine.Recalculate(ctx, r, ch)
	if err != nil {
		return nil, err
	}
	out.Recalculated = toRecalculatedResponse(rc)
	return out, nil
}

func lockDocument(ctx context.Context, r Repositories, id string) (*entity.Document, *entity.Implementation, error) {
	doc, err := r.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar documento: %w", err)
	}
	if doc == nil {
		return nil, nil, domain.ErrNotFound
	}
	impl, err := lockImplementation(ctx, r, doc.ImplementationID)
	if err != nil {
		return nil, nil, err
	}
	return doc, impl, nil
}

func lockDocumentLine(ctx context.Context, r Repositories, id string) (*entity.DocumentLine, *entity.Document, *entity.Implementation, error) {
	l, err := r.DocumentLines.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cargar línea de documento: %w", err)
	}
	if l == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	doc, impl, err := lockDocument(ctx, r, l.DocumentID)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, doc, impl, nil
}

// checkContract exige que el contrato exista y sea de la implementación.
func checkContract(ctx context.Context, r Repositories, implementationID, contractID string) (*entity.Contract, error) {
	c, err := r.Contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("cargar contrato: %w", err)
	}
	if c == nil {
		return nil, domain.NewValidationError(domain.CodeRequiredReference, "el contrato %s no existe", contractID)
	}
	if c.ImplementationID != implementationID {
		return nil, domain.NewValidationError(domain.CodeCrossImplementation,
			"el contrato %s pertenece a otra implementación (%s, se esperaba %s)", c.DisplayName(), c.ImplementationID, implementationID)
	}
	return c, nil
}

// checkContractLine exige que la línea de contrato sea del contrato del documento.
func checkContractLine(ctx context.Context, r Repositories, doc *entity.Document, contractLineID string) (*entity.ContractLine, error) {
	cl, err := r.ContractLines.GetByID(ctx, contractLineID)
	if err != nil {
		return nil, fmt.Errorf("cargar línea de contrato: %w", err)
	}
	if cl == nil {
		return nil, domain.NewValidationError(domain.CodeRequiredReference, "la línea de contrato %s no existe", contractLineID)
	}
	if cl.ContractID == doc.ContractID {
		return cl, nil
	}
	c, err := r.Contracts.GetByID(ctx, cl.ContractID)
	if err != nil {
		return nil, fmt.Errorf("cargar contrato: %w", err)
	}
	if c != nil && c.ImplementationID != doc.ImplementationID {
		return nil, domain.NewValidationError(domain.CodeCrossImplementation,
			"la línea de contrato %s pertenece a otra implementación (%s, se esperaba %s)", cl.DisplayName(), c.ImplementationID, doc.ImplementationID)
	}
	return nil, domain.NewValidationError(domain.CodeContractMismatch,
		"la línea de contrato %s no pertenece al contrato del documento %s", cl.DisplayName(), doc.DisplayName())
}
