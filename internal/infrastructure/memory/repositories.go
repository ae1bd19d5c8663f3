package memory

import (
	"context"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

func repositoriesFor(v *view) implementation.Repositories {
	return implementation.Repositories{
		Funding:         fundingRepo{v},
		Implementations: implementationRepo{v},
		BudgetLines:     budgetProxyRepo{v},
		Acquisitions:    acquisitionProxyRepo{v},
		Activities:      activityProxyRepo{v},
		Contracts:       contractRepo{v},
		ContractLines:   contractLineRepo{v},
		Documents:       documentRepo{v},
		DocumentLines:   documentLineRepo{v},
		Settlements:     settlementRepo{v},
		SettlementLines: settlementLineRepo{v},
	}
}

func duplicate(format string, args ...any) error {
	return domain.NewValidationError(domain.CodeDuplicateReference, format, args...)
}

func getPtr[T any](t *table[T], id string) *T {
	v, ok := t.get(id)
	if !ok {
		return nil
	}
	return &v
}

// ── Financiación ─────────────────────────────────────────────────────────────

type fundingRepo struct{ v *view }

var _ repository.FundingRepository = fundingRepo{}

func (r fundingRepo) GetProject(_ context.Context, id string) (out *entity.FundingProject, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.projects, id) })
	return out, nil
}

func (r fundingRepo) GetBudgetLine(_ context.Context, id string) (out *entity.BudgetLine, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.budgetLines, id) })
	return out, nil
}

func (r fundingRepo) ListBudgetLines(_ context.Context, fundingProjectID string) (out []*entity.BudgetLine, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.budgetLines.list(func(l entity.BudgetLine) bool { return l.FundingProjectID == fundingProjectID }))
	})
	return out, nil
}

func (r fundingRepo) ListBudgetLinesByIDs(_ context.Context, ids []string) (out []*entity.BudgetLine, _ error) {
	want := set(ids)
	r.v.read(func(st *state) {
		out = ptrs(st.budgetLines.list(func(l entity.BudgetLine) bool { return want[l.ID] }))
	})
	return out, nil
}

func (r fundingRepo) GetActivity(_ context.Context, id string) (out *entity.Activity, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.activities, id) })
	return out, nil
}

func (r fundingRepo) ListActivities(_ context.Context, fundingProjectID string) (out []*entity.Activity, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.activities.list(func(a entity.Activity) bool { return a.FundingProjectID == fundingProjectID }))
	})
	return out, nil
}

func (r fundingRepo) GetAcquisition(_ context.Context, id string) (out *entity.Acquisition, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.acquisitions, id) })
	return out, nil
}

func (r fundingRepo) ListAcquisitions(_ context.Context, fundingProjectID string) (out []*entity.Acquisition, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.acquisitions.list(func(a entity.Acquisition) bool { return a.FundingProjectID == fundingProjectID }))
	})
	return out, nil
}

// ── Implementación y líneas sincronizadas ────────────────────────────────────

type implementationRepo struct{ v *view }

var _ repository.ImplementationRepository = implementationRepo{}

func (r implementationRepo) Create(_ context.Context, impl *entity.Implementation) error {
	return r.v.write(func(st *state) error {
		if len(st.implementations.list(func(i entity.Implementation) bool { return i.FundingProjectID == impl.FundingProjectID })) > 0 {
			return duplicate("ya existe una implementación para el proyecto %s", impl.FundingProjectID)
		}
		st.implementations.put(impl.ID, *impl)
		return nil
	})
}

func (r implementationRepo) Update(_ context.Context, impl *entity.Implementation) error {
	return r.v.write(func(st *state) error {
		if !st.implementations.has(impl.ID) {
			return domain.ErrNotFound
		}
		st.implementations.put(impl.ID, *impl)
		return nil
	})
}

func (r implementationRepo) GetByID(_ context.Context, id string) (out *entity.Implementation, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.implementations, id) })
	return out, nil
}

func (r implementationRepo) GetByFundingProject(_ context.Context, fundingProjectID string) (out *entity.Implementation, _ error) {
	r.v.read(func(st *state) {
		list := st.implementations.list(func(i entity.Implementation) bool { return i.FundingProjectID == fundingProjectID })
		if len(list) > 0 {
			out = &list[0]
		}
	})
	return out, nil
}

func (r implementationRepo) List(_ context.Context, f repository.ImplementationFilter) (out []*entity.Implementation, _ error) {
	r.v.read(func(st *state) {
		list := st.implementations.list(func(i entity.Implementation) bool { return f.State == "" || i.State == f.State })
		out = ptrs(page(list, f.Limit, f.Offset))
	})
	return out, nil
}

// Lock las transacciones ya están serializadas por el mutex del almacén.
func (r implementationRepo) Lock(ctx context.Context, id string) (*entity.Implementation, error) {
	return r.GetByID(ctx, id)
}

type budgetProxyRepo struct{ v *view }

var _ repository.BudgetProxyRepository = budgetProxyRepo{}

func (r budgetProxyRepo) Create(_ context.Context, line *entity.BudgetProxyLine) error {
	return r.v.write(func(st *state) error {
		n := st.proxies.count(func(p entity.BudgetProxyLine) bool {
			return p.ImplementationID == line.ImplementationID && p.FundingBudgetLineID == line.FundingBudgetLineID
		})
		if n > 0 {
			return duplicate("la línea de presupuesto %s ya está sincronizada en la implementación %s", line.FundingBudgetLineID, line.ImplementationID)
		}
		st.proxies.put(line.ID, *line)
		return nil
	})
}

func (r budgetProxyRepo) GetByID(_ context.Context, id string) (out *entity.BudgetProxyLine, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.proxies, id) })
	return out, nil
}

func (r budgetProxyRepo) ListByImplementation(_ context.Context, implementationID string) (out []*entity.BudgetProxyLine, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.proxies.list(func(p entity.BudgetProxyLine) bool { return p.ImplementationID == implementationID }))
	})
	return out, nil
}

func (r budgetProxyRepo) ListByIDs(_ context.Context, ids []string) (out []*entity.BudgetProxyLine, _ error) {
	want := set(ids)
	r.v.read(func(st *state) {
		out = ptrs(st.proxies.list(func(p entity.BudgetProxyLine) bool { return want[p.ID] }))
	})
	return out, nil
}

type acquisitionProxyRepo struct{ v *view }

var _ repository.AcquisitionProxyRepository = acquisitionProxyRepo{}

func (r acquisitionProxyRepo) Create(_ context.Context, line *entity.AcquisitionProxyLine) error {
	return r.v.write(func(st *state) error {
		n := st.acqProxies.count(func(p entity.AcquisitionProxyLine) bool {
			return p.ImplementationID == line.ImplementationID && p.FundingAcquisitionID == line.FundingAcquisitionID
		})
		if n > 0 {
			return duplicate("la adquisición %s ya está sincronizada", line.FundingAcquisitionID)
		}
		st.acqProxies.put(line.ID, *line)
		return nil
	})
}

func (r acquisitionProxyRepo) ListByImplementation(_ context.Context, implementationID string) (out []*entity.AcquisitionProxyLine, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.acqProxies.list(func(p entity.AcquisitionProxyLine) bool { return p.ImplementationID == implementationID }))
	})
	return out, nil
}

type activityProxyRepo struct{ v *view }

var _ repository.ActivityProxyRepository = activityProxyRepo{}

func (r activityProxyRepo) Create(_ context.Context, line *entity.ActivityProxyLine) error {
	return r.v.write(func(st *state) error {
		n := st.actProxies.count(func(p entity.ActivityProxyLine) bool {
			return p.ImplementationID == line.ImplementationID && p.FundingActivityID == line.FundingActivityID
		})
		if n > 0 {
			return duplicate("la actividad %s ya está sincronizada", line.FundingActivityID)
		}
		st.actProxies.put(line.ID, *line)
		return nil
	})
}

func (r activityProxyRepo) ListByImplementation(_ context.Context, implementationID string) (out []*entity.ActivityProxyLine, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.actProxies.list(func(p entity.ActivityProxyLine) bool { return p.ImplementationID == implementationID }))
	})
	return out, nil
}

// ── Contratos ────────────────────────────────────────────────────────────────

type contractRepo struct{ v *view }

var _ repository.ContractRepository = contractRepo{}

func (r contractRepo) Create(_ context.Context, c *entity.Contract) error {
	return r.v.write(func(st *state) error {
		st.contracts.put(c.ID, *c)
		return nil
	})
}

func (r contractRepo) Update(_ context.Context, c *entity.Contract) error {
	return r.v.write(func(st *state) error {
		if !st.contracts.has(c.ID) {
			return domain.ErrNotFound
		}
		st.contracts.put(c.ID, *c)
		return nil
	})
}

func (r contractRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(st *state) error {
		st.contracts.remove(id)
		return nil
	})
}

func (r contractRepo) GetByID(_ context.Context, id string) (out *entity.Contract, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.contracts, id) })
	return out, nil
}

func (r contractRepo) List(_ context.Context, f repository.ContractFilter) (out []*entity.Contract, _ error) {
	r.v.read(func(st *state) {
		list := st.contracts.list(func(c entity.Contract) bool {
			if f.ImplementationID != "" && c.ImplementationID != f.ImplementationID {
				return false
			}
			if f.AwardState != "" && c.AwardState != f.AwardState {
				return false
			}
			if f.Search != "" && !containsFold(c.Name, f.Search) && !containsFold(c.Number, f.Search) && !containsFold(c.SupplierName, f.Search) {
				return false
			}
			return true
		})
		out = ptrs(page(list, f.Limit, f.Offset))
	})
	return out, nil
}

type contractLineRepo struct{ v *view }

var _ repository.ContractLineRepository = contractLineRepo{}

func (r contractLineRepo) unique(st *state, l *entity.ContractLine) error {
	n := st.contractLines.count(func(o entity.ContractLine) bool {
		return o.ID != l.ID && o.ContractID == l.ContractID && o.BudgetProxyLineID == l.BudgetProxyLineID
	})
	if n > 0 {
		return duplicate("el contrato %s ya tiene una línea para la línea de presupuesto %s", l.ContractID, l.BudgetProxyLineID)
	}
	return nil
}

func (r contractLineRepo) Create(_ context.Context, l *entity.ContractLine) error {
	return r.v.write(func(st *state) error {
		if err := r.unique(st, l); err != nil {
			return err
		}
		st.contractLines.put(l.ID, *l)
		return nil
	})
}

func (r contractLineRepo) Update(_ context.Context, l *entity.ContractLine) error {
	return r.v.write(func(st *state) error {
		if !st.contractLines.has(l.ID) {
			return domain.ErrNotFound
		}
		if err := r.unique(st, l); err != nil {
			return err
		}
		st.contractLines.put(l.ID, *l)
		return nil
	})
}

func (r contractLineRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(st *state) error {
		st.contractLines.remove(id)
		return nil
	})
}

func (r contractLineRepo) GetByID(_ context.Context, id string) (out *entity.ContractLine, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.contractLines, id) })
	return out, nil
}

func (r contractLineRepo) GetByContractAndBudget(_ context.Context, contractID, budgetProxyLineID string) (out *entity.ContractLine, _ error) {
	r.v.read(func(st *state) {
		list := st.contractLines.list(func(l entity.ContractLine) bool {
			return l.ContractID == contractID && l.BudgetProxyLineID == budgetProxyLineID
		})
		if len(list) > 0 {
			out = &list[0]
		}
	})
	return out, nil
}

func (r contractLineRepo) ListByContract(_ context.Context, contractID string) (out []*entity.ContractLine, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.contractLines.list(func(l entity.ContractLine) bool { return l.ContractID == contractID }))
	})
	return out, nil
}

func (r contractLineRepo) ListByContracts(_ context.Context, contractIDs []string) (out []*entity.ContractLine, _ error) {
	want := set(contractIDs)
	r.v.read(func(st *state) {
		out = ptrs(st.contractLines.list(func(l entity.ContractLine) bool { return want[l.ContractID] }))
	})
	return out, nil
}

func (r contractLineRepo) ListByBudgetProxyLines(_ context.Context, implementationIDs, budgetProxyLineIDs []string) (out []*entity.ContractLine, _ error) {
	impls, proxies := set(implementationIDs), set(budgetProxyLineIDs)
	r.v.read(func(st *state) {
		out = ptrs(st.contractLines.list(func(l entity.ContractLine) bool {
			c, ok := st.contracts.get(l.ContractID)
			return ok && impls[c.ImplementationID] && proxies[l.BudgetProxyLineID]
		}))
	})
	return out, nil
}

func (r contractLineRepo) CountByContract(_ context.Context, contractID string) (n int, _ error) {
	r.v.read(func(st *state) {
		n = st.contractLines.count(func(l entity.ContractLine) bool { return l.ContractID == contractID })
	})
	return n, nil
}

// ── Documentos ───────────────────────────────────────────────────────────────

type documentRepo struct{ v *view }

var _ repository.DocumentRepository = documentRepo{}

func (r documentRepo) Create(_ context.Context, doc *entity.Document) error {
	return r.v.write(func(st *state) error {
		st.documents.put(doc.ID, *doc)
		return nil
	})
}

func (r documentRepo) Update(_ context.Context, doc *entity.Document) error {
	return r.v.write(func(st *state) error {
		if !st.documents.has(doc.ID) {
			return domain.ErrNotFound
		}
		st.documents.put(doc.ID, *doc)
		return nil
	})
}

func (r documentRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(st *state) error {
		st.documents.remove(id)
		return nil
	})
}

func (r documentRepo) GetByID(_ context.Context, id string) (out *entity.Document, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.documents, id) })
	return out, nil
}

func (r documentRepo) List(_ context.Context, f repository.DocumentFilter) (out []*entity.Document, _ error) {
	r.v.read(func(st *state) {
		list := st.documents.list(func(d entity.Document) bool {
			switch {
			case f.ImplementationID != "" && d.ImplementationID != f.ImplementationID:
				return false
			case f.ContractID != "" && d.ContractID != f.ContractID:
				return false
			case f.Type != "" && d.Type != f.Type:
				return false
			case f.Search != "" && !containsFold(d.Number, f.Search) && !containsFold(d.IssuerName, f.Search) && !containsFold(d.Notes, f.Search):
				return false
			}
			return true
		})
		out = ptrs(page(list, f.Limit, f.Offset))
	})
	return out, nil
}

type documentLineRepo struct{ v *view }

var _ repository.DocumentLineRepository = documentLineRepo{}

// documentLineRef resuelve documento y línea de contrato; ok=false si el documento no existe.
func documentLineRef(st *state, l entity.DocumentLine) (entity.DocumentLineRef, bool) {
	doc, ok := st.documents.get(l.DocumentID)
	if !ok {
		return entity.DocumentLineRef{}, false
	}
	line := l
	ref := entity.DocumentLineRef{
		Line:             &line,
		ImplementationID: doc.ImplementationID,
		DocumentID:       doc.ID,
		ContractID:       doc.ContractID,
	}
	if cl, ok := st.contractLines.get(l.ContractLineID); ok {
		ref.BudgetProxyLineID = cl.BudgetProxyLineID
	}
	return ref, true
}

func (r documentLineRepo) refs(st *state, keep func(entity.DocumentLineRef) bool) []entity.DocumentLineRef {
	var out []entity.DocumentLineRef
	for _, l := range st.documentLines.list(nil) {
		ref, ok := documentLineRef(st, l)
		if ok && keep(ref) {
			out = append(out, ref)
		}
	}
	return out
}

func (r documentLineRepo) Create(_ context.Context, l *entity.DocumentLine) error {
	return r.v.write(func(st *state) error {
		st.documentLines.put(l.ID, *l)
		return nil
	})
}

func (r documentLineRepo) Update(_ context.Context, l *entity.DocumentLine) error {
	return r.v.write(func(st *state) error {
		if !st.documentLines.has(l.ID) {
			return domain.ErrNotFound
		}
		st.documentLines.put(l.ID, *l)
		return nil
	})
}

func (r documentLineRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(st *state) error {
		st.documentLines.remove(id)
		return nil
	})
}

func (r documentLineRepo) GetByID(_ context.Context, id string) (out *entity.DocumentLine, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.documentLines, id) })
	return out, nil
}

func (r documentLineRepo) GetRef(_ context.Context, id string) (out *entity.DocumentLineRef, _ error) {
	r.v.read(func(st *state) {
		l, ok := st.documentLines.get(id)
		if !ok {
			return
		}
		if ref, ok := documentLineRef(st, l); ok {
			out = &ref
		}
	})
	return out, nil
}

func (r documentLineRepo) ListByDocument(_ context.Context, documentID string) (out []*entity.DocumentLine, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.documentLines.list(func(l entity.DocumentLine) bool { return l.DocumentID == documentID }))
	})
	return out, nil
}

func (r documentLineRepo) ListByContract(_ context.Context, implementationID, contractID string) (out []entity.DocumentLineRef, _ error) {
	r.v.read(func(st *state) {
		out = r.refs(st, func(ref entity.DocumentLineRef) bool {
			return ref.ImplementationID == implementationID && ref.ContractID == contractID
		})
	})
	return out, nil
}

func (r documentLineRepo) ListRefsByIDs(_ context.Context, ids []string) (out []entity.DocumentLineRef, _ error) {
	want := set(ids)
	r.v.read(func(st *state) {
		out = r.refs(st, func(ref entity.DocumentLineRef) bool { return want[ref.Line.ID] })
	})
	return out, nil
}

func (r documentLineRepo) ListByBudgetProxyLines(_ context.Context, implementationIDs, budgetProxyLineIDs []string) (out []entity.DocumentLineRef, _ error) {
	impls, proxies := set(implementationIDs), set(budgetProxyLineIDs)
	r.v.read(func(st *state) {
		out = r.refs(st, func(ref entity.DocumentLineRef) bool {
			return impls[ref.ImplementationID] && proxies[ref.BudgetProxyLineID]
		})
	})
	return out, nil
}

func (r documentLineRepo) Search(_ context.Context, f repository.DocumentLineFilter) (out []entity.DocumentLineRef, _ error) {
	r.v.read(func(st *state) {
		out = r.refs(st, func(ref entity.DocumentLineRef) bool {
			if f.ImplementationID != "" && ref.ImplementationID != f.ImplementationID {
				return false
			}
			if f.Search == "" {
				return true
			}
			doc, _ := st.documents.get(ref.DocumentID)
			cl, _ := st.contractLines.get(ref.Line.ContractLineID)
			return containsFold(doc.Number, f.Search) || containsFold(doc.IssuerName, f.Search) ||
				containsFold(ref.Line.Notes, f.Search) || containsFold(cl.Name, f.Search)
		})
		out = page(out, f.Limit, 0)
	})
	return out, nil
}

func (r documentLineRepo) CountByDocument(_ context.Context, documentID string) (n int, _ error) {
	r.v.read(func(st *state) {
		n = st.documentLines.count(func(l entity.DocumentLine) bool { return l.DocumentID == documentID })
	})
	return n, nil
}

func (r documentLineRepo) CountByContractLine(_ context.Context, contractLineID string) (n int, _ error) {
	r.v.read(func(st *state) {
		n = st.documentLines.count(func(l entity.DocumentLine) bool { return l.ContractLineID == contractLineID })
	})
	return n, nil
}

// ── Decontări ────────────────────────────────────────────────────────────────

type settlementRepo struct{ v *view }

var _ repository.SettlementRepository = settlementRepo{}

func (r settlementRepo) Create(_ context.Context, s *entity.Settlement) error {
	return r.v.write(func(st *state) error {
		st.settlements.put(s.ID, *s)
		return nil
	})
}

func (r settlementRepo) Update(_ context.Context, s *entity.Settlement) error {
	return r.v.write(func(st *state) error {
		if !st.settlements.has(s.ID) {
			return domain.ErrNotFound
		}
		st.settlements.put(s.ID, *s)
		return nil
	})
}

func (r settlementRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(st *state) error {
		st.settlements.remove(id)
		return nil
	})
}

func (r settlementRepo) GetByID(_ context.Context, id string) (out *entity.Settlement, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.settlements, id) })
	return out, nil
}

func (r settlementRepo) List(_ context.Context, f repository.SettlementFilter) (out []*entity.Settlement, _ error) {
	r.v.read(func(st *state) {
		list := st.settlements.list(func(s entity.Settlement) bool {
			return f.ImplementationID == "" || s.ImplementationID == f.ImplementationID
		})
		out = ptrs(page(list, f.Limit, f.Offset))
	})
	return out, nil
}

type settlementLineRepo struct{ v *view }

var _ repository.SettlementLineRepository = settlementLineRepo{}

func settlementLineRef(st *state, l entity.SettlementLine) (entity.SettlementLineRef, bool) {
	s, ok := st.settlements.get(l.SettlementID)
	if !ok {
		return entity.SettlementLineRef{}, false
	}
	line := l
	ref := entity.SettlementLineRef{Line: &line, ImplementationID: s.ImplementationID, DocumentLineID: l.DocumentLineID}
	if dl, ok := st.documentLines.get(l.DocumentLineID); ok {
		if cl, ok := st.contractLines.get(dl.ContractLineID); ok {
			ref.BudgetProxyLineID = cl.BudgetProxyLineID
		}
	}
	return ref, true
}

func (r settlementLineRepo) refs(st *state, keep func(entity.SettlementLineRef) bool) []entity.SettlementLineRef {
	var out []entity.SettlementLineRef
	for _, l := range st.settlementLines.list(nil) {
		ref, ok := settlementLineRef(st, l)
		if ok && keep(ref) {
			out = append(out, ref)
		}
	}
	return out
}

func (r settlementLineRepo) Create(_ context.Context, l *entity.SettlementLine) error {
	return r.v.write(func(st *state) error {
		st.settlementLines.put(l.ID, *l)
		return nil
	})
}

func (r settlementLineRepo) Update(_ context.Context, l *entity.SettlementLine) error {
	return r.v.write(func(st *state) error {
		if !st.settlementLines.has(l.ID) {
			return domain.ErrNotFound
		}
		st.settlementLines.put(l.ID, *l)
		return nil
	})
}

func (r settlementLineRepo) Delete(_ context.Context, id string) error {
	return r.v.write(func(st *state) error {
		st.settlementLines.remove(id)
		return nil
	})
}

func (r settlementLineRepo) GetByID(_ context.Context, id string) (out *entity.SettlementLine, _ error) {
	r.v.read(func(st *state) { out = getPtr(&st.settlementLines, id) })
	return out, nil
}

func (r settlementLineRepo) ListBySettlement(_ context.Context, settlementID string) (out []*entity.SettlementLine, _ error) {
	r.v.read(func(st *state) {
		out = ptrs(st.settlementLines.list(func(l entity.SettlementLine) bool { return l.SettlementID == settlementID }))
	})
	return out, nil
}

func (r settlementLineRepo) ListByDocumentLines(_ context.Context, implementationID string, documentLineIDs []string) (out []entity.SettlementLineRef, _ error) {
	want := set(documentLineIDs)
	r.v.read(func(st *state) {
		out = r.refs(st, func(ref entity.SettlementLineRef) bool {
			return ref.ImplementationID == implementationID && want[ref.DocumentLineID]
		})
	})
	return out, nil
}

func (r settlementLineRepo) ListByBudgetProxyLines(_ context.Context, implementationIDs, budgetProxyLineIDs []string) (out []entity.SettlementLineRef, _ error) {
	impls, proxies := set(implementationIDs), set(budgetProxyLineIDs)
	r.v.read(func(st *state) {
		out = r.refs(st, func(ref entity.SettlementLineRef) bool {
			return impls[ref.ImplementationID] && proxies[ref.BudgetProxyLineID]
		})
	})
	return out, nil
}

func (r settlementLineRepo) CountBySettlement(_ context.Context, settlementID string) (n int, _ error) {
	r.v.read(func(st *state) {
		n = st.settlementLines.count(func(l entity.SettlementLine) bool { return l.SettlementID == settlementID })
	})
	return n, nil
}

func (r settlementLineRepo) CountByDocumentLine(_ context.Context, documentLineID string) (n int, _ error) {
	r.v.read(func(st *state) {
		n = st.settlementLines.count(func(l entity.SettlementLine) bool { return l.DocumentLineID == documentLineID })
	})
	return n, nil
}
