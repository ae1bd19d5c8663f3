package implementation

import (
	"context"
	"fmt"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// documentLineLabels resuelve documentos y líneas de contrato para componer las etiquetas
// "nr / fecha / emisor - línea de contrato - notas".
func documentLineLabels(ctx context.Context, r Repositories, refs []entity.DocumentLineRef) (map[string]string, map[string]*entity.Document, error) {
	docs := make(map[string]*entity.Document)
	contractLines := make(map[string]*entity.ContractLine)
	labels := make(map[string]string, len(refs))
	for _, ref := range refs {
		doc, ok := docs[ref.DocumentID]
		if !ok {
			var err error
			doc, err = r.Documents.GetByID(ctx, ref.DocumentID)
			if err != nil {
				return nil, nil, fmt.Errorf("cargar documento: %w", err)
			}
			docs[ref.DocumentID] = doc
		}
		cl, ok := contractLines[ref.Line.ContractLineID]
		if !ok {
			var err error
			cl, err = r.ContractLines.GetByID(ctx, ref.Line.ContractLineID)
			if err != nil {
				return nil, nil, fmt.Errorf("cargar línea de contrato: %w", err)
			}
			contractLines[ref.Line.ContractLineID] = cl
		}
		labels[ref.Line.ID] = entity.DocumentLineLabel(doc, cl, ref.Line)
	}
	return labels, docs, nil
}

// budgetLineNames etiqueta de cada línea de presupuesto de la implementación.
func budgetLineNames(ctx context.Context, r Repositories, implementationID string) (map[string]string, error) {
	proxies, err := r.BudgetLines.ListByImplementation(ctx, implementationID)
	if err != nil {
		return nil, fmt.Errorf("listar líneas de presupuesto: %w", err)
	}
	masters, err := loadMasters(ctx, r, uniqueStrings(len(proxies), func(i int) string { return proxies[i].FundingBudgetLineID }))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(proxies))
	for _, p := range proxies {
		out[p.ID] = budgetLineLabel(masters[p.FundingBudgetLineID])
	}
	return out, nil
}

// settlementLineViews compone las vistas de línea de documento de un conjunto de líneas de decontare.
func settlementLineViews(ctx context.Context, r Repositories, pc PanelContext) (map[string]settlementLineView, error) {
	refs := make([]entity.DocumentLineRef, 0, len(pc.DocumentLines))
	for _, ref := range pc.DocumentLines {
		refs = append(refs, ref)
	}
	labels, docs, err := documentLineLabels(ctx, r, refs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]settlementLineView, len(refs))
	for _, ref := range refs {
		out[ref.Line.ID] = settlementLineView{ref: ref, document: docs[ref.DocumentID], label: labels[ref.Line.ID]}
	}
	return out, nil
}
