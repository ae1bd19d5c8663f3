package implementation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/execution"
)

func toImplementationResponse(impl *entity.Implementation, funding *entity.FundingProject) *dto.ImplementationResponse {
	out := &dto.ImplementationResponse{
		ID:                impl.ID,
		FundingProjectID:  impl.FundingProjectID,
		ResponsibleUserID: impl.ResponsibleUserID,
		StartDate:         formatOptionalDate(impl.StartDate),
		EndDate:           formatOptionalDate(impl.EndDate),
		Description:       impl.Description,
		State:             impl.State,
		Currency:          impl.Currency.Code,
		AportValoare:      decimal.Zero,
		CreatedAt:         impl.CreatedAt,
		UpdatedAt:         impl.UpdatedAt,
	}
	if funding != nil {
		out.Name = funding.Name
		out.Code = funding.Code
		out.BeneficiaryName = funding.Beneficiary
		out.BeneficiaryTaxID = funding.BeneficiaryTaxID
		out.AportCoef = funding.ContributionCoefficient
		out.AportValoare = funding.ContributionValue
	}
	return out
}

func toRollupResponse(proxyID string, r entity.BudgetRollup) dto.BudgetRollupResponse {
	return dto.BudgetRollupResponse{
		BudgetProxyLineID:           proxyID,
		ContractBaseTotal:           r.ContractBase,
		ContractVATTotal:            r.ContractVAT,
		ContractTotal:               r.ContractTotal,
		DocumentsEligibleTotal:      r.DocumentsEligible,
		DocumentsNonEligibleTotal:   r.DocumentsNonEligible,
		DocumentsTotal:              r.DocumentsTotal,
		SoldTotal:                   r.Balance,
		NonReimbursableTotal:        r.NonReimbursableTotal,
		SettlementsTotal:            r.SettledTotal,
		NonReimbursableMinusSettled: r.NonReimbursableMinusSettled,
	}
}

func toBudgetLineResponse(p *entity.BudgetProxyLine, master *entity.BudgetLine, r entity.BudgetRollup) dto.BudgetLineResponse {
	out := dto.BudgetLineResponse{
		BudgetRollupResponse: toRollupResponse(p.ID, r),
		FundingBudgetLineID:  p.FundingBudgetLineID,
		EligibleBase:         decimal.Zero,
		EligibleVAT:          decimal.Zero,
		EligibleTotal:        decimal.Zero,
		NonEligibleBase:      decimal.Zero,
		NonEligibleVAT:       decimal.Zero,
		NonEligibleTotal:     decimal.Zero,
		PlannedTotal:         decimal.Zero,
	}
	if master != nil {
		out.Number = master.Number
		out.Chapter = master.Chapter
		out.Subchapter = master.Subchapter
		out.Name = master.Name
		out.EligibleBase = master.EligibleBase
		out.EligibleVAT = master.EligibleVAT
		out.EligibleTotal = master.EligibleTotal()
		out.NonEligibleBase = master.NonEligibleBase
		out.NonEligibleVAT = master.NonEligibleVAT
		out.NonEligibleTotal = master.NonEligibleTotal()
		out.PlannedTotal = master.PlannedTotal()
	}
	return out
}

// budgetLineLabel etiqueta de una línea de presupuesto: "capítulo / nombre".
func budgetLineLabel(master *entity.BudgetLine) string {
	if master == nil {
		return ""
	}
	switch {
	case master.Chapter != "" && master.Name != "":
		return master.Chapter + " / " + master.Name
	case master.Name != "":
		return master.Name
	}
	return master.Chapter
}

func toContractLineResponse(l *entity.ContractLine, budgetName string) dto.ContractLineResponse {
	return dto.ContractLineResponse{
		ID:                l.ID,
		ContractID:        l.ContractID,
		BudgetProxyLineID: l.BudgetProxyLineID,
		BudgetLineName:    budgetName,
		Name:              l.Name,
		BaseAmount:        l.Amount.Base,
		VATRate:           l.VATRate,
		VATAmount:         l.Amount.VAT,
		VATManual:         l.Amount.VATManual,
		TotalAmount:       l.Total(),
	}
}

func toContractResponse(c *entity.Contract, lines []*entity.ContractLine, budgetNames map[string]string) *dto.ContractResponse {
	totals := entity.SumContractLines(lines)
	out := &dto.ContractResponse{
		ID:               c.ID,
		ImplementationID: c.ImplementationID,
		DisplayName:      c.DisplayName(),
		Name:             c.Name,
		Number:           c.Number,
		Date:             formatDate(c.Date),
		Type:             c.Type,
		AwardState:       c.AwardState,
		ProcedureType:    c.ProcedureType,
		SEAPNumber:       c.SEAPNumber,
		SEAPDate:         formatOptionalDate(c.SEAPDate),
		SupplierName:     c.SupplierName,
		StartDate:        formatOptionalDate(c.StartDate),
		EndDate:          formatOptionalDate(c.EndDate),
		ActivityID:       c.ActivityID,
		AcquisitionID:    c.AcquisitionID,
		AmountBaseTotal:  totals.Base,
		AmountVATTotal:   totals.VAT,
		AmountTotal:      totals.Total,
		Lines:            make([]dto.ContractLineResponse, 0, len(lines)),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, toContractLineResponse(l, budgetNames[l.BudgetProxyLineID]))
	}
	return out
}

func toDocumentLineResponse(l *entity.DocumentLine, budgetProxyLineID, name string) dto.DocumentLineResponse {
	return dto.DocumentLineResponse{
		ID:                l.ID,
		DocumentID:        l.DocumentID,
		ContractLineID:    l.ContractLineID,
		BudgetProxyLineID: budgetProxyLineID,
		Name:              name,
		VATRate:           l.VATRate,
		EligBaseAmount:    l.Eligible.Base,
		EligVATAmount:     l.Eligible.VAT,
		EligVATManual:     l.Eligible.VATManual,
		EligTotalAmount:   l.EligibleTotal(),
		NeeligBaseAmount:  l.NonEligible.Base,
		NeeligVATAmount:   l.NonEligible.VAT,
		NeeligVATManual:   l.NonEligible.VATManual,
		NeeligTotalAmount: l.NonEligibleTotal(),
		TotalAmount:       l.Total(),
		Notes:             l.Notes,
	}
}

func toDocumentResponse(d *entity.Document, contract *entity.Contract, lines []dto.DocumentLineResponse, totals entity.DocumentTotals) *dto.DocumentResponse {
	out := &dto.DocumentResponse{
		ID:                    d.ID,
		ImplementationID:      d.ImplementationID,
		ContractID:            d.ContractID,
		DisplayName:           d.DisplayName(),
		Type:                  d.Type,
		Number:                d.Number,
		Date:                  formatDate(d.Date),
		IssuerName:            d.IssuerName,
		Notes:                 d.Notes,
		AmountEligBaseTotal:   totals.EligibleBase,
		AmountEligVATTotal:    totals.EligibleVAT,
		AmountNeeligBaseTotal: totals.NonEligibleBase,
		AmountNeeligVATTotal:  totals.NonEligibleVAT,
		AmountTotal:           totals.Total,
		Lines:                 lines,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
	if out.Lines == nil {
		out.Lines = []dto.DocumentLineResponse{}
	}
	if contract != nil {
		out.ContractName = contract.DisplayName()
	}
	return out
}

func toCeilingResponse(doc *entity.Document, c execution.DocumentCeiling) *dto.DocumentCeilingResponse {
	return &dto.DocumentCeilingResponse{
		DocumentID:    doc.ID,
		ContractID:    doc.ContractID,
		CurrentTotal:  c.Current,
		OtherTotal:    c.Other,
		GrandTotal:    c.Grand,
		ContractTotal: c.ContractTotal,
		Exceeded:      c.Exceeded(),
	}
}

func toPanelsResponse(lineID string, p execution.SettlementPanels) dto.SettlementPanelsResponse {
	return dto.SettlementPanelsResponse{
		SettlementLineID:   lineID,
		DocEligBase:        p.Document.EligibleBase,
		DocEligVAT:         p.Document.EligibleVAT,
		DocNerambBase:      p.Document.NonReimbursableBase,
		DocNerambVAT:       p.Document.NonReimbursableVAT,
		DocSettledBase:     p.Document.SettledBase,
		DocSettledVAT:      p.Document.SettledVAT,
		DocDiffBase:        p.Document.RemainingBase,
		DocDiffVAT:         p.Document.RemainingVAT,
		BudgetEligBase:     p.Budget.EligibleBase,
		BudgetEligVAT:      p.Budget.EligibleVAT,
		BudgetNerambBase:   p.Budget.NonReimbursableBase,
		BudgetNerambVAT:    p.Budget.NonReimbursableVAT,
		BudgetSettledBase:  p.Budget.SettledBase,
		BudgetSettledVAT:   p.Budget.SettledVAT,
		BudgetSettledTotal: p.Budget.SettledTotal,
		BudgetDiffBase:     p.Budget.RemainingBase,
		BudgetDiffVAT:      p.Budget.RemainingVAT,
		BudgetDiffTotal:    p.Budget.RemainingTotal,
	}
}

// settlementLineView datos resueltos de la línea de documento para una línea de decontare.
type settlementLineView struct {
	ref      entity.DocumentLineRef
	document *entity.Document
	label    string
}

func toSettlementLineResponse(l *entity.SettlementLine, v settlementLineView, p execution.SettlementPanels, coef decimal.Decimal) dto.SettlementLineResponse {
	out := dto.SettlementLineResponse{
		ID:                       l.ID,
		SettlementID:             l.SettlementID,
		DocumentLineID:           l.DocumentLineID,
		DocumentLineName:         v.label,
		DocumentID:               v.ref.DocumentID,
		BudgetProxyLineID:        v.ref.BudgetProxyLineID,
		VATRate:                  l.VATRate,
		EligBase:                 l.Amount.Base,
		EligVAT:                  l.Amount.VAT,
		EligVATManual:            l.Amount.VATManual,
		TotalAmount:              l.Total(),
		NerambCoef:               coef,
		SettlementPanelsResponse: toPanelsResponse(l.ID, p),
	}
	if v.document != nil {
		out.DocumentNumber = v.document.Number
		out.DocumentDate = formatDate(v.document.Date)
		out.IssuerName = v.document.IssuerName
	}
	return out
}

func toRecalculatedResponse(rc *Recalculated) *dto.RecalculatedResponse {
	if rc == nil {
		return nil
	}
	out := &dto.RecalculatedResponse{Nodes: make([]string, 0, len(rc.Nodes))}
	for _, n := range rc.Nodes {
		out.Nodes = append(out.Nodes, string(n))
	}
	for _, id := range sortedKeys(rc.Budget) {
		out.BudgetLines = append(out.BudgetLines, toRollupResponse(id, rc.Budget[id]))
	}
	for _, id := range sortedKeys(rc.Panels) {
		out.SettlementPanels = append(out.SettlementPanels, toPanelsResponse(id, rc.Panels[id]))
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
