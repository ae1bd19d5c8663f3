// Package xlsx genera la hoja de cálculo con la situación completa de una implementación.
//
// Cada hoja repite la cabecera de la implementación (filas 1-5) y publica una tabla
// a partir de la fila 7 cuyas columnas llevan como título la clave del campo, tal como
// aparece en la API JSON:
//
//	Deviz            presupuesto con acumulados por línea
//	Contracte        cabeceras de contrato
//	Documente        cabeceras de documento
//	Decontari        cabeceras de decontare
//	Linii contract   líneas de contrato
//	Linii document   líneas de documento
//	Linii decontare  líneas de decontare con paneles de documento y presupuesto
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
)

// Nombres de las hojas, en el orden en que se escriben.
const (
	SheetBudget          = "Deviz"
	SheetContracts       = "Contracte"
	SheetDocuments       = "Documente"
	SheetSettlements     = "Decontari"
	SheetContractLines   = "Linii contract"
	SheetDocumentLines   = "Linii document"
	SheetSettlementLines = "Linii decontare"
)

// HeaderRow fila (1-based) de los títulos de columna; los datos empiezan en la siguiente.
const HeaderRow = 7

const emptySettlementLines = "Sin líneas de decontare para esta implementación."

type kind int

const (
	kindText kind = iota
	kindMoney
	kindPercent
	kindDate
)

// column una columna de hoja: clave publicada, formato, ancho y extractor.
type column[T any] struct {
	key   string
	kind  kind
	width float64
	value func(T) any
}

func textCol[T any](key string, width float64, v func(T) string) column[T] {
	return column[T]{key: key, kind: kindText, width: width, value: func(r T) any { return v(r) }}
}

func moneyCol[T any](key string, v func(T) decimal.Decimal) column[T] {
	return column[T]{key: key, kind: kindMoney, width: 16, value: func(r T) any { return v(r) }}
}

func pctCol[T any](key string, v func(T) decimal.Decimal) column[T] {
	return column[T]{key: key, kind: kindPercent, width: 12, value: func(r T) any { return v(r) }}
}

func dateCol[T any](key string, v func(T) string) column[T] {
	return column[T]{key: key, kind: kindDate, width: 12, value: func(r T) any { return v(r) }}
}

// StatementExporter implementa implementation.StatementExporter con excelize.
type StatementExporter struct{}

// NewStatementExporter construye el exportador.
func NewStatementExporter() *StatementExporter { return &StatementExporter{} }

// ExportStatement escribe las siete hojas y devuelve el libro serializado.
func (e *StatementExporter) ExportStatement(ctx context.Context, st *dto.StatementResponse) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("xlsx: situación vacía")
	}
	w, err := newWorkbook(st)
	if err != nil {
		return nil, err
	}
	defer w.f.Close()

	steps := []func() error{
		func() error { return writeSheet(w, SheetBudget, budgetColumns(st), st.BudgetLines, "") },
		func() error { return writeSheet(w, SheetContracts, contractColumns, st.Contracts, "") },
		func() error { return writeSheet(w, SheetDocuments, documentColumns, st.Documents, "") },
		func() error { return writeSheet(w, SheetSettlements, settlementColumns, st.Settlements, "") },
		func() error {
			return writeSheet(w, SheetContractLines, contractLineColumns, flattenContractLines(st.Contracts), "")
		},
		func() error {
			return writeSheet(w, SheetDocumentLines, documentLineColumns, flattenDocumentLines(st.Documents), "")
		},
		func() error {
			return writeSheet(w, SheetSettlementLines, settlementLineColumns, flattenSettlementLines(st.Settlements), emptySettlementLines)
		},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step(); err != nil {
			return nil, err
		}
	}
	w.f.SetActiveSheet(0)

	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: serializar libro: %w", err)
	}
	return buf.Bytes(), nil
}

// ── Libro ─────────────────────────────────────────────────────────────────────

type styles struct {
	title, header, text, money, percent int
}

type workbook struct {
	f      *excelize.File
	st     *dto.StatementResponse
	styles styles
	first  bool
}

func newWorkbook(st *dto.StatementResponse) (*workbook, error) {
	f := excelize.NewFile()
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	w := &workbook{f: f, st: st, first: true}
	var err error
	newStyle := func(style *excelize.Style) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = f.NewStyle(style)
		return id
	}
	w.styles = styles{
		title: newStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}),
		header: newStyle(&excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
			Border: border,
		}),
		text:    newStyle(&excelize.Style{Border: border}),
		money:   newStyle(&excelize.Style{NumFmt: 4, Border: border}),  // #,##0.00
		percent: newStyle(&excelize.Style{NumFmt: 10, Border: border}), // 0.00%
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx: crear estilo: %w", err)
	}
	return w, nil
}

// sheet crea la hoja (la primera reutiliza la hoja por defecto) y escribe la cabecera.
func (w *workbook) sheet(name string) error {
	if w.first {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("xlsx: renombrar hoja: %w", err)
		}
		w.first = false
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("xlsx: crear hoja %s: %w", name, err)
	}

	impl := w.st.Implementation
	if err := w.set(name, 1, 1, "Implementare", w.styles.title); err != nil {
		return err
	}
	meta := [][2]string{
		{"Proiect", impl.Name},
		{"Beneficiar", impl.BeneficiaryName},
		{"CUI", impl.BeneficiaryTaxID},
		{"Status", impl.State},
	}
	for i, m := range meta {
		if err := w.set(name, 1, i+2, m[0], w.styles.header); err != nil {
			return err
		}
		if err := w.set(name, 2, i+2, m[1], w.styles.text); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) set(sheet string, col, row int, value any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("xlsx: celda %d,%d: %w", col, row, err)
	}
	if err := w.f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("xlsx: escribir %s!%s: %w", sheet, cell, err)
	}
	return w.f.SetCellStyle(sheet, cell, cell, style)
}

func writeSheet[T any](w *workbook, name string, cols []column[T], rows []T, emptyMessage string) error {
	if err := w.sheet(name); err != nil {
		return err
	}
	for i, c := range cols {
		if err := w.set(name, i+1, HeaderRow, c.key, w.styles.header); err != nil {
			return err
		}
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(name, colName, colName, c.width); err != nil {
			return fmt.Errorf("xlsx: ancho de columna: %w", err)
		}
	}
	if len(rows) == 0 && emptyMessage != "" {
		return w.set(name, 1, HeaderRow+1, emptyMessage, w.styles.text)
	}
	for r, item := range rows {
		for i, c := range cols {
			value, style := w.render(c.kind, c.value(item))
			if err := w.set(name, i+1, HeaderRow+1+r, value, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *workbook) render(k kind, v any) (any, int) {
	switch k {
	case kindMoney:
		return v.(decimal.Decimal).InexactFloat64(), w.styles.money
	case kindPercent:
		return v.(decimal.Decimal).InexactFloat64(), w.styles.percent
	case kindDate:
		return displayDate(v.(string)), w.styles.text
	}
	return v, w.styles.text
}

// displayDate YYYY-MM-DD → DD-MM-YYYY; cualquier otro valor se deja igual.
func displayDate(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return s
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// ── Columnas ──────────────────────────────────────────────────────────────────

func budgetColumns(st *dto.StatementResponse) []column[dto.BudgetLineResponse] {
	coef := decimal.Zero
	if st.Implementation.AportCoef != nil {
		coef = *st.Implementation.AportCoef
	}
	type b = dto.BudgetLineResponse
	return []column[b]{
		textCol("nr_crt", 10, func(l b) string { return l.Number }),
		textCol("chapter", 12, func(l b) string { return l.Chapter }),
		textCol("subchapter", 12, func(l b) string { return l.Subchapter }),
		textCol("name", 40, func(l b) string { return l.Name }),
		moneyCol("chelt_elig_baza", func(l b) decimal.Decimal { return l.EligibleBase }),
		moneyCol("chelt_elig_tva", func(l b) decimal.Decimal { return l.EligibleVAT }),
		moneyCol("total_eligibil", func(l b) decimal.Decimal { return l.EligibleTotal }),
		moneyCol("chelt_neelig_baza", func(l b) decimal.Decimal { return l.NonEligibleBase }),
		moneyCol("chelt_neelig_tva", func(l b) decimal.Decimal { return l.NonEligibleVAT }),
		moneyCol("total_neeligibil", func(l b) decimal.Decimal { return l.NonEligibleTotal }),
		moneyCol("total", func(l b) decimal.Decimal { return l.PlannedTotal }),
		moneyCol("neramb_total", func(l b) decimal.Decimal { return l.NonReimbursableTotal }),
		pctCol("aport_coef", func(b) decimal.Decimal { return coef }),
		moneyCol("contract_total", func(l b) decimal.Decimal { return l.ContractTotal }),
		moneyCol("documents_elig_total", func(l b) decimal.Decimal { return l.DocumentsEligibleTotal }),
		moneyCol("documents_neelig_total", func(l b) decimal.Decimal { return l.DocumentsNonEligibleTotal }),
		moneyCol("documents_total", func(l b) decimal.Decimal { return l.DocumentsTotal }),
		moneyCol("sold_total", func(l b) decimal.Decimal { return l.SoldTotal }),
		moneyCol("settlements_total", func(l b) decimal.Decimal { return l.SettlementsTotal }),
		moneyCol("neramb_minus_settled", func(l b) decimal.Decimal { return l.NonReimbursableMinusSettled }),
		textCol("budget_proxy_line_id", 38, func(l b) string { return l.BudgetProxyLineID }),
		textCol("funding_budget_line_id", 38, func(l b) string { return l.FundingBudgetLineID }),
	}
}

var contractColumns = []column[dto.ContractResponse]{
	textCol("contract_id", 38, func(c dto.ContractResponse) string { return c.ID }),
	textCol("award_state", 12, func(c dto.ContractResponse) string { return c.AwardState }),
	textCol("contract_name", 30, func(c dto.ContractResponse) string { return c.Name }),
	textCol("contract_number", 16, func(c dto.ContractResponse) string { return c.Number }),
	dateCol("contract_date", func(c dto.ContractResponse) string { return c.Date }),
	textCol("supplier_name", 28, func(c dto.ContractResponse) string { return c.SupplierName }),
	textCol("contract_type", 12, func(c dto.ContractResponse) string { return c.Type }),
	textCol("procedure_type", 12, func(c dto.ContractResponse) string { return c.ProcedureType }),
	textCol("seap_number", 16, func(c dto.ContractResponse) string { return c.SEAPNumber }),
	dateCol("seap_date", func(c dto.ContractResponse) string { return c.SEAPDate }),
	dateCol("start_date", func(c dto.ContractResponse) string { return c.StartDate }),
	dateCol("end_date", func(c dto.ContractResponse) string { return c.EndDate }),
	moneyCol("amount_base_total", func(c dto.ContractResponse) decimal.Decimal { return c.AmountBaseTotal }),
	moneyCol("amount_vat_total", func(c dto.ContractResponse) decimal.Decimal { return c.AmountVATTotal }),
	moneyCol("amount_total", func(c dto.ContractResponse) decimal.Decimal { return c.AmountTotal }),
	textCol("activity_id", 38, func(c dto.ContractResponse) string { return c.ActivityID }),
	textCol("acquisition_id", 38, func(c dto.ContractResponse) string { return c.AcquisitionID }),
}

var documentColumns = []column[dto.DocumentResponse]{
	textCol("document_id", 38, func(d dto.DocumentResponse) string { return d.ID }),
	textCol("document_type", 12, func(d dto.DocumentResponse) string { return d.Type }),
	textCol("document_number", 16, func(d dto.DocumentResponse) string { return d.Number }),
	dateCol("document_date", func(d dto.DocumentResponse) string { return d.Date }),
	textCol("issuer_name", 28, func(d dto.DocumentResponse) string { return d.IssuerName }),
	textCol("contract_name", 30, func(d dto.DocumentResponse) string { return d.ContractName }),
	textCol("contract_id", 38, func(d dto.DocumentResponse) string { return d.ContractID }),
	moneyCol("amount_elig_base_total", func(d dto.DocumentResponse) decimal.Decimal { return d.AmountEligBaseTotal }),
	moneyCol("amount_elig_vat_total", func(d dto.DocumentResponse) decimal.Decimal { return d.AmountEligVATTotal }),
	moneyCol("amount_neelig_base_total", func(d dto.DocumentResponse) decimal.Decimal { return d.AmountNeeligBaseTotal }),
	moneyCol("amount_neelig_vat_total", func(d dto.DocumentResponse) decimal.Decimal { return d.AmountNeeligVATTotal }),
	moneyCol("amount_total", func(d dto.DocumentResponse) decimal.Decimal { return d.AmountTotal }),
}

var settlementColumns = []column[dto.SettlementResponse]{
	textCol("settlement_id", 38, func(s dto.SettlementResponse) string { return s.ID }),
	textCol("settlement_number", 16, func(s dto.SettlementResponse) string { return s.Number }),
	dateCol("settlement_date", func(s dto.SettlementResponse) string { return s.Date }),
	textCol("notes", 30, func(s dto.SettlementResponse) string { return s.Notes }),
	moneyCol("aport_valoare", func(s dto.SettlementResponse) decimal.Decimal { return s.AportValoare }),
	moneyCol("amount_elig_base_total", func(s dto.SettlementResponse) decimal.Decimal { return s.AmountEligBaseTotal }),
	moneyCol("amount_elig_vat_total", func(s dto.SettlementResponse) decimal.Decimal { return s.AmountEligVATTotal }),
	moneyCol("amount_total", func(s dto.SettlementResponse) decimal.Decimal { return s.AmountTotal }),
}

// Filas de líneas con los datos de su cabecera.

type contractLineRow struct {
	contract *dto.ContractResponse
	line     dto.ContractLineResponse
}

type documentLineRow struct {
	document *dto.DocumentResponse
	line     dto.DocumentLineResponse
}

type settlementLineRow struct {
	settlement *dto.SettlementResponse
	line       dto.SettlementLineResponse
}

func flattenContractLines(contracts []dto.ContractResponse) []contractLineRow {
	var out []contractLineRow
	for i := range contracts {
		for _, l := range contracts[i].Lines {
			out = append(out, contractLineRow{contract: &contracts[i], line: l})
		}
	}
	return out
}

func flattenDocumentLines(documents []dto.DocumentResponse) []documentLineRow {
	var out []documentLineRow
	for i := range documents {
		for _, l := range documents[i].Lines {
			out = append(out, documentLineRow{document: &documents[i], line: l})
		}
	}
	return out
}

func flattenSettlementLines(settlements []dto.SettlementResponse) []settlementLineRow {
	var out []settlementLineRow
	for i := range settlements {
		for _, l := range settlements[i].Lines {
			out = append(out, settlementLineRow{settlement: &settlements[i], line: l})
		}
	}
	return out
}

var contractLineColumns = []column[contractLineRow]{
	textCol("contract_line_id", 38, func(r contractLineRow) string { return r.line.ID }),
	textCol("contract_id", 38, func(r contractLineRow) string { return r.contract.ID }),
	textCol("contract", 30, func(r contractLineRow) string { return r.contract.DisplayName }),
	textCol("budget_proxy_line_id", 38, func(r contractLineRow) string { return r.line.BudgetProxyLineID }),
	textCol("budget_proxy_line_name", 40, func(r contractLineRow) string { return r.line.BudgetLineName }),
	moneyCol("base_amount", func(r contractLineRow) decimal.Decimal { return r.line.BaseAmount }),
	moneyCol("vat_rate", func(r contractLineRow) decimal.Decimal { return r.line.VATRate }),
	moneyCol("vat_amount", func(r contractLineRow) decimal.Decimal { return r.line.VATAmount }),
	moneyCol("total_amount", func(r contractLineRow) decimal.Decimal { return r.line.TotalAmount }),
	textCol("name", 30, func(r contractLineRow) string { return r.line.Name }),
}

var documentLineColumns = []column[documentLineRow]{
	textCol("document_line_id", 38, func(r documentLineRow) string { return r.line.ID }),
	textCol("document_id", 38, func(r documentLineRow) string { return r.document.ID }),
	textCol("document", 30, func(r documentLineRow) string { return r.document.DisplayName }),
	textCol("contract_id", 38, func(r documentLineRow) string { return r.document.ContractID }),
	textCol("contract_name", 30, func(r documentLineRow) string { return r.document.ContractName }),
	textCol("contract_line_id", 38, func(r documentLineRow) string { return r.line.ContractLineID }),
	textCol("contract_line", 30, func(r documentLineRow) string { return r.line.Name }),
	textCol("budget_proxy_line_id", 38, func(r documentLineRow) string { return r.line.BudgetProxyLineID }),
	moneyCol("vat_rate", func(r documentLineRow) decimal.Decimal { return r.line.VATRate }),
	moneyCol("elig_base_amount", func(r documentLineRow) decimal.Decimal { return r.line.EligBaseAmount }),
	moneyCol("elig_vat_amount", func(r documentLineRow) decimal.Decimal { return r.line.EligVATAmount }),
	moneyCol("elig_total_amount", func(r documentLineRow) decimal.Decimal { return r.line.EligTotalAmount }),
	moneyCol("neelig_base_amount", func(r documentLineRow) decimal.Decimal { return r.line.NeeligBaseAmount }),
	moneyCol("neelig_vat_amount", func(r documentLineRow) decimal.Decimal { return r.line.NeeligVATAmount }),
	moneyCol("neelig_total_amount", func(r documentLineRow) decimal.Decimal { return r.line.NeeligTotalAmount }),
	moneyCol("total_amount", func(r documentLineRow) decimal.Decimal { return r.line.TotalAmount }),
	textCol("notes", 30, func(r documentLineRow) string { return r.line.Notes }),
}

type sl = settlementLineRow

func panel(key string, v func(p dto.SettlementPanelsResponse) decimal.Decimal) column[sl] {
	return moneyCol(key, func(r sl) decimal.Decimal { return v(r.line.SettlementPanelsResponse) })
}

var settlementLineColumns = []column[sl]{
	textCol("settlement_line_id", 38, func(r sl) string { return r.line.ID }),
	textCol("settlement_id", 38, func(r sl) string { return r.settlement.ID }),
	textCol("decont", 24, func(r sl) string { return r.settlement.DisplayName }),
	textCol("decont_number", 16, func(r sl) string { return r.settlement.Number }),
	dateCol("decont_date", func(r sl) string { return r.settlement.Date }),
	textCol("document_line_id", 38, func(r sl) string { return r.line.DocumentLineID }),
	textCol("document_line_name", 30, func(r sl) string { return r.line.DocumentLineName }),
	textCol("document_id", 38, func(r sl) string { return r.line.DocumentID }),
	textCol("document_number", 16, func(r sl) string { return r.line.DocumentNumber }),
	dateCol("document_date", func(r sl) string { return r.line.DocumentDate }),
	textCol("issuer_name", 28, func(r sl) string { return r.line.IssuerName }),
	textCol("budget_proxy_line_id", 38, func(r sl) string { return r.line.BudgetProxyLineID }),
	moneyCol("elig_base_decontat", func(r sl) decimal.Decimal { return r.line.EligBase }),
	moneyCol("elig_vat_decontat", func(r sl) decimal.Decimal { return r.line.EligVAT }),
	moneyCol("total_decontat", func(r sl) decimal.Decimal { return r.line.TotalAmount }),
	pctCol("neramb_coef", func(r sl) decimal.Decimal { return r.line.NerambCoef }),
	panel("doc_elig_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocEligBase }),
	panel("doc_elig_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocEligVAT }),
	panel("doc_neramb_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocNerambBase }),
	panel("doc_neramb_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocNerambVAT }),
	panel("doc_settled_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocSettledBase }),
	panel("doc_settled_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocSettledVAT }),
	panel("doc_diff_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocDiffBase }),
	panel("doc_diff_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.DocDiffVAT }),
	panel("budget_elig_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetEligBase }),
	panel("budget_elig_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetEligVAT }),
	panel("budget_neramb_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetNerambBase }),
	panel("budget_neramb_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetNerambVAT }),
	panel("budget_settled_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetSettledBase }),
	panel("budget_settled_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetSettledVAT }),
	panel("budget_settled_total", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetSettledTotal }),
	panel("budget_diff_base", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetDiffBase }),
	panel("budget_diff_vat", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetDiffVAT }),
	panel("budget_diff_total", func(p dto.SettlementPanelsResponse) decimal.Decimal { return p.BudgetDiffTotal }),
}
