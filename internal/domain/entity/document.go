package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout formato de fecha usado en etiquetas y exportaciones.
const DateLayout = "2006-01-02"

// Tipos de documento justificativo.
const (
	DocumentTypeInvoice = "invoice"
	DocumentTypePayment = "payment"
	DocumentTypeBank    = "bank"
	DocumentTypePayroll = "payroll"
	DocumentTypeTravel  = "travel"
	DocumentTypeTaxes   = "taxes"
	DocumentTypeOther   = "other"
)

// Document documento justificativo (factura, pago, extracto...) asociado a un contrato.
type Document struct {
	ID               string
	ImplementationID string
	ContractID       string
	Type             string
	Number           string
	Date             time.Time
	IssuerName       string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayName "Número / Fecha".
func (d *Document) DisplayName() string {
	return joinNonEmpty(" / ", d.Number, formatDate(d.Date))
}

// DocumentLine importe de un documento imputado a una línea de contrato,
// separado en parte elegible y no elegible con una tasa de IVA común.
type DocumentLine struct {
	ID             string
	DocumentID     string
	ContractLineID string
	VATRate        decimal.Decimal
	Eligible       TaxedAmount
	NonEligible    TaxedAmount
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EligibleTotal base + IVA elegibles.
func (l *DocumentLine) EligibleTotal() decimal.Decimal { return l.Eligible.Total() }

// NonEligibleTotal base + IVA no elegibles.
func (l *DocumentLine) NonEligibleTotal() decimal.Decimal { return l.NonEligible.Total() }

// Total elegible + no elegible.
func (l *DocumentLine) Total() decimal.Decimal {
	return l.EligibleTotal().Add(l.NonEligibleTotal())
}

// ResetVAT vuelve ambos grupos al modo automático.
func (l *DocumentLine) ResetVAT(cur Currency) {
	l.Eligible.ResetAuto(l.VATRate, cur)
	l.NonEligible.ResetAuto(l.VATRate, cur)
}

// DocumentLineLabel "nr / fecha / emisor - línea de contrato - notas"; omite las partes vacías.
func DocumentLineLabel(doc *Document, cl *ContractLine, line *DocumentLine) string {
	var parts []string
	if doc != nil {
		if head := joinNonEmpty(" / ", doc.Number, formatDate(doc.Date), doc.IssuerName); head != "" {
			parts = append(parts, head)
		}
	}
	if cl != nil {
		parts = append(parts, cl.DisplayName())
	}
	if line.Notes != "" {
		parts = append(parts, line.Notes)
	}
	if len(parts) == 0 {
		return "Línea " + line.ID
	}
	return strings.Join(parts, " - ")
}

// DocumentTotals totales de cabecera derivados de las líneas.
type DocumentTotals struct {
	EligibleBase    decimal.Decimal
	EligibleVAT     decimal.Decimal
	NonEligibleBase decimal.Decimal
	NonEligibleVAT  decimal.Decimal
	Total           decimal.Decimal
}

// SumDocumentLines suma los importes elegibles y no elegibles.
func SumDocumentLines(lines []*DocumentLine) DocumentTotals {
	t := DocumentTotals{
		EligibleBase: decimal.Zero, EligibleVAT: decimal.Zero,
		NonEligibleBase: decimal.Zero, NonEligibleVAT: decimal.Zero,
	}
	for _, l := range lines {
		t.EligibleBase = t.EligibleBase.Add(l.Eligible.Base)
		t.EligibleVAT = t.EligibleVAT.Add(l.Eligible.VAT)
		t.NonEligibleBase = t.NonEligibleBase.Add(l.NonEligible.Base)
		t.NonEligibleVAT = t.NonEligibleVAT.Add(l.NonEligible.VAT)
	}
	t.Total = t.EligibleBase.Add(t.EligibleVAT).Add(t.NonEligibleBase).Add(t.NonEligibleVAT)
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
