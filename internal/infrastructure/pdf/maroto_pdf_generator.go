// Package pdf genera el PDF de una decontare (solicitud de reembolso).
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Proyecto + código    │  N° decontare + fecha        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  BENEFICIARIO: nombre + CUI + coeficiente de aporte          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Documento | Línea | Base | IVA | Total | Dif. deviz  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Base elegible / IVA elegible / TOTAL DECONTARE     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa implementation.SettlementPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateSettlementPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateSettlementPDF(
	_ context.Context,
	impl *dto.ImplementationResponse,
	s *dto.SettlementResponse,
) ([]byte, error) {
	if impl == nil || s == nil {
		return nil, fmt.Errorf("pdf: implementación y decontare son obligatorias")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Decontare "+s.Number, true).
		WithAuthor(impl.BeneficiaryName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(impl, s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(beneficiaryRow(impl, s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(s.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(s))
	if s.Notes != "" {
		m.AddRows(notesRow(s.Notes))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: proyecto + código (izq) y N° decontare + fecha (der).
func headerRow(impl *dto.ImplementationResponse, s *dto.SettlementResponse) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(impl.Name, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("Cod proiect: "+nonEmpty(impl.Code, "—"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("CERERE DE RAMBURSARE", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Nr. "+s.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Data: "+displayDate(s.Date), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// beneficiaryRow: beneficiario y aporte propio.
func beneficiaryRow(impl *dto.ImplementationResponse, s *dto.SettlementResponse) core.Row {
	coef := "—"
	if impl.AportCoef != nil {
		coef = impl.AportCoef.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("BENEFICIAR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(impl.BeneficiaryName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("CUI: %s   |   Coeficient aport: %s   |   Aport: %s %s",
				nonEmpty(impl.BeneficiaryTaxID, "—"),
				coef,
				formatMoney(s.AportValoare),
				impl.Currency,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Document", 3, align.Left),
		h("Linie", 3, align.Left),
		h("Bază", 2, align.Right),
		h("TVA", 1, align.Right),
		h("Total", 2, align.Right),
		h("Dif. deviz", 1, align.Right),
	)
}

// tableDetailRows: una fila por línea de decontare; la diferencia de presupuesto
// negativa se marca en rojo.
func tableDetailRows(lines []dto.SettlementLineResponse) []core.Row {
	result := make([]core.Row, 0, len(lines))
	cell := func(s string, a align.Type) core.Component {
		return text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1})
	}
	for _, l := range lines {
		diff := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if l.BudgetDiffTotal.IsNegative() {
			diff.Color = colorRed
		}
		doc := strings.TrimSpace(l.DocumentNumber + " " + displayDate(l.DocumentDate))
		result = append(result, row.New(7).Add(
			col.New(3).Add(cell(nonEmpty(doc, "—"), align.Left)),
			col.New(3).Add(cell(nonEmpty(l.DocumentLineName, "—"), align.Left)),
			col.New(2).Add(cell(formatMoney(l.EligBase), align.Right)),
			col.New(1).Add(cell(formatMoney(l.EligVAT), align.Right)),
			col.New(2).Add(cell(formatMoney(l.TotalAmount), align.Right)),
			col.New(1).Add(text.New(formatMoney(l.BudgetDiffTotal), diff)),
		))
	}
	if len(lines) == 0 {
		result = append(result, row.New(7).Add(col.New(12).Add(
			text.New("Fără linii de decontare.", props.Text{Size: 8, Top: 1, Color: colorGray}),
		)))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(s *dto.SettlementResponse) core.Row {
	label := func(v string) core.Component {
		return text.New(v, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(v string) core.Component {
		return text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary}

	return row.New(20).Add(
		col.New(4),
		col.New(4).Add(
			label("Bază eligibilă:"),
			label("TVA eligibil:"),
			text.New("TOTAL DECONTARE:", grand),
		),
		col.New(3).Add(
			value(formatMoney(s.AmountEligBaseTotal)),
			value(formatMoney(s.AmountEligVATTotal)),
			text.New(formatMoney(s.AmountTotal), grand),
		),
		col.New(1),
	)
}

func notesRow(notes string) core.Row {
	return row.New(10).Add(col.New(12).Add(
		text.New("Observații: "+notes, props.Text{Size: 7, Color: colorGray, Top: 3}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// displayDate YYYY-MM-DD → DD.MM.YYYY.
func displayDate(s string) string {
	p := strings.Split(s, "-")
	if len(p) != 3 {
		return s
	}
	return p[2] + "." + p[1] + "." + p[0]
}

// formatMoney dos decimales con punto de miles y coma decimal.
// Ej: 1234567.8 → "1.234.567,80", -25 → "-25,00"
func formatMoney(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	if v.IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	buf = append(buf, ',')
	buf = append(buf, frac...)
	return string(buf)
}
