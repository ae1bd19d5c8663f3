package execution

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// AcquisitionContracted importes contratados por adquisición: suma de las líneas de los contratos
// que apuntan a cada adquisición.
func AcquisitionContracted(contracts []*entity.Contract, lines []*entity.ContractLine) map[string]entity.ContractTotals {
	byContract := make(map[string]string, len(contracts))
	for _, c := range contracts {
		if c.AcquisitionID != "" {
			byContract[c.ID] = c.AcquisitionID
		}
	}
	grouped := make(map[string][]*entity.ContractLine)
	for _, l := range lines {
		if acq, ok := byContract[l.ContractID]; ok {
			grouped[acq] = append(grouped[acq], l)
		}
	}
	out := make(map[string]entity.ContractTotals, len(grouped))
	for acq, ls := range grouped {
		out[acq] = entity.SumContractLines(ls)
	}
	return out
}

// DateBounds primera fecha de inicio y última fecha de fin.
type DateBounds struct {
	Start *time.Time
	End   *time.Time
}

// ActivityDateBounds fechas de los contratos agrupadas por actividad.
func ActivityDateBounds(contracts []*entity.Contract) map[string]DateBounds {
	out := make(map[string]DateBounds)
	for _, c := range contracts {
		if c.ActivityID == "" {
			continue
		}
		b := out[c.ActivityID]
		if c.StartDate != nil && (b.Start == nil || c.StartDate.Before(*b.Start)) {
			b.Start = c.StartDate
		}
		if c.EndDate != nil && (b.End == nil || c.EndDate.After(*b.End)) {
			b.End = c.EndDate
		}
		out[c.ActivityID] = b
	}
	return out
}

// ZeroContractTotals totales de contrato a cero.
func ZeroContractTotals() entity.ContractTotals {
	return entity.ContractTotals{Base: decimal.Zero, VAT: decimal.Zero, Total: decimal.Zero}
}
