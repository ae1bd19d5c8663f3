package entity

import "time"

// Estados de una implementación.
const (
	ImplementationStateDraft      = "draft"
	ImplementationStateInProgress = "in_progress"
	ImplementationStateDone       = "done"
	ImplementationStateCancel     = "cancel"
)

// ValidImplementationState indica si el estado es uno de los admitidos.
func ValidImplementationState(s string) bool {
	switch s {
	case ImplementationStateDraft, ImplementationStateInProgress, ImplementationStateDone, ImplementationStateCancel:
		return true
	}
	return false
}

// Implementation ejecución financiera de un proyecto de financiación (una por proyecto).
// FundingProjectID es inmutable tras la creación.
type Implementation struct {
	ID                string
	FundingProjectID  string
	ResponsibleUserID string
	StartDate         *time.Time
	EndDate           *time.Time
	Description       string
	State             string
	Currency          Currency
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BudgetProxyLine refleja una línea del presupuesto de la financiación dentro de una implementación.
// Los datos del presupuesto se leen siempre de la línea maestra; los acumulados los calcula el motor.
type BudgetProxyLine struct {
	ID                  string
	ImplementationID    string
	FundingBudgetLineID string
	CreatedAt           time.Time
}

// AcquisitionProxyLine refleja una adquisición de la financiación dentro de una implementación.
type AcquisitionProxyLine struct {
	ID                   string
	ImplementationID     string
	FundingAcquisitionID string
	CreatedAt            time.Time
}

// ActivityProxyLine refleja una actividad de la financiación dentro de una implementación.
type ActivityProxyLine struct {
	ID                string
	ImplementationID  string
	FundingActivityID string
	CreatedAt         time.Time
}
