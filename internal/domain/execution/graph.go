package execution

import "sort"

// Field campo persistido cuyo cambio puede invalidar valores calculados ("entidad.campo").
type Field string

// Node valor calculado del modelo.
type Node string

// Campos de origen.
const (
	FieldContractLineBudget   Field = "contract_line.budget_proxy_line"
	FieldContractLineAmount   Field = "contract_line.amount"
	FieldContractLineContract Field = "contract_line.contract"
	FieldContractActivity     Field = "contract.activity"
	FieldContractAcquisition  Field = "contract.acquisition"
	FieldContractDates        Field = "contract.dates"
	FieldDocumentContract     Field = "document.contract"
	FieldDocumentLineContract Field = "document_line.contract_line"
	FieldDocumentLineAmount   Field = "document_line.amount"
	FieldDocumentLineDocument Field = "document_line.document"
	FieldSettlementLineDoc    Field = "settlement_line.document_line"
	FieldSettlementLineAmount Field = "settlement_line.amount"
	FieldSettlementLineHeader Field = "settlement_line.settlement"
	FieldFundingCoefficient   Field = "funding.contribution_coefficient"
	FieldFundingBudgetPlan    Field = "funding.budget_line"
)

// Valores calculados.
const (
	NodeContractTotals        Node = "contract.totals"
	NodeDocumentTotals        Node = "document.totals"
	NodeSettlementTotals      Node = "settlement.totals"
	NodeDocumentCeiling       Node = "document.ceiling"
	NodeBudgetRollups         Node = "budget_proxy_line.rollups"
	NodeSettlementPanels      Node = "settlement_line.panels"
	NodeAcquisitionContracted Node = "acquisition_proxy_line.contracted"
	NodeActivityDates         Node = "activity_proxy_line.dates"
)

// Graph grafo de dependencias: cada nodo declara los campos y nodos de los que depende.
type Graph struct {
	fieldDeps map[Field][]Node
	nodeDeps  map[Node][]Node
}

// NewGraph crea un grafo vacío.
func NewGraph() *Graph {
	return &Graph{fieldDeps: make(map[Field][]Node), nodeDeps: make(map[Node][]Node)}
}

// DependsOnFields declara que n se calcula a partir de los campos dados.
func (g *Graph) DependsOnFields(n Node, fields ...Field) *Graph {
	for _, f := range fields {
		g.fieldDeps[f] = append(g.fieldDeps[f], n)
	}
	return g
}

// DependsOnNodes declara que n se calcula a partir de otros nodos.
func (g *Graph) DependsOnNodes(n Node, upstream ...Node) *Graph {
	for _, u := range upstream {
		g.nodeDeps[u] = append(g.nodeDeps[u], n)
	}
	return g
}

// Downstream devuelve, ordenado, el cierre de nodos afectados por el cambio de los campos.
func (g *Graph) Downstream(fields ...Field) []Node {
	seen := make(map[Node]bool)
	var queue []Node
	for _, f := range fields {
		for _, n := range g.fieldDeps[f] {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range g.nodeDeps[n] {
			if !seen[d] {
				seen[d] = true
				queue = append(queue, d)
			}
		}
	}
	out := make([]Node, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Affects indica si el cambio de los campos alcanza el nodo n.
func (g *Graph) Affects(n Node, fields ...Field) bool {
	for _, d := range g.Downstream(fields...) {
		if d == n {
			return true
		}
	}
	return false
}

// ExecutionGraph dependencias de todos los valores calculados de la ejecución financiera.
func ExecutionGraph() *Graph {
	return NewGraph().
		DependsOnFields(NodeContractTotals, FieldContractLineAmount, FieldContractLineContract).
		DependsOnFields(NodeDocumentTotals, FieldDocumentLineAmount, FieldDocumentLineDocument).
		DependsOnFields(NodeSettlementTotals, FieldSettlementLineAmount, FieldSettlementLineHeader).
		DependsOnFields(NodeDocumentCeiling, FieldDocumentContract, FieldDocumentLineContract).
		DependsOnNodes(NodeDocumentCeiling, NodeContractTotals, NodeDocumentTotals).
		DependsOnFields(NodeBudgetRollups,
			FieldContractLineBudget, FieldContractLineAmount, FieldContractLineContract,
			FieldDocumentLineContract, FieldDocumentLineAmount, FieldDocumentLineDocument, FieldDocumentContract,
			FieldSettlementLineDoc, FieldSettlementLineAmount,
			FieldFundingCoefficient, FieldFundingBudgetPlan).
		DependsOnFields(NodeSettlementPanels,
			FieldSettlementLineDoc, FieldSettlementLineAmount,
			FieldDocumentLineAmount, FieldDocumentLineContract, FieldContractLineBudget,
			FieldFundingCoefficient, FieldFundingBudgetPlan).
		DependsOnFields(NodeAcquisitionContracted, FieldContractAcquisition, FieldContractLineAmount, FieldContractLineContract).
		DependsOnFields(NodeActivityDates, FieldContractActivity, FieldContractDates)
}
