// Package memory implementa los repositorios sobre un estado en memoria con transacciones
// de copia: cada transacción trabaja sobre un clon del estado que solo se publica si la
// función termina sin error. Sirve para pruebas y ejecuciones locales (STORAGE_DRIVER=memory).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// table filas de un tipo indexadas por ID, con orden de inserción estable.
type table[T any] struct {
	rows map[string]row[T]
	next int64
}

type row[T any] struct {
	seq int64
	v   T
}

func newTable[T any]() table[T] { return table[T]{rows: make(map[string]row[T])} }

func (t *table[T]) put(id string, v T) {
	r, ok := t.rows[id]
	if !ok {
		t.next++
		r.seq = t.next
	}
	r.v = v
	t.rows[id] = r
}

func (t *table[T]) get(id string) (T, bool) {
	r, ok := t.rows[id]
	return r.v, ok
}

func (t *table[T]) has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) remove(id string) { delete(t.rows, id) }

// list filas que cumplen keep, en orden de inserción.
func (t *table[T]) list(keep func(T) bool) []T {
	rs := make([]row[T], 0, len(t.rows))
	for _, r := range t.rows {
		if keep == nil || keep(r.v) {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].seq < rs[j].seq })
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.v)
	}
	return out
}

func (t *table[T]) count(keep func(T) bool) int {
	n := 0
	for _, r := range t.rows {
		if keep(r.v) {
			n++
		}
	}
	return n
}

func (t table[T]) clone() table[T] {
	c := table[T]{rows: make(map[string]row[T], len(t.rows)), next: t.next}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

// state datos de financiación (solo lectura para los casos de uso) y de ejecución.
type state struct {
	projects        table[entity.FundingProject]
	budgetLines     table[entity.BudgetLine]
	activities      table[entity.Activity]
	acquisitions    table[entity.Acquisition]
	implementations table[entity.Implementation]
	proxies         table[entity.BudgetProxyLine]
	acqProxies      table[entity.AcquisitionProxyLine]
	actProxies      table[entity.ActivityProxyLine]
	contracts       table[entity.Contract]
	contractLines   table[entity.ContractLine]
	documents       table[entity.Document]
	documentLines   table[entity.DocumentLine]
	settlements     table[entity.Settlement]
	settlementLines table[entity.SettlementLine]
}

func newState() *state {
	return &state{
		projects:        newTable[entity.FundingProject](),
		budgetLines:     newTable[entity.BudgetLine](),
		activities:      newTable[entity.Activity](),
		acquisitions:    newTable[entity.Acquisition](),
		implementations: newTable[entity.Implementation](),
		proxies:         newTable[entity.BudgetProxyLine](),
		acqProxies:      newTable[entity.AcquisitionProxyLine](),
		actProxies:      newTable[entity.ActivityProxyLine](),
		contracts:       newTable[entity.Contract](),
		contractLines:   newTable[entity.ContractLine](),
		documents:       newTable[entity.Document](),
		documentLines:   newTable[entity.DocumentLine](),
		settlements:     newTable[entity.Settlement](),
		settlementLines: newTable[entity.SettlementLine](),
	}
}

func (s *state) clone() *state {
	return &state{
		projects:        s.projects.clone(),
		budgetLines:     s.budgetLines.clone(),
		activities:      s.activities.clone(),
		acquisitions:    s.acquisitions.clone(),
		implementations: s.implementations.clone(),
		proxies:         s.proxies.clone(),
		acqProxies:      s.acqProxies.clone(),
		actProxies:      s.actProxies.clone(),
		contracts:       s.contracts.clone(),
		contractLines:   s.contractLines.clone(),
		documents:       s.documents.clone(),
		documentLines:   s.documentLines.clone(),
		settlements:     s.settlements.clone(),
		settlementLines: s.settlementLines.clone(),
	}
}

// Store estado en memoria protegido por un único mutex. Las transacciones se serializan,
// lo que equivale a bloquear cada implementación.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Repositories repositorios fuera de transacción: cada llamada ve el último estado confirmado.
func (s *Store) Repositories() implementation.Repositories {
	return repositoriesFor(&view{store: s})
}

// Run implementa implementation.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(r implementation.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := s.state.clone()
	if err := fn(repositoriesFor(&view{store: s, tx: tx})); err != nil {
		return err
	}
	s.state = tx
	return nil
}

var _ implementation.TxRunner = (*Store)(nil)

// AddFundingProject carga un proyecto de financiación (datos maestros externos).
func (s *Store) AddFundingProject(p entity.FundingProject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.projects.put(p.ID, p)
}

// AddBudgetLine carga una línea del presupuesto maestro.
func (s *Store) AddBudgetLine(l entity.BudgetLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.budgetLines.put(l.ID, l)
}

// AddActivity carga una actividad del proyecto financiado.
func (s *Store) AddActivity(a entity.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.activities.put(a.ID, a)
}

// AddAcquisition carga una adquisición del proyecto financiado.
func (s *Store) AddAcquisition(a entity.Acquisition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.acquisitions.put(a.ID, a)
}

// view acceso al estado: dentro de una transacción usa el clon (el mutex ya está tomado);
// fuera, toma el mutex en cada operación.
type view struct {
	store *Store
	tx    *state
}

func (v *view) read(fn func(st *state)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	fn(v.store.state)
}

func (v *view) write(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func set(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// page aplica offset y límite; límite <= 0 = sin límite.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func ptrs[T any](items []T) []*T {
	out := make([]*T, 0, len(items))
	for i := range items {
		out = append(out, &items[i])
	}
	return out
}
