package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Implementacion-api/internal/domain"
)

// Querier abstrae pool y transacción: los repositorios funcionan igual con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation 23503: la fila todavía está referenciada o la referencia no existe.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// isInvalidText 22P02: el parámetro no se pudo convertir al tipo de la columna (un UUID malformado).
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22P02"
	}
	return false
}

// notFoundOnInvalidText un ID que no se puede convertir no identifica ninguna fila: ErrNotFound.
func notFoundOnInvalidText(err error) error {
	if err != nil && isInvalidText(err) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, err.Error())
	}
	return err
}

// idQuerier traduce 22P02 a domain.ErrNotFound en todas las consultas de los repositorios.
type idQuerier struct {
	q Querier
}

func (q idQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tag, err := q.q.Exec(ctx, sql, args...)
	return tag, notFoundOnInvalidText(err)
}

func (q idQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := q.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, notFoundOnInvalidText(err)
	}
	return idRows{Rows: rows}, nil
}

func (q idQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return idRow{row: q.q.QueryRow(ctx, sql, args...)}
}

type idRow struct {
	row pgx.Row
}

func (r idRow) Scan(dest ...any) error {
	return notFoundOnInvalidText(r.row.Scan(dest...))
}

type idRows struct {
	pgx.Rows
}

func (r idRows) Err() error {
	return notFoundOnInvalidText(r.Rows.Err())
}

// duplicate traduce una violación de unicidad a DUPLICATE_REFERENCE; otros errores pasan tal cual.
func duplicate(err error, format string, args ...any) error {
	if isUniqueViolation(err) {
		return domain.NewValidationError(domain.CodeDuplicateReference, format, args...)
	}
	return err
}

// isUUID las claves de la ejecución son UUID; un ID con otro formato no puede existir.
func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

// dateOrNil fecha sin hora para columnas DATE.
func dateOrNil(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}

// notFoundOnNoRows convierte pgx.ErrNoRows (o un ID no convertible) en (nil, nil), la convención de GetByID.
func notFoundOnNoRows[T any](v *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, domain.ErrNotFound) || isInvalidText(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// collect recorre filas con scan y devuelve la lista (vacía, nunca nil).
func collect[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// limitOffset cláusula LIMIT/OFFSET; límite <= 0 = sin límite.
func limitOffset(limit, offset int) (string, []any) {
	var sb strings.Builder
	var args []any
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	if offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, offset)
	}
	return sb.String(), args
}

// where acumula condiciones con placeholders "?" que bind numera como $n.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// bind compone "base WHERE ... suffix" con los placeholders numerados.
func (w *where) bind(base, suffix string, extra ...any) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)
	if len(w.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(w.conds, " AND "))
	}
	sb.WriteString(suffix)
	args := append(append([]any{}, w.args...), extra...)
	return numberPlaceholders(sb.String()), args
}

func numberPlaceholders(q string) string {
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// likePattern patrón ILIKE con los comodines escapados.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
