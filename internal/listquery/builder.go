// Package listquery turns the untrusted page/limit/search/filter/sort
// parameters of a list endpoint into a parameterized SQL fragment set.
//
// Both the events and the scraped-venues listings are built on this package,
// so they behave identically given the same parameter shapes. The contract:
//
//   - Every VALUE from the client is bound to a positional parameter.
//     Nothing the caller passes in Params is ever spliced into the SQL text.
//   - IDENTIFIERS (the sort column) cannot be parameter-bound, so they are
//     validated against an allow-list and silently replaced by the default
//     when they don't match. Raw input never reaches the ORDER BY clause.
//   - The WHERE clause and its arguments are shared verbatim between the
//     COUNT(*) query and the page query; only ORDER BY / LIMIT / OFFSET are
//     appended for the page fetch.
//
// PLACEHOLDER STYLES:
// SQLite and MySQL bind with `?`, Postgres with `$1, $2, ...`. The builder
// renders either style so the repository layer can switch stores without
// touching list-endpoint logic. Positional parameters are not reusable
// across those dialects, which is why a search term is bound once per
// searched column instead of referencing a single parameter three times.
package listquery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adlane/eventhub/internal/model"
)

// Style selects the positional placeholder syntax to render.
type Style int

const (
	// Question renders `?` placeholders (SQLite, MySQL).
	Question Style = iota
	// Dollar renders `$1`-style placeholders (Postgres).
	Dollar
)

// Filter is one optional equality predicate. Column names come from the
// calling service, never from the client; only Value is untrusted.
type Filter struct {
	Column string
	Value  string
}

// Params carries the raw, untrusted query parameters of a list request.
// Page and Limit stay strings here so the coercion rules (non-numeric or
// non-positive input falls back to defaults) live in one place.
type Params struct {
	Page    string
	Limit   string
	Search  string
	Filters []Filter // applied in slice order, so SQL output is deterministic
	Sort    string
	Order   string
}

// Config is the per-endpoint shape of a listing: which columns may be
// sorted on, which are searched, and the endpoint's default page size.
type Config struct {
	AllowedSortColumns []string
	DefaultSortColumn  string
	SearchColumns      []string
	DefaultLimit       int
	Style              Style
}

// Query is the built result. It is immutable except for ClampLimit, which
// callers may use to cap the page size (the builder itself enforces no
// upper bound on limit).
type Query struct {
	where     string
	args      []any
	sortCol   string
	sortDir   string
	page      int
	limit     int
	style     Style
	argsBound int // count of bound filter/search args, for $n numbering
}

// Build converts params into a Query using the endpoint config.
// Repeated calls with identical input produce syntactically identical SQL:
// filters are appended in their declared order, search last.
func Build(p Params, cfg Config) Query {
	q := Query{style: cfg.Style}

	// Always-true base predicate, so every further predicate can be
	// appended with AND unconditionally.
	predicates := []string{"1=1"}

	for _, f := range p.Filters {
		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}
		predicates = append(predicates, fmt.Sprintf("%s = %s", f.Column, q.nextPlaceholder()))
		q.args = append(q.args, value)
	}

	if term := strings.TrimSpace(p.Search); term != "" && len(cfg.SearchColumns) > 0 {
		// One bound copy of the wrapped term per searched column.
		bound := "%" + strings.ToLower(term) + "%"
		parts := make([]string, 0, len(cfg.SearchColumns))
		for _, col := range cfg.SearchColumns {
			parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE %s", col, q.nextPlaceholder()))
			q.args = append(q.args, bound)
		}
		predicates = append(predicates, "("+strings.Join(parts, " OR ")+")")
	}

	q.where = "WHERE " + strings.Join(predicates, " AND ")

	q.sortCol = cfg.DefaultSortColumn
	for _, col := range cfg.AllowedSortColumns {
		if p.Sort == col {
			q.sortCol = col
			break
		}
	}

	q.sortDir = "ASC"
	if strings.EqualFold(strings.TrimSpace(p.Order), "DESC") {
		q.sortDir = "DESC"
	}

	q.page = coercePositive(p.Page, 1)
	q.limit = coercePositive(p.Limit, cfg.DefaultLimit)

	return q
}

// nextPlaceholder returns the placeholder for the next bound argument.
func (q *Query) nextPlaceholder() string {
	q.argsBound++
	if q.style == Dollar {
		return fmt.Sprintf("$%d", q.argsBound)
	}
	return "?"
}

// coercePositive parses raw as a positive integer, falling back to def for
// missing, non-numeric, zero, or negative input.
func coercePositive(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Where returns the full WHERE clause, identical for the count query and
// the page query.
func (q Query) Where() string {
	return q.where
}

// Args returns the bound values matching Where, in placeholder order.
func (q Query) Args() []any {
	return q.args
}

// OrderBy returns the ORDER BY clause. The column is always one of the
// endpoint's allow-listed identifiers, the direction exactly ASC or DESC.
func (q Query) OrderBy() string {
	return fmt.Sprintf("ORDER BY %s %s", q.sortCol, q.sortDir)
}

// LimitOffset returns the LIMIT/OFFSET clause with two more placeholders.
// Use PageArgs for the matching argument list.
func (q Query) LimitOffset() string {
	if q.style == Dollar {
		return fmt.Sprintf("LIMIT $%d OFFSET $%d", q.argsBound+1, q.argsBound+2)
	}
	return "LIMIT ? OFFSET ?"
}

// PageArgs returns Args plus the bound limit and offset values, for use
// with Where + OrderBy + LimitOffset.
func (q Query) PageArgs() []any {
	out := make([]any, 0, len(q.args)+2)
	out = append(out, q.args...)
	return append(out, q.limit, q.Offset())
}

// Page returns the resolved page number (>= 1).
func (q Query) Page() int { return q.page }

// Limit returns the resolved page size (>= 1, uncapped by the builder).
func (q Query) Limit() int { return q.limit }

// Offset returns (page-1) * limit.
func (q Query) Offset() int { return (q.page - 1) * q.limit }

// ClampLimit caps the page size at max (ignored when max <= 0). The offset
// follows the clamped limit. The builder deliberately leaves limit
// unbounded; endpoints that face untrusted input apply their own cap here.
func (q *Query) ClampLimit(max int) {
	if max > 0 && q.limit > max {
		q.limit = max
	}
}

// Pagination derives the response metadata for a total row count.
func (q Query) Pagination(total int) model.Pagination {
	return model.NewPagination(q.page, q.limit, total)
}
