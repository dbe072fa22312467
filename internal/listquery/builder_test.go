package listquery

import (
	"strings"
	"testing"
)

// eventsConfig mirrors the events endpoint: three searched text columns,
// four sortable columns, default page size 6.
func eventsConfig() Config {
	return Config{
		AllowedSortColumns: []string{"date", "name", "price", "created_at"},
		DefaultSortColumn:  "date",
		SearchColumns:      []string{"name", "location", "description"},
		DefaultLimit:       6,
		Style:              Question,
	}
}

// =========================================================================
// PAGE / LIMIT COERCION
// =========================================================================

func TestBuild_OffsetFromPageAndLimit(t *testing.T) {
	q := Build(Params{Page: "2", Limit: "10"}, eventsConfig())

	if q.Page() != 2 {
		t.Errorf("Page() = %d, want 2", q.Page())
	}
	if q.Limit() != 10 {
		t.Errorf("Limit() = %d, want 10", q.Limit())
	}
	if q.Offset() != 10 {
		t.Errorf("Offset() = %d, want 10", q.Offset())
	}
}

func TestBuild_PageFallbacks(t *testing.T) {
	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		q := Build(Params{Page: raw}, eventsConfig())
		if q.Page() != 1 {
			t.Errorf("Page(%q) = %d, want fallback 1", raw, q.Page())
		}
		if q.Offset() != 0 {
			t.Errorf("Offset(%q) = %d, want 0", raw, q.Offset())
		}
	}
}

func TestBuild_LimitFallsBackToEndpointDefault(t *testing.T) {
	q := Build(Params{Limit: "nope"}, eventsConfig())
	if q.Limit() != 6 {
		t.Errorf("Limit() = %d, want endpoint default 6", q.Limit())
	}
}

func TestBuild_LimitIsUncapped(t *testing.T) {
	// The builder enforces no upper bound; that is the caller's job.
	q := Build(Params{Limit: "100000"}, eventsConfig())
	if q.Limit() != 100000 {
		t.Errorf("Limit() = %d, want 100000", q.Limit())
	}
}

func TestClampLimit(t *testing.T) {
	q := Build(Params{Page: "3", Limit: "500"}, eventsConfig())
	q.ClampLimit(100)

	if q.Limit() != 100 {
		t.Errorf("Limit() after clamp = %d, want 100", q.Limit())
	}
	if q.Offset() != 200 {
		t.Errorf("Offset() after clamp = %d, want 200", q.Offset())
	}
}

// =========================================================================
// FILTERS AND SEARCH
// =========================================================================

func TestBuild_NoParams(t *testing.T) {
	q := Build(Params{}, eventsConfig())

	if q.Where() != "WHERE 1=1" {
		t.Errorf("Where() = %q, want base predicate only", q.Where())
	}
	if len(q.Args()) != 0 {
		t.Errorf("Args() = %v, want none", q.Args())
	}
}

func TestBuild_EqualityFiltersInDeclaredOrder(t *testing.T) {
	p := Params{
		Filters: []Filter{
			{Column: "type", Value: "concert"},
			{Column: "status", Value: "upcoming"},
		},
	}
	q := Build(p, eventsConfig())

	want := "WHERE 1=1 AND type = ? AND status = ?"
	if q.Where() != want {
		t.Errorf("Where() = %q, want %q", q.Where(), want)
	}
	if len(q.Args()) != 2 || q.Args()[0] != "concert" || q.Args()[1] != "upcoming" {
		t.Errorf("Args() = %v, want [concert upcoming]", q.Args())
	}
}

func TestBuild_EmptyFilterValuesSkipped(t *testing.T) {
	p := Params{
		Filters: []Filter{
			{Column: "type", Value: "  "},
			{Column: "status", Value: "upcoming"},
		},
	}
	q := Build(p, eventsConfig())

	want := "WHERE 1=1 AND status = ?"
	if q.Where() != want {
		t.Errorf("Where() = %q, want %q", q.Where(), want)
	}
}

func TestBuild_SearchBindsOneCopyPerColumn(t *testing.T) {
	q := Build(Params{Search: "jazz"}, eventsConfig())

	want := "WHERE 1=1 AND (LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(description) LIKE ?)"
	if q.Where() != want {
		t.Errorf("Where() = %q, want %q", q.Where(), want)
	}

	args := q.Args()
	if len(args) != 3 {
		t.Fatalf("Args() has %d values, want 3 (one per searched column)", len(args))
	}
	for i, a := range args {
		if a != "%jazz%" {
			t.Errorf("Args()[%d] = %v, want %%jazz%%", i, a)
		}
	}
}

func TestBuild_SearchValueNeverInSQL(t *testing.T) {
	q := Build(Params{Search: "'; DROP TABLE events;--"}, eventsConfig())

	if strings.Contains(q.Where(), "DROP") {
		t.Fatalf("search input leaked into SQL text: %q", q.Where())
	}
}

func TestBuild_Deterministic(t *testing.T) {
	p := Params{
		Search: "jazz",
		Filters: []Filter{
			{Column: "type", Value: "concert"},
			{Column: "status", Value: "upcoming"},
		},
		Sort: "price", Order: "desc", Page: "4", Limit: "12",
	}
	a := Build(p, eventsConfig())
	b := Build(p, eventsConfig())

	if a.Where() != b.Where() || a.OrderBy() != b.OrderBy() {
		t.Error("identical input produced different SQL")
	}
}

// =========================================================================
// SORT ALLOW-LIST
// =========================================================================

func TestBuild_SortAllowListed(t *testing.T) {
	q := Build(Params{Sort: "price", Order: "DESC"}, eventsConfig())
	if q.OrderBy() != "ORDER BY price DESC" {
		t.Errorf("OrderBy() = %q", q.OrderBy())
	}
}

func TestBuild_SortInjectionFallsBackToDefault(t *testing.T) {
	q := Build(Params{Sort: "'; DROP TABLE events;--"}, Config{
		AllowedSortColumns: []string{"date", "name"},
		DefaultSortColumn:  "date",
		DefaultLimit:       6,
	})

	if q.OrderBy() != "ORDER BY date ASC" {
		t.Errorf("OrderBy() = %q, want default column", q.OrderBy())
	}
	if strings.Contains(q.OrderBy(), "DROP") {
		t.Fatal("raw sort input reached the ORDER BY clause")
	}
}

func TestBuild_OrderNormalized(t *testing.T) {
	cases := map[string]string{
		"desc":      "DESC",
		"DESC":      "DESC",
		"asc":       "ASC",
		"":          "ASC",
		"sideways":  "ASC",
		"; DELETE":  "ASC",
	}
	for raw, want := range cases {
		q := Build(Params{Order: raw}, eventsConfig())
		if !strings.HasSuffix(q.OrderBy(), " "+want) {
			t.Errorf("Order %q: OrderBy() = %q, want direction %s", raw, q.OrderBy(), want)
		}
	}
}

// =========================================================================
// COUNT / PAGE PARITY AND PLACEHOLDER STYLES
// =========================================================================

func TestBuild_CountAndPageShareWhereAndArgs(t *testing.T) {
	p := Params{Search: "jazz", Filters: []Filter{{Column: "type", Value: "concert"}}}
	q := Build(p, eventsConfig())

	countSQL := "SELECT COUNT(*) FROM events " + q.Where()
	pageSQL := "SELECT * FROM events " + q.Where() + " " + q.OrderBy() + " " + q.LimitOffset()

	// The page query must start from exactly the count query's predicate.
	if !strings.Contains(pageSQL, q.Where()) || !strings.Contains(countSQL, q.Where()) {
		t.Fatal("count and page queries do not share the WHERE clause")
	}

	pageArgs := q.PageArgs()
	if len(pageArgs) != len(q.Args())+2 {
		t.Fatalf("PageArgs() has %d values, want %d", len(pageArgs), len(q.Args())+2)
	}
	for i, a := range q.Args() {
		if pageArgs[i] != a {
			t.Errorf("PageArgs()[%d] = %v, diverges from count args", i, a)
		}
	}
}

func TestBuild_DollarPlaceholders(t *testing.T) {
	cfg := eventsConfig()
	cfg.Style = Dollar

	q := Build(Params{
		Search:  "jazz",
		Filters: []Filter{{Column: "type", Value: "concert"}},
	}, cfg)

	want := "WHERE 1=1 AND type = $1 AND (LOWER(name) LIKE $2 OR LOWER(location) LIKE $3 OR LOWER(description) LIKE $4)"
	if q.Where() != want {
		t.Errorf("Where() = %q, want %q", q.Where(), want)
	}
	if q.LimitOffset() != "LIMIT $5 OFFSET $6" {
		t.Errorf("LimitOffset() = %q, want LIMIT $5 OFFSET $6", q.LimitOffset())
	}
}

func TestPagination(t *testing.T) {
	q := Build(Params{Page: "2", Limit: "10"}, eventsConfig())

	pg := q.Pagination(35)
	if pg.TotalPages != 4 {
		t.Errorf("TotalPages = %d, want 4", pg.TotalPages)
	}
	if !pg.HasMore {
		t.Error("HasMore = false, want true on page 2 of 4")
	}

	last := Build(Params{Page: "4", Limit: "10"}, eventsConfig()).Pagination(35)
	if last.HasMore {
		t.Error("HasMore = true on the final page")
	}
}
