package repository

import (
	"strings"
)

// Page carries the optional offset/limit/order parameters accepted by every
// listing endpoint.  Zero values mean "not requested".
type Page struct {
	Offset int
	Limit  int
	Order  string
	Desc   bool
}

// noLimit is the largest LIMIT MySQL accepts; it lets OFFSET be used alone.
const noLimit uint64 = 18446744073709551615

// orderClause resolves the requested sort key against a fixed allow-list of
// column references.  Keys outside the list are ignored and the fallback
// column is used in ascending order, so request input never reaches the
// SQL text.
func orderClause(allowed map[string]string, p Page, fallback string) string {
	col, ok := allowed[strings.TrimSpace(p.Order)]
	if !ok {
		return " ORDER BY " + fallback + " ASC"
	}
	dir := "ASC"
	if p.Desc {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

// limitClause renders LIMIT/OFFSET placeholders and their arguments.
func limitClause(p Page) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	switch {
	case p.Limit > 0:
		b.WriteString(" LIMIT ?")
		args = append(args, p.Limit)
	case p.Offset > 0:
		b.WriteString(" LIMIT ?")
		args = append(args, noLimit)
	}
	if p.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, p.Offset)
	}
	return b.String(), args
}

// likePrefix escapes LIKE wildcards in s and appends a trailing %.
func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.ToLower(s)) + "%"
}
