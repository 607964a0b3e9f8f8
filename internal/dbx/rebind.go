package dbx

import (
	"strconv"
	"strings"
)

// Style identifies the placeholder syntax of a database backend.
type Style int

const (
	// Question is the '?' placeholder style (sqlite).
	Question Style = iota
	// Dollar is the '$1' placeholder style (postgres).
	Dollar
)

// Rebind rewrites a query written with '?' placeholders into the given
// style. Queries in this project never contain literal question marks, so no
// quoting-awareness is needed.
func Rebind(style Style, query string) string {
	if style == Question {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
