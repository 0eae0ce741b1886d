package sqlgen

import (
	"strings"

	"github.com/rahulmyzone/MiraNext/internal/record"
)

// Predicate turns the present fields of filter into an AND-joined list of
// equality tests, in record order. An empty result means no WHERE clause:
// reading with an empty filter is a deliberate full scan.
func Predicate(filter record.Record) (string, []record.Value, error) {
	fields := filter.Present()
	if len(fields) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(fields))
	args := make([]record.Value, 0, len(fields))
	for _, f := range fields {
		if err := CheckIdent("column", f.Name); err != nil {
			return "", nil, err
		}
		parts = append(parts, QuoteIdent(f.Name)+" = ?")
		args = append(args, Format(f.Name, f.Value))
	}
	return strings.Join(parts, " AND "), args, nil
}
