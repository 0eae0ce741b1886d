// Package sqlgen builds the SELECT, INSERT and UPDATE statements of the generic
// entity layer from a table reference and a record. It does no I/O.
//
// Every value is carried as a bound argument and every identifier is validated
// and quoted, so record content never becomes SQL text.
package sqlgen

import (
	"strings"

	"github.com/rahulmyzone/MiraNext/internal/record"
)

// IDColumn selects update semantics when present on a written record.
const IDColumn = "id"

// Select builds SELECT * FROM t [WHERE ...].
func Select(t Table, filter record.Record) (Statement, error) {
	where, args, err := Predicate(filter)
	if err != nil {
		return Statement{}, err
	}
	text := "SELECT * FROM " + t.Qualified()
	if where != "" {
		text += " WHERE " + where
	}
	return Statement{Text: text, Args: args}, nil
}

// Insert builds an INSERT of every present field returning the stored row.
// An empty id is left to the store to generate. A record with no present
// fields inserts a row of defaults.
func Insert(t Table, rec record.Record) (Statement, error) {
	if id, ok := rec.Get(IDColumn); ok && id.IsEmpty() {
		rec = rec.Without(IDColumn)
	}
	fields := rec.Present()
	if len(fields) == 0 {
		return Statement{Text: "INSERT INTO " + t.Qualified() + " DEFAULT VALUES RETURNING *"}, nil
	}
	cols := make([]string, 0, len(fields))
	marks := make([]string, 0, len(fields))
	args := make([]record.Value, 0, len(fields))
	for _, f := range fields {
		if err := CheckIdent("column", f.Name); err != nil {
			return Statement{}, err
		}
		cols = append(cols, QuoteIdent(f.Name))
		marks = append(marks, "?")
		args = append(args, Format(f.Name, f.Value))
	}
	text := "INSERT INTO " + t.Qualified() +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ") RETURNING *"
	return Statement{Text: text, Args: args}, nil
}

// Update builds an UPDATE of every present field except id, restricted to the
// record's id and returning the updated row.
func Update(t Table, rec record.Record) (Statement, error) {
	id, ok := rec.Get(IDColumn)
	if !ok || id.IsEmpty() {
		return Statement{}, ErrMissingID
	}
	fields := rec.Without(IDColumn).Present()
	if len(fields) == 0 {
		return Statement{}, ErrNothingToUpdate
	}
	sets := make([]string, 0, len(fields))
	args := make([]record.Value, 0, len(fields)+1)
	for _, f := range fields {
		if err := CheckIdent("column", f.Name); err != nil {
			return Statement{}, err
		}
		sets = append(sets, QuoteIdent(f.Name)+" = ?")
		args = append(args, Format(f.Name, f.Value))
	}
	args = append(args, id)
	text := "UPDATE " + t.Qualified() + " SET " + strings.Join(sets, ", ") +
		" WHERE " + QuoteIdent(IDColumn) + " = ? RETURNING *"
	return Statement{Text: text, Args: args}, nil
}

// HasID reports whether a write of rec should update rather than insert.
func HasID(rec record.Record) bool {
	id, ok := rec.Get(IDColumn)
	return ok && !id.IsEmpty()
}
