package sqlgen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned for schema, table or column names that
	// are not plain identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNothingToUpdate is returned when an update carries no column besides id.
	ErrNothingToUpdate = errors.New("no columns to update")

	// ErrMissingID is returned by Update when the record has no usable id.
	ErrMissingID = errors.New("record has no id")
)

const maxIdentLen = 63

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name is safe to use as an identifier.
func ValidIdent(name string) bool {
	return len(name) <= maxIdentLen && identPattern.MatchString(name)
}

// CheckIdent returns ErrInvalidIdentifier wrapped with the offending name.
func CheckIdent(kind, name string) error {
	if !ValidIdent(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, kind, name)
	}
	return nil
}

// QuoteIdent double-quotes a validated identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Table is a schema-qualified table reference.
type Table struct {
	Schema string
	Name   string
}

// NewTable validates both parts of a table reference.
func NewTable(schema, name string) (Table, error) {
	if err := CheckIdent("schema", schema); err != nil {
		return Table{}, err
	}
	if err := CheckIdent("table", name); err != nil {
		return Table{}, err
	}
	return Table{Schema: schema, Name: name}, nil
}

// Qualified renders "schema"."name".
func (t Table) Qualified() string {
	return QuoteIdent(t.Schema) + "." + QuoteIdent(t.Name)
}

func (t Table) String() string { return t.Schema + "." + t.Name }
