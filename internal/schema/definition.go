package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rahulmyzone/MiraNext/internal/record"
	"github.com/rahulmyzone/MiraNext/internal/sqlgen"
)

// ErrInvalidDefinition is returned for column definitions that cannot be
// rendered safely.
var ErrInvalidDefinition = errors.New("invalid column definition")

// ColumnDefinition is one column as reported by the catalog. The JSON names
// match the information_schema columns so Describe output can be fed straight
// back into CreateFromStructure.
type ColumnDefinition struct {
	Name       string  `json:"column_name"`
	DataType   string  `json:"data_type"`
	IsNullable string  `json:"is_nullable"`
	Default    *string `json:"column_default"`
}

// Nullable is false only when IsNullable is "NO".
func (c ColumnDefinition) Nullable() bool {
	return !strings.EqualFold(strings.TrimSpace(c.IsNullable), "NO")
}

var typePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\(\s*\d+\s*(,\s*\d+\s*)?\))?[A-Za-z0-9_ ]*(\[\])?$`)

// render produces `"name" type [NOT NULL] [DEFAULT expr]`.
func (c ColumnDefinition) render() (string, error) {
	if err := sqlgen.CheckIdent("column", c.Name); err != nil {
		return "", err
	}
	typ := strings.TrimSpace(c.DataType)
	if !typePattern.MatchString(typ) {
		return "", fmt.Errorf("%w: column %s has type %q", ErrInvalidDefinition, c.Name, c.DataType)
	}
	var b strings.Builder
	b.WriteString(sqlgen.QuoteIdent(c.Name))
	b.WriteByte(' ')
	b.WriteString(typ)
	if !c.Nullable() {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		if def := strings.TrimSpace(*c.Default); def != "" {
			if err := checkDefault(def); err != nil {
				return "", fmt.Errorf("%w: column %s: %v", ErrInvalidDefinition, c.Name, err)
			}
			b.WriteString(" DEFAULT ")
			b.WriteString(def)
		}
	}
	return b.String(), nil
}

// checkDefault accepts a single expression: quotes and parentheses must
// balance, no statement separator or comment may appear outside a string
// literal, and commas are only allowed inside parentheses.
func checkDefault(expr string) error {
	inQuote := false
	depth := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if inQuote {
			if c == '\'' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '\'':
			inQuote = true
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return errors.New("unbalanced parentheses in default")
			}
		case ';':
			return errors.New("statement separator in default")
		case ',':
			if depth == 0 {
				return errors.New("column separator in default")
			}
		case '-':
			if i+1 < len(expr) && expr[i+1] == '-' {
				return errors.New("comment in default")
			}
		case '/':
			if i+1 < len(expr) && expr[i+1] == '*' {
				return errors.New("comment in default")
			}
		}
	}
	if inQuote {
		return errors.New("unterminated string in default")
	}
	if depth != 0 {
		return errors.New("unbalanced parentheses in default")
	}
	return nil
}

// DefinitionsFromRecords converts Describe rows back into definitions.
func DefinitionsFromRecords(rows []record.Record) []ColumnDefinition {
	out := make([]ColumnDefinition, 0, len(rows))
	for _, r := range rows {
		var c ColumnDefinition
		if v, ok := r.Get("column_name"); ok {
			c.Name = v.String()
		}
		if v, ok := r.Get("data_type"); ok {
			c.DataType = v.String()
		}
		if v, ok := r.Get("is_nullable"); ok {
			c.IsNullable = v.String()
		}
		if v, ok := r.Get("column_default"); ok && !v.IsNull() {
			def := v.String()
			c.Default = &def
		}
		out = append(out, c)
	}
	return out
}
