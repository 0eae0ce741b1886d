package sqlgen

import (
	"strconv"
	"strings"

	"github.com/rahulmyzone/MiraNext/internal/record"
)

// Statement is SQL text with ? placeholders and the values bound to them.
type Statement struct {
	Text string
	Args []record.Value
}

// DriverArgs converts Args for database/sql.
func (s Statement) DriverArgs() []any {
	out := make([]any, len(s.Args))
	for i, a := range s.Args {
		out[i] = a.Arg()
	}
	return out
}

// String inlines the arguments as escaped literals. Only for logging.
func (s Statement) String() string {
	if len(s.Args) == 0 {
		return s.Text
	}
	var b strings.Builder
	next := 0
	inQuote := false
	for i := 0; i < len(s.Text); i++ {
		c := s.Text[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			j := i + 1
			for j < len(s.Text) && s.Text[j] >= '0' && s.Text[j] <= '9' {
				j++
			}
			idx := next
			if j > i+1 {
				idx, _ = strconv.Atoi(s.Text[i+1 : j])
				idx--
			} else {
				next++
			}
			if idx < 0 || idx >= len(s.Args) {
				b.WriteString(s.Text[i:j])
			} else {
				b.WriteString(s.Args[idx].Literal())
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
