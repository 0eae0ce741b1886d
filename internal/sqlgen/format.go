package sqlgen

import (
	"strings"
	"time"

	"github.com/rahulmyzone/MiraNext/internal/record"
)

// TimestampLayout is the canonical text form of fields named "timestamp".
const TimestampLayout = "2006-01-02 15:04:05"

var timestampInputs = []string{
	time.RFC3339Nano,
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Format applies the single type-directed rule used by every statement kind:
// numbers, text, bools and times bind as themselves, and a column named
// "timestamp" (any case) is first normalized to TimestampLayout in UTC.
// Unparseable timestamp text is passed through for the store to judge.
func Format(column string, v record.Value) record.Value {
	if !strings.EqualFold(column, "timestamp") {
		return v
	}
	if t, ok := toTime(v); ok {
		return record.Text(t.UTC().Format(TimestampLayout))
	}
	return v
}

func toTime(v record.Value) (time.Time, bool) {
	switch v.Kind() {
	case record.KindTime:
		t, _ := v.AsTime()
		return t, true
	case record.KindInt, record.KindFloat:
		// epoch milliseconds, as browsers send Date.now()
		f, _ := v.AsFloat()
		return time.UnixMilli(int64(f)), true
	case record.KindText:
		s, _ := v.AsText()
		s = strings.TrimSpace(s)
		for _, layout := range timestampInputs {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
