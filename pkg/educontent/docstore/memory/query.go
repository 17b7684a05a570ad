package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/tendant/edu-content/pkg/educontent"
)

func fieldValue(doc *educontent.Document, field string) (any, bool) {
	switch field {
	case "id":
		return doc.ID, true
	case "createdAt":
		return doc.CreatedAt, true
	case "updatedAt":
		return doc.UpdatedAt, true
	}
	v, ok := doc.Fields[field]
	return v, ok && v != nil
}

func matches(doc *educontent.Document, filters []educontent.Filter) bool {
	for _, f := range filters {
		v, ok := fieldValue(doc, f.Field)
		if !ok {
			return false
		}
		switch f.Op {
		case educontent.OpEqual:
			if c, ok := compare(v, f.Value); !ok || c != 0 {
				return false
			}
		case educontent.OpGTE:
			if c, ok := compare(v, f.Value); !ok || c < 0 {
				return false
			}
		case educontent.OpLTE:
			if c, ok := compare(v, f.Value); !ok || c > 0 {
				return false
			}
		case educontent.OpContains:
			hay, okH := v.(string)
			needle, okN := f.Value.(string)
			if !okH || !okN || !strings.Contains(strings.ToLower(hay), strings.ToLower(needle)) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// less orders a before b by the sort keys, falling back to id for a total order.
// Missing values sort before present ones.
func less(a, b *educontent.Document, keys []educontent.Sort) bool {
	for _, k := range keys {
		va, okA := fieldValue(a, k.Field)
		vb, okB := fieldValue(b, k.Field)
		var c int
		switch {
		case !okA && !okB:
			c = 0
		case !okA:
			c = -1
		case !okB:
			c = 1
		default:
			c, _ = compare(va, vb)
		}
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID < b.ID
}

// compare returns -1, 0 or 1. The second result is false when the values are not comparable.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	sa, okA := toString(a)
	sb, okB := toString(b)
	if !okA || !okB {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	case bool:
		return fmt.Sprint(s), true
	}
	return "", false
}
