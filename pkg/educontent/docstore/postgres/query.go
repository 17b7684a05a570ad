package postgres

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tendant/edu-content/pkg/educontent"
)

var columns = map[string]string{
	"id":        "id",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// buildWhere renders filters as a WHERE clause. Field names are bound as
// parameters to the JSON operators, never interpolated.
func buildWhere(collection string, filters []educontent.Filter) (string, []any, error) {
	var b strings.Builder
	args := []any{collection}
	b.WriteString("collection = $1")

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range filters {
		b.WriteString(" AND ")

		if col, ok := columns[f.Field]; ok {
			v := f.Value
			if s, isString := v.(string); isString && col != "id" {
				parsed, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return "", nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", educontent.ErrInvalidParameter, f.Field)
				}
				v = parsed
			}
			switch f.Op {
			case educontent.OpEqual:
				fmt.Fprintf(&b, "%s = %s", col, next(v))
			case educontent.OpGTE:
				fmt.Fprintf(&b, "%s >= %s", col, next(v))
			case educontent.OpLTE:
				fmt.Fprintf(&b, "%s <= %s", col, next(v))
			case educontent.OpContains:
				fmt.Fprintf(&b, "%s::text ILIKE %s", col, next(likePattern(fmt.Sprint(v))))
			default:
				return "", nil, fmt.Errorf("%w: filter operator %q", educontent.ErrInvalidParameter, f.Op)
			}
			continue
		}

		if f.Op == educontent.OpContains {
			field := next(f.Field)
			fmt.Fprintf(&b, "data->>%s::text ILIKE %s", field, next(likePattern(fmt.Sprint(f.Value))))
			continue
		}

		raw, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%w: filter value for %s: %v", educontent.ErrInvalidParameter, f.Field, err)
		}
		field := next(f.Field)
		value := next(string(raw))
		switch f.Op {
		case educontent.OpEqual:
			fmt.Fprintf(&b, "data->%s::text = %s::jsonb", field, value)
		case educontent.OpGTE:
			fmt.Fprintf(&b, "data->%s::text >= %s::jsonb", field, value)
		case educontent.OpLTE:
			fmt.Fprintf(&b, "data->%s::text <= %s::jsonb", field, value)
		default:
			return "", nil, fmt.Errorf("%w: filter operator %q", educontent.ErrInvalidParameter, f.Op)
		}
	}
	return b.String(), args, nil
}

// buildSelect appends ordering and paging to a WHERE clause from buildWhere
func buildSelect(where string, args []any, q educontent.Query) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT id, data, created_at, updated_at FROM documents WHERE ")
	b.WriteString(where)

	b.WriteString(" ORDER BY ")
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		if col, ok := columns[s.Field]; ok {
			fmt.Fprintf(&b, "%s %s, ", col, dir)
			continue
		}
		args = append(args, s.Field)
		fmt.Fprintf(&b, "data->$%d::text %s, ", len(args), dir)
	}
	b.WriteString("id ASC")

	args = append(args, q.Limit, q.Offset)
	fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
