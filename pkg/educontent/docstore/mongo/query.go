package mongo

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tendant/edu-content/pkg/educontent"
)

func key(field string) string {
	if field == "id" {
		return idKey
	}
	return field
}

// buildFilter groups operators by field so several conditions on one field combine
func buildFilter(filters []educontent.Filter) (bson.M, error) {
	out := bson.M{}
	for _, f := range filters {
		value := f.Value
		if f.Field == createdAtKey || f.Field == updatedAtKey {
			if s, ok := value.(string); ok {
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", educontent.ErrInvalidParameter, f.Field)
				}
				value = t
			}
		}

		k := key(f.Field)
		ops, _ := out[k].(bson.M)
		if ops == nil {
			ops = bson.M{}
			out[k] = ops
		}
		switch f.Op {
		case educontent.OpEqual:
			ops["$eq"] = value
		case educontent.OpGTE:
			ops["$gte"] = value
		case educontent.OpLTE:
			ops["$lte"] = value
		case educontent.OpContains:
			ops["$regex"] = regexp.QuoteMeta(fmt.Sprint(value))
			ops["$options"] = "i"
		default:
			return nil, fmt.Errorf("%w: filter operator %q", educontent.ErrInvalidParameter, f.Op)
		}
	}
	return out, nil
}

func findOptions(q educontent.Query) *options.FindOptions {
	sort := bson.D{}
	for _, s := range q.Sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: key(s.Field), Value: dir})
	}
	sort = append(sort, bson.E{Key: idKey, Value: 1})

	return options.Find().
		SetSort(sort).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))
}

// toDocument splits the stored timestamps from the record fields and converts
// driver container types back to plain maps and slices.
func toDocument(m bson.M) *educontent.Document {
	doc := &educontent.Document{Fields: map[string]any{}}
	for k, v := range m {
		switch k {
		case idKey:
			doc.ID = fmt.Sprint(v)
		case createdAtKey:
			doc.CreatedAt = toTime(v)
		case updatedAtKey:
			doc.UpdatedAt = toTime(v)
		default:
			doc.Fields[k] = plain(v)
		}
	}
	return doc
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	}
	return time.Time{}
}

func plain(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plain(val)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	}
	return v
}
