package educontent

import (
	"encoding/json"
	"fmt"
	"time"
)

var reservedFields = []string{"id", "createdAt", "updatedAt"}

// IsReservedField reports whether name is managed by the store rather than the record.
func IsReservedField(name string) bool {
	for _, f := range reservedFields {
		if f == name {
			return true
		}
	}
	return false
}

// toFields flattens a record into the map persisted by the store. Reserved fields
// and the named computed fields are dropped.
func toFields(record any, computed ...string) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	for _, f := range reservedFields {
		delete(fields, f)
	}
	for _, f := range computed {
		delete(fields, f)
	}
	return fields, nil
}

// fromDocument rebuilds a typed record from a store document.
func fromDocument[T any](doc *Document) (*T, error) {
	m := make(map[string]any, len(doc.Fields)+3)
	for k, v := range doc.Fields {
		m[k] = v
	}
	m["id"] = doc.ID
	m["createdAt"] = doc.CreatedAt.UTC().Format(time.RFC3339Nano)
	m["updatedAt"] = doc.UpdatedAt.UTC().Format(time.RFC3339Nano)

	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return &out, nil
}

func fromDocuments[T any](docs *Documents) (*ListResult[T], error) {
	out := &ListResult[T]{Items: make([]*T, 0, len(docs.Items)), Total: docs.Total}
	for _, doc := range docs.Items {
		rec, err := fromDocument[T](doc)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, rec)
	}
	return out, nil
}
