// Package memory provides an in-process DocumentStore used by tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tendant/edu-content/pkg/educontent"
)

// Store implements educontent.DocumentStore using in-memory maps
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]*educontent.Document
}

// New creates a new in-memory document store
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]*educontent.Document),
	}
}

func (s *Store) Insert(ctx context.Context, collection string, doc *educontent.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*educontent.Document)
		s.collections[collection] = docs
	}
	if _, exists := docs[doc.ID]; exists {
		return fmt.Errorf("document %s already exists in %s", doc.ID, collection)
	}
	docs[doc.ID] = doc.Clone()
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*educontent.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, educontent.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *Store) Patch(ctx context.Context, collection, id string, fields map[string]any, updatedAt time.Time) (*educontent.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, educontent.ErrNotFound
	}
	merged := doc.Clone()
	for k, v := range (&educontent.Document{Fields: fields}).Clone().Fields {
		merged.Fields[k] = v
	}
	merged.UpdatedAt = updatedAt
	s.collections[collection][id] = merged
	return merged.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return educontent.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, q educontent.Query) ([]*educontent.Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*educontent.Document
	for _, doc := range s.collections[collection] {
		if matches(doc, q.Filters) {
			matched = append(matched, doc)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return less(matched[i], matched[j], q.Sort)
	})

	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	result := make([]*educontent.Document, 0, end-start)
	for _, doc := range matched[start:end] {
		result = append(result, doc.Clone())
	}
	return result, total, nil
}

// Len returns the number of documents in collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}
