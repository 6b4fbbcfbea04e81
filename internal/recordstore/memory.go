package recordstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a Store kept in process memory. It is used by tests and by
// local runs without a database.
type InMemoryStore struct {
	mu          sync.RWMutex
	schema      Schema
	collections map[string]*memCollection
	last        time.Time
}

type memCollection struct {
	records map[string]Record
	order   []string
}

func NewInMemoryStore(schema Schema) *InMemoryStore {
	return &InMemoryStore{
		schema:      schema,
		collections: make(map[string]*memCollection),
	}
}

// tick returns a strictly increasing timestamp so "-created" ordering is stable.
func (s *InMemoryStore) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (s *InMemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{records: make(map[string]Record)}
		s.collections[name] = c
	}
	return c
}

func (s *InMemoryStore) Create(ctx context.Context, collection string, fields map[string]any) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if collection == "" {
		return Record{}, fmt.Errorf("%w: empty collection", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := make(map[string]any, len(fields))
	for k, v := range fields {
		data[k] = v
	}
	id, _ := data["id"].(string)
	delete(data, "id")
	if id == "" {
		id = uuid.NewString()
	}

	c := s.collection(collection)
	if _, exists := c.records[id]; exists {
		return Record{}, fmt.Errorf("%w: duplicate id %s", ErrValidation, id)
	}

	now := s.tick()
	rec := Record{ID: id, Collection: collection, Created: now, Updated: now, Data: data}
	c.records[id] = rec
	c.order = append(c.order, id)
	return rec.clone(), nil
}

func (s *InMemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) (Record, error) {
	return s.UpdateIf(ctx, collection, id, nil, fields)
}

func (s *InMemoryStore) UpdateIf(ctx context.Context, collection, id string, expect, fields map[string]any) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	rec, ok := c.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	for k, want := range expect {
		if !valuesEqual(rec.Data[k], want) {
			return Record{}, ErrConflict
		}
	}

	rec = rec.clone()
	for k, v := range fields {
		if k == "id" {
			continue
		}
		rec.Data[k] = v
	}
	rec.Updated = s.tick()
	c.records[id] = rec
	return rec.clone(), nil
}

func (s *InMemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if _, ok := c.records[id]; !ok {
		return ErrNotFound
	}
	delete(c.records, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStore) GetOne(ctx context.Context, collection, id, expand string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.fetch(ctx, collection, id)
	if err != nil {
		return Record{}, err
	}
	if err := s.schema.expandRecord(ctx, s.fetch, &rec, parseExpand(expand)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *InMemoryStore) List(ctx context.Context, collection string, page, perPage int, opts ListOptions) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, err
	}
	conds, err := ParseFilter(opts.Filter)
	if err != nil {
		return ListResult{}, err
	}
	keys, err := parseSort(opts.Sort)
	if err != nil {
		return ListResult{}, err
	}
	page, perPage = normalizePaging(page, perPage)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	if c, ok := s.collections[collection]; ok {
		for _, id := range c.order {
			rec := c.records[id]
			if matchAll(conds, rec) {
				matched = append(matched, rec.clone())
			}
		}
	}
	sortRecords(matched, keys)

	res := ListResult{
		Page:       page,
		PerPage:    perPage,
		TotalItems: len(matched),
		TotalPages: totalPages(len(matched), perPage),
		Items:      []Record{},
	}
	start := (page - 1) * perPage
	if start >= len(matched) {
		return res, nil
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}

	paths := parseExpand(opts.Expand)
	for _, rec := range matched[start:end] {
		if err := s.schema.expandRecord(ctx, s.fetch, &rec, paths); err != nil {
			return ListResult{}, err
		}
		res.Items = append(res.Items, rec)
	}
	return res, nil
}

// fetch reads one record; callers hold s.mu.
func (s *InMemoryStore) fetch(_ context.Context, collection, id string) (Record, error) {
	c, ok := s.collections[collection]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec, ok := c.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec.clone(), nil
}

func matchAll(conds []Condition, rec Record) bool {
	for _, c := range conds {
		if !c.match(rec) {
			return false
		}
	}
	return true
}
