package repository

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository keeps documents in process memory, encoded as BSON so that
// callers never share state with what is stored. Used by STORE_DRIVER=memory and tests.
type MemoryRepository[T Entity] struct {
	mu     sync.RWMutex
	docs   map[primitive.ObjectID]bson.Raw
	order  []primitive.ObjectID
	newDoc func() T
}

func NewMemoryRepository[T Entity](newDoc func() T) *MemoryRepository[T] {
	return &MemoryRepository[T]{
		docs:   make(map[primitive.ObjectID]bson.Raw),
		newDoc: newDoc,
	}
}

func (r *MemoryRepository[T]) FindByID(ctx context.Context, id primitive.ObjectID) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	raw, ok := r.docs[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return r.decode(raw)
}

func (r *MemoryRepository[T]) FindOneBy(ctx context.Context, field string, value interface{}) (T, error) {
	var zero T
	t, data, err := bson.MarshalValue(value)
	if err != nil {
		return zero, fmt.Errorf("failed to encode lookup value for %s: %w", field, err)
	}
	want := bson.RawValue{Type: t, Value: data}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		raw := r.docs[id]
		got, err := raw.LookupErr(field)
		if err != nil {
			continue
		}
		if got.Equal(want) {
			return r.decode(raw)
		}
	}
	return zero, ErrNotFound
}

func (r *MemoryRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		doc, err := r.decode(r.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *MemoryRepository[T]) Save(ctx context.Context, entity T) (T, error) {
	ensureID(entity)
	raw, err := bson.Marshal(entity)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to encode document %s: %w", entity.GetID().Hex(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := entity.GetID()
	if _, exists := r.docs[id]; !exists {
		r.order = append(r.order, id)
	}
	r.docs[id] = raw
	return entity, nil
}

func (r *MemoryRepository[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return nil
	}
	delete(r.docs, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository[T]) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs = make(map[primitive.ObjectID]bson.Raw)
	r.order = nil
	return nil
}

func (r *MemoryRepository[T]) decode(raw bson.Raw) (T, error) {
	doc := r.newDoc()
	if err := bson.Unmarshal(raw, doc); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}
