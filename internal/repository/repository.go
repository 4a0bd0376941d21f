// Package repository provides the generic CRUD driver used by the services.
package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches a lookup.
var ErrNotFound = errors.New("document not found")

// Entity is a document addressed by an ObjectID.
type Entity interface {
	GetID() primitive.ObjectID
	SetID(id primitive.ObjectID)
}

// Repository defines CRUD operations over one collection.
type Repository[T Entity] interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (T, error)
	FindOneBy(ctx context.Context, field string, value interface{}) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	// Save inserts or replaces the document, assigning a new id when it has none.
	Save(ctx context.Context, entity T) (T, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) error
}

// Transactor runs fn inside a store transaction when the store supports one.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor runs fn directly. Writes made by fn are not atomic.
type NoopTransactor struct{}

func (NoopTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func ensureID[T Entity](entity T) {
	if entity.GetID().IsZero() {
		entity.SetID(primitive.NewObjectID())
	}
}
