package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores entities in a MongoDB collection.
type MongoRepository[T Entity] struct {
	col    *mongo.Collection
	newDoc func() T
}

// NewMongoRepository creates a repository for col. newDoc must return a fresh, non-nil T to decode into.
func NewMongoRepository[T Entity](col *mongo.Collection, newDoc func() T) *MongoRepository[T] {
	return &MongoRepository[T]{col: col, newDoc: newDoc}
}

func (r *MongoRepository[T]) FindByID(ctx context.Context, id primitive.ObjectID) (T, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository[T]) FindOneBy(ctx context.Context, field string, value interface{}) (T, error) {
	return r.findOne(ctx, bson.M{field: value})
}

func (r *MongoRepository[T]) findOne(ctx context.Context, filter bson.M) (T, error) {
	doc := r.newDoc()
	err := r.col.FindOne(ctx, filter).Decode(doc)
	if err != nil {
		var zero T
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to find in %s: %w", r.col.Name(), err)
	}
	return doc, nil
}

func (r *MongoRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.col.Name(), err)
	}
	defer cur.Close(ctx)

	docs := make([]T, 0)
	for cur.Next(ctx) {
		doc := r.newDoc()
		if err := cur.Decode(doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", r.col.Name(), err)
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.col.Name(), err)
	}
	return docs, nil
}

func (r *MongoRepository[T]) Save(ctx context.Context, entity T) (T, error) {
	ensureID(entity)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": entity.GetID()}, entity, opts); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to save %s document %s: %w", r.col.Name(), entity.GetID().Hex(), err)
	}
	return entity, nil
}

func (r *MongoRepository[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete %s document %s: %w", r.col.Name(), id.Hex(), err)
	}
	return nil
}

func (r *MongoRepository[T]) DeleteAll(ctx context.Context) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", r.col.Name(), err)
	}
	return nil
}
