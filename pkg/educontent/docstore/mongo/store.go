// Package mongo stores each collection in its own MongoDB collection, with the
// record id as _id and record fields at the top level.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tendant/edu-content/pkg/educontent"
)

const (
	idKey        = "_id"
	createdAtKey = "createdAt"
	updatedAtKey = "updatedAt"
)

// Store implements educontent.DocumentStore on a MongoDB database
type Store struct {
	db *mongo.Database
}

// New creates a store over db
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect dials uri and verifies the connection with a primary ping
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc *educontent.Document) error {
	m := bson.M{
		idKey:        doc.ID,
		createdAtKey: doc.CreatedAt,
		updatedAtKey: doc.UpdatedAt,
	}
	for k, v := range doc.Fields {
		m[k] = v
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("document %s already exists in %s: %w", doc.ID, collection, err)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*educontent.Document, error) {
	var m bson.M
	if err := s.db.Collection(collection).FindOne(ctx, bson.M{idKey: id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, educontent.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return toDocument(m), nil
}

func (s *Store) Patch(ctx context.Context, collection, id string, fields map[string]any, updatedAt time.Time) (*educontent.Document, error) {
	set := bson.M{updatedAtKey: updatedAt}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m bson.M
	err := s.db.Collection(collection).FindOneAndUpdate(ctx, bson.M{idKey: id}, bson.M{"$set": set}, opts).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, educontent.ErrNotFound
		}
		return nil, fmt.Errorf("patch document: %w", err)
	}
	return toDocument(m), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{idKey: id})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return educontent.ErrNotFound
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, q educontent.Query) ([]*educontent.Document, int, error) {
	filter, err := buildFilter(q.Filters)
	if err != nil {
		return nil, 0, err
	}
	coll := s.db.Collection(collection)

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	cursor, err := coll.Find(ctx, filter, findOptions(q))
	if err != nil {
		return nil, 0, fmt.Errorf("find documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := make([]*educontent.Document, 0)
	for cursor.Next(ctx) {
		var m bson.M
		if err := cursor.Decode(&m); err != nil {
			return nil, 0, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, toDocument(m))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("find documents: %w", err)
	}
	return docs, int(total), nil
}
