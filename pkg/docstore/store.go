// Package docstore implements the document-store side of the tool catalog:
// query execution, sampling, and sample-based schema inference over
// MongoDB collections.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
)

// FindOptions narrows a Find call. Zero values mean "no constraint".
type FindOptions struct {
	Limit      int64
	Skip       int64
	Sort       bson.M
	Projection bson.M
}

// Store executes document-store operations for the tool catalog.
// All operations are read-only.
type Store struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewStore creates a Store over an established database handle.
func NewStore(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Find returns documents matching query, honoring limit/skip/sort/projection.
// Identifier strings in the query are coerced to ObjectIDs first.
func (s *Store) Find(ctx context.Context, collection string, query bson.M, opts FindOptions) ([]bson.M, error) {
	if s.db == nil {
		return nil, apperrors.ErrNotConnected
	}

	query = CoerceObjectIDs(query)

	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if len(opts.Projection) > 0 {
		findOpts.SetProjection(opts.Projection)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, query, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find on %s failed: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding find results from %s failed: %w", collection, err)
	}

	s.logger.Debug("document find",
		zap.String("collection", collection),
		zap.Int("results", len(docs)))

	return docs, nil
}

// FindOne returns a single matching document. The not-found case is an
// explicit (nil, false, nil) result, never an error.
func (s *Store) FindOne(ctx context.Context, collection string, query bson.M, projection bson.M) (bson.M, bool, error) {
	if s.db == nil {
		return nil, false, apperrors.ErrNotConnected
	}

	query = CoerceObjectIDs(query)

	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, query, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("findOne on %s failed: %w", collection, err)
	}
	return doc, true, nil
}

// Aggregate runs a pipeline. Match-like stages get identifier coercion;
// other stages pass through verbatim.
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline []bson.M) ([]bson.M, error) {
	if s.db == nil {
		return nil, apperrors.ErrNotConnected
	}

	prepared := make([]bson.M, len(pipeline))
	for i, stage := range pipeline {
		if match, ok := stageMatch(stage); ok {
			prepared[i] = bson.M{"$match": CoerceObjectIDs(match)}
			continue
		}
		prepared[i] = stage
	}

	cursor, err := s.db.Collection(collection).Aggregate(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("aggregate on %s failed: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding aggregate results from %s failed: %w", collection, err)
	}
	return docs, nil
}

// stageMatch extracts the $match document from a pipeline stage, if any.
func stageMatch(stage bson.M) (bson.M, bool) {
	raw, ok := stage["$match"]
	if !ok {
		return nil, false
	}
	switch m := raw.(type) {
	case bson.M:
		return m, true
	case map[string]any:
		return bson.M(m), true
	default:
		return nil, false
	}
}

// Count returns the number of documents matching query. The query must be
// supplied explicitly even when empty: counting without a deliberate
// filter is the kind of accident this contract prevents.
func (s *Store) Count(ctx context.Context, collection string, query bson.M) (int64, error) {
	if s.db == nil {
		return 0, apperrors.ErrNotConnected
	}
	if query == nil {
		return 0, fmt.Errorf("%w: count requires an explicit query filter", apperrors.ErrInvalidOperation)
	}

	query = CoerceObjectIDs(query)

	count, err := s.db.Collection(collection).CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("count on %s failed: %w", collection, err)
	}
	return count, nil
}

// ListCollections returns the collection names in the database.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, apperrors.ErrNotConnected
	}

	names, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing collections failed: %w", err)
	}
	return names, nil
}

// GetCollectionSchema samples up to sampleSize documents and infers the
// collection's field schema. An absent or empty collection is an error:
// there is nothing to infer from.
func (s *Store) GetCollectionSchema(ctx context.Context, collection string, sampleSize int64) (CollectionSchema, error) {
	if s.db == nil {
		return CollectionSchema{}, apperrors.ErrNotConnected
	}
	if sampleSize <= 0 {
		sampleSize = 100
	}

	docs, err := s.sample(ctx, collection, sampleSize, nil)
	if err != nil {
		return CollectionSchema{}, err
	}
	if len(docs) == 0 {
		return CollectionSchema{}, fmt.Errorf("%w: %s", apperrors.ErrCollectionNotFound, collection)
	}

	return InferSchema(collection, docs), nil
}

// GetSampleData returns up to limit literal documents, optionally
// projected to the named fields.
func (s *Store) GetSampleData(ctx context.Context, collection string, limit int64, fields []string) ([]bson.M, error) {
	if s.db == nil {
		return nil, apperrors.ErrNotConnected
	}
	if limit <= 0 {
		limit = 5
	}

	var projection bson.M
	if len(fields) > 0 {
		projection = make(bson.M, len(fields))
		for _, f := range fields {
			projection[f] = 1
		}
	}

	return s.sample(ctx, collection, limit, projection)
}

// sample fetches up to limit documents with an optional projection.
func (s *Store) sample(ctx context.Context, collection string, limit int64, projection bson.M) ([]bson.M, error) {
	opts := options.Find().SetLimit(limit)
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("sampling %s failed: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding sample from %s failed: %w", collection, err)
	}
	return docs, nil
}
