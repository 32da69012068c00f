package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinegraph/backend/internal/movie"
	apperrors "cinegraph/backend/pkg/errors"
	"cinegraph/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// codeNamespaceExists is returned by MongoDB when creating a collection or view that exists
const codeNamespaceExists = 48

const insertBatchSize = 1000

// Store handles all MongoDB operations on the films collection
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	films  *mongo.Collection
	uri    string
	logger *zap.Logger
}

// Connect opens and verifies a MongoDB connection.
// Failure is reported once here as a connectivity error.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(apperrors.ErrorTypeDocument, uri, err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.NewStoreUnavailable(apperrors.ErrorTypeDocument, uri, err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		db:     db,
		films:  db.Collection(collection),
		uri:    uri,
		logger: logger.Named("docstore"),
	}
	s.logger.Info("Connected to MongoDB",
		zap.String("database", database),
		zap.String("collection", collection),
	)
	return s, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the connection is still usable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperrors.NewStoreUnavailable(apperrors.ErrorTypeDocument, s.uri, err)
	}
	return nil
}

// Movies loads every film document and normalizes it
func (s *Store) Movies(ctx context.Context) ([]movie.Movie, error) {
	projection := bson.D{
		{Key: movie.FieldID, Value: 1},
		{Key: movie.FieldTitle, Value: 1},
		{Key: movie.FieldYear, Value: 1},
		{Key: movie.FieldGenre, Value: 1},
		{Key: movie.FieldDirector, Value: 1},
		{Key: movie.FieldActors, Value: 1},
		{Key: movie.FieldRuntime, Value: 1},
		{Key: movie.FieldRevenue, Value: 1},
		{Key: movie.FieldVotes, Value: 1},
		{Key: movie.FieldMetascore, Value: 1},
		{Key: movie.FieldRating, Value: 1},
	}

	cursor, err := s.films.Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, s.queryError("find films", err)
	}
	defer cursor.Close(ctx)

	var movies []movie.Movie
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn("Skipping undecodable film document", zap.Error(err))
			continue
		}
		movies = append(movies, movie.FromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, s.queryError("iterate films", err)
	}

	return movies, nil
}

// YearCounts groups films by release year on the server
func (s *Store) YearCounts(ctx context.Context) ([]movie.YearCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + movie.FieldYear},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.films.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, s.queryError("group films by year", err)
	}

	var rows []struct {
		Year  interface{} `bson:"_id"`
		Count int64       `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, s.queryError("decode year groups", err)
	}

	counts := make([]movie.YearCount, 0, len(rows))
	for _, row := range rows {
		year, ok := movie.Int(row.Year)
		if !ok {
			continue
		}
		counts = append(counts, movie.YearCount{Year: int(year), Count: row.Count})
	}
	return counts, nil
}

// CountAfterYear counts films released strictly after year
func (s *Store) CountAfterYear(ctx context.Context, year int) (int64, error) {
	filter := bson.D{{Key: movie.FieldYear, Value: bson.D{{Key: "$gt", Value: year}}}}
	count, err := s.films.CountDocuments(ctx, filter)
	if err != nil {
		return 0, s.queryError("count films after year", err)
	}
	return count, nil
}

// CreateFilterView defines (or redefines) a read-only view over the films collection
// matching filter, and returns the number of documents it exposes.
// Re-creating a view with the same name is not an error.
func (s *Store) CreateFilterView(ctx context.Context, name string, filter bson.D) (int64, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: filter}}}

	existing, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return 0, s.queryError("list collections", err)
	}

	if len(existing) == 0 {
		err = s.db.CreateView(ctx, name, s.films.Name(), pipeline)
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
			err = s.redefineView(ctx, name, pipeline)
		}
	} else {
		err = s.redefineView(ctx, name, pipeline)
	}
	if err != nil {
		return 0, s.queryError(fmt.Sprintf("create view %s", name), err)
	}

	count, err := s.db.Collection(name).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, s.queryError(fmt.Sprintf("count view %s", name), err)
	}

	s.logger.Info("View defined", zap.String("view", name), zap.Int64("documents", count))
	return count, nil
}

func (s *Store) redefineView(ctx context.Context, name string, pipeline mongo.Pipeline) error {
	return s.db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: name},
		{Key: "viewOn", Value: s.films.Name()},
		{Key: "pipeline", Value: pipeline},
	}).Err()
}

// Count returns the number of film documents
func (s *Store) Count(ctx context.Context) (int64, error) {
	count, err := s.films.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, s.queryError("count films", err)
	}
	return count, nil
}

// DeleteAll removes every film document
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.films.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, s.queryError("delete films", err)
	}
	return res.DeletedCount, nil
}

// InsertMany writes documents in bounded batches and returns how many were inserted
func (s *Store) InsertMany(ctx context.Context, docs []bson.M) (int, error) {
	inserted := 0
	for start := 0; start < len(docs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		batch := make([]interface{}, 0, end-start)
		for _, d := range docs[start:end] {
			batch = append(batch, d)
		}

		res, err := s.films.InsertMany(ctx, batch)
		if err != nil {
			return inserted, s.queryError("insert films", err)
		}
		inserted += len(res.InsertedIDs)
	}
	return inserted, nil
}

func (s *Store) queryError(operation string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewContextCancelled(operation, err)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return apperrors.NewQueryFailed(operation, apperrors.NewStoreUnavailable(apperrors.ErrorTypeDocument, s.uri, err))
	}
	return apperrors.NewQueryFailed(operation, err)
}
