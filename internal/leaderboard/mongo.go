// internal/leaderboard/mongo.go
package leaderboard

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/richard-senior/rocketrun/internal/logger"
)

const scoreCollection = "scores"

// scoreDoc is the stored form of an Entry. _id breaks score ties. ObjectIDs
// lead with a seconds timestamp, so this is insertion order only across
// seconds; inserts from different processes within one second may tie-break
// either way.
type scoreDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Score int                `bson:"score"`
}

// MongoStore keeps entries in a MongoDB collection
type MongoStore struct {
	client *mongo.Client
	scores *mongo.Collection
}

// OpenMongo connects to uri and checks the primary is reachable
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("Connected to MongoDB, using database %s", database)
	return newMongoStore(client, database), nil
}

func newMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		scores: client.Database(database).Collection(scoreCollection),
	}
}

// Init creates the index Top sorts on. Creating an identical index again is
// a no-op on the server.
func (s *MongoStore) Init(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "score", Value: -1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("score_desc_id_asc"),
	}
	name, err := s.scores.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		return fmt.Errorf("create score index: %w", err)
	}
	logger.Debug("Index ready: %s", name)
	return nil
}

func (s *MongoStore) Save(ctx context.Context, name string, score int) error {
	doc := scoreDoc{
		ID:    primitive.NewObjectID(),
		Name:  NormalizeName(name),
		Score: score,
	}
	if _, err := s.scores.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *MongoStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(clampLimit(limit)))

	cursor, err := s.scores.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find top scores: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []scoreDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode top scores: %w", err)
	}

	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, Entry{Name: d.Name, Score: d.Score})
	}
	return entries, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
