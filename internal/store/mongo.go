package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoStore struct {
	client   *mongo.Client
	messages *mongo.Collection
	trends   *mongo.Collection
}

// NewMongoStore connects to uri and pings the primary. The caller's ctx bounds
// the initial handshake; timeout bounds server selection for every later call.
func NewMongoStore(ctx context.Context, uri, database, messagesColl, trendsColl string, timeout time.Duration) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return newMongoStoreFromClient(client, database, messagesColl, trendsColl), nil
}

func newMongoStoreFromClient(client *mongo.Client, database, messagesColl, trendsColl string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		messages: db.Collection(messagesColl),
		trends:   db.Collection(trendsColl),
	}
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) InsertMessage(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return classify("insert message", err)
	}
	return nil
}

func (s *MongoStore) ListMessages(ctx context.Context) ([]Message, error) {
	cur, err := s.messages.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 0}))
	if err != nil {
		return nil, classify("find messages", err)
	}
	messages := []Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, classify("decode messages", err)
	}
	return messages, nil
}

func (s *MongoStore) DeleteAllMessages(ctx context.Context) error {
	if _, err := s.messages.DeleteMany(ctx, bson.M{}); err != nil {
		return classify("delete messages", err)
	}
	return nil
}

func (s *MongoStore) InsertTrends(ctx context.Context, items []TrendItem) error {
	if len(items) == 0 {
		return errNoTrends
	}
	docs := make([]interface{}, 0, len(items))
	for _, item := range items {
		item.CapturedAt = item.CapturedAt.UTC()
		docs = append(docs, item)
	}
	if _, err := s.trends.InsertMany(ctx, docs); err != nil {
		return classify("insert trends", err)
	}
	return nil
}

func (s *MongoStore) ListTrends(ctx context.Context) ([]TrendItem, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0}).
		SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := s.trends.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, classify("find trends", err)
	}
	items := []TrendItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, classify("decode trends", err)
	}
	for i := range items {
		items[i].CapturedAt = items[i].CapturedAt.UTC()
	}
	return items, nil
}

func (s *MongoStore) DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.trends.DeleteMany(ctx, olderThanFilter(cutoff))
	if err != nil {
		return 0, classify("delete old trends", err)
	}
	return res.DeletedCount, nil
}

func olderThanFilter(cutoff time.Time) bson.M {
	return bson.M{"timestamp": bson.M{"$lt": cutoff.UTC()}}
}

// classify wraps err and tags connectivity failures with ErrUnavailable.
func classify(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
