package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the Mongo-backed Listings implementation. Atomicity comes from
// conditional single-document updates instead of a process lock: the filter
// carries the expected prior state, so a racing accept/sweep simply matches
// nothing. Monotonic int64 ids are allocated from a counters collection.
type Store struct {
	Client      *mongo.Client
	DB          *mongo.Database
	colListings *mongo.Collection
	colCounters *mongo.Collection
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetMaxPoolSize(50),
	)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := cli.Database(dbname)
	return &Store{
		Client:      cli,
		DB:          db,
		colListings: db.Collection("listings"),
		colCounters: db.Collection("counters"),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error { return s.Client.Disconnect(ctx) }

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.colListings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("status_expires"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("creator_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "accepted_by", Value: 1}, {Key: "accepted_at", Value: -1}},
			Options: options.Index().SetName("acceptor_accepted_desc"),
		},
	})
	return err
}

// nextID increments the listings counter document atomically.
func (s *Store) nextID(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.colCounters.FindOneAndUpdate(ctx,
		bson.M{"_id": "listings"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
