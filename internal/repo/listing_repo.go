package repo

import (
	"context"
	"errors"
	"time"

	"github.com/tazhibayda/foodshare-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) Create(ctx context.Context, l *domain.Listing, now time.Time) error {
	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}
	l.ID = id
	l.Status = domain.StatusAvailable
	l.CreatedAt = now
	l.ExpiresAt = now.Add(domain.TTL)
	l.AcceptedBy = ""
	l.AcceptorName = ""
	l.AcceptedAt = nil

	_, err = s.colListings.InsertOne(ctx, l)
	return err
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	var l domain.Listing
	err := s.colListings.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) ListActive(ctx context.Context, now time.Time, srt domain.Sort) ([]domain.Listing, error) {
	out, err := s.find(ctx,
		bson.M{"status": domain.StatusAvailable, "expires_at": bson.M{"$gt": now}},
		bson.D{{Key: "_id", Value: 1}},
	)
	if err != nil {
		return nil, err
	}
	// сортировка по числовому префиксу quantity делается в приложении
	domain.SortListings(out, srt)
	return out, nil
}

// Accept relies on a conditional update as the compare-and-swap: the filter
// only matches a still-available, unexpired document, so of N racing callers
// exactly one update applies and the rest decode ErrNoDocuments.
func (s *Store) Accept(ctx context.Context, id int64, acceptedBy, acceptorName string, now time.Time) (*domain.Listing, error) {
	var l domain.Listing
	err := s.colListings.FindOneAndUpdate(ctx,
		bson.M{
			"_id":        id,
			"status":     domain.StatusAvailable,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{
			"status":        domain.StatusAccepted,
			"accepted_by":   acceptedBy,
			"acceptor_name": acceptorName,
			"accepted_at":   now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// проигравший: различаем "нет такого" и "уже не available"
		if _, gerr := s.Get(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, ErrNotAvailable
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) MarkExpired(ctx context.Context, id int64) (*domain.Listing, bool, error) {
	var l domain.Listing
	err := s.colListings.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": domain.StatusAvailable},
		bson.M{"$set": bson.M{"status": domain.StatusExpired}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		cur, gerr := s.Get(ctx, id)
		if gerr != nil {
			return nil, false, gerr
		}
		return cur, false, nil // already accepted or expired, no-op
	}
	if err != nil {
		return nil, false, err
	}
	return &l, true, nil
}

func (s *Store) DueForExpiry(ctx context.Context, now time.Time) ([]domain.Listing, error) {
	return s.find(ctx,
		bson.M{"status": domain.StatusAvailable, "expires_at": bson.M{"$lte": now}},
		bson.D{{Key: "_id", Value: 1}},
	)
}

func (s *Store) ListByCreator(ctx context.Context, userID string) ([]domain.Listing, error) {
	return s.find(ctx,
		bson.M{"created_by": userID},
		bson.D{{Key: "created_at", Value: -1}},
	)
}

func (s *Store) ListByAcceptor(ctx context.Context, userID string) ([]domain.Listing, error) {
	return s.find(ctx,
		bson.M{"accepted_by": userID},
		bson.D{{Key: "accepted_at", Value: -1}},
	)
}

func (s *Store) find(ctx context.Context, filter bson.M, sort bson.D) ([]domain.Listing, error) {
	cur, err := s.colListings.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]domain.Listing, 0)
	for cur.Next(ctx) {
		var l domain.Listing
		if err := cur.Decode(&l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, cur.Err()
}
