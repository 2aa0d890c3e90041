package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PranavAsoori/gymgame/internal/models"
)

// Connect opens a mongo client and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// retryOnce re-runs fn one time when the failure looks transient.
func retryOnce(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || ctx.Err() != nil {
		return err
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fn()
	}
	return err
}

var (
	_ UserStore = (*MongoUserStore)(nil)
	_ GameStore = (*MongoGameStore)(nil)
)

// MongoUserStore implements UserStore on a mongo collection.
type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users")}
}

func (s *MongoUserStore) Get(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := retryOnce(ctx, func() error {
		return s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoUserStore) FindByName(ctx context.Context, displayName string) (*models.User, error) {
	var u models.User
	err := retryOnce(ctx, func() error {
		return s.col.FindOne(ctx, bson.M{"display_name": displayName}).Decode(&u)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *MongoUserStore) Insert(ctx context.Context, u *models.User) error {
	err := retryOnce(ctx, func() error {
		_, err := s.col.InsertOne(ctx, u)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateKey
	}
	return err
}

func (s *MongoUserStore) SetDisplayName(ctx context.Context, id int64, displayName string) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"display_name": displayName}})
		return err
	})
}

func (s *MongoUserStore) UpdateClaim(ctx context.Context, id int64, points, streak int, today, expectLast string) error {
	var res *mongo.UpdateResult
	err := retryOnce(ctx, func() error {
		var err error
		res, err = s.col.UpdateOne(ctx,
			bson.M{"_id": id, "last_claim": expectLast},
			bson.M{"$set": bson.M{
				"points":     points,
				"streak":     streak,
				"last_claim": today,
			}})
		return err
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrClaimConflict
	}
	return nil
}

func (s *MongoUserStore) AdjustPoints(ctx context.Context, id int64, delta int) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$inc": bson.M{"points": delta}})
		return err
	})
}

func (s *MongoUserStore) SetPoints(ctx context.Context, id int64, value int) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"points": value}})
		return err
	})
}

func (s *MongoUserStore) List(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, options.Find())
}

func (s *MongoUserStore) ListByPoints(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, options.Find().SetSort(bson.D{{Key: "points", Value: -1}}))
}

func (s *MongoUserStore) find(ctx context.Context, opts *options.FindOptions) ([]models.User, error) {
	var out []models.User
	err := retryOnce(ctx, func() error {
		cur, err := s.col.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)
		out = nil
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoUserStore) ResetAll(ctx context.Context) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateMany(ctx, bson.M{},
			bson.M{"$set": bson.M{"points": 0, "streak": 0, "last_claim": ""}})
		return err
	})
}

func (s *MongoUserStore) ResetDaily(ctx context.Context) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateMany(ctx, bson.M{},
			bson.M{"$set": bson.M{"streak": 0, "last_claim": ""}})
		return err
	})
}

func (s *MongoUserStore) DeleteAll(ctx context.Context) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.DeleteMany(ctx, bson.M{})
		return err
	})
}

// MongoGameStore implements GameStore on a mongo collection.
type MongoGameStore struct {
	col *mongo.Collection
}

func NewMongoGameStore(db *mongo.Database) *MongoGameStore {
	return &MongoGameStore{col: db.Collection("games")}
}

func (s *MongoGameStore) Active(ctx context.Context) (*models.Game, error) {
	var g models.Game
	err := retryOnce(ctx, func() error {
		return s.col.FindOne(ctx, bson.M{"active": true}).Decode(&g)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNoActiveGame
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *MongoGameStore) MostRecent(ctx context.Context) (*models.Game, error) {
	var g models.Game
	opts := options.FindOne().SetSort(bson.D{{Key: "start_date", Value: -1}})
	err := retryOnce(ctx, func() error {
		return s.col.FindOne(ctx, bson.M{}, opts).Decode(&g)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNoGame
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *MongoGameStore) Insert(ctx context.Context, g *models.Game) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.InsertOne(ctx, g)
		return err
	})
}

func (s *MongoGameStore) SetTeams(ctx context.Context, id string, teamA, teamB []string) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"team_a": teamA, "team_b": teamB}})
		return err
	})
}

func (s *MongoGameStore) SetDay(ctx context.Context, id string, day int) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"day": day}})
		return err
	})
}

func (s *MongoGameStore) Deactivate(ctx context.Context, id string) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"active": false}})
		return err
	})
}

func (s *MongoGameStore) DeleteAll(ctx context.Context) error {
	return retryOnce(ctx, func() error {
		_, err := s.col.DeleteMany(ctx, bson.M{})
		return err
	})
}
