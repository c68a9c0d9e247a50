package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "carts"

var (
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartConflict means another cart already exists for the same user.
	ErrCartConflict = errors.New("cart already exists for user")
)

// Repository defines the persistence surface required by the cart service.
type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	FindByIDAndOwner(ctx context.Context, id, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	DeleteByID(ctx context.Context, id string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository binds the cart repository to the carts collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(collectionName)}
}

func (m *mongoRepository) FindByUser(ctx context.Context, userID string) (*Cart, error) {
	return m.findOne(ctx, bson.M{"user_id": userID})
}

func (m *mongoRepository) FindByIDAndOwner(ctx context.Context, id, userID string) (*Cart, error) {
	return m.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

func (m *mongoRepository) findOne(ctx context.Context, filter bson.M) (*Cart, error) {
	var cart Cart
	if err := m.collection.FindOne(ctx, filter).Decode(&cart); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

// Save replaces the whole document, creating it on first write.
func (m *mongoRepository) Save(ctx context.Context, cart *Cart) error {
	if cart.Items == nil {
		cart.Items = []LineItem{}
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCartConflict
		}
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete cart: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (m *mongoRepository) DeleteByUser(ctx context.Context, userID string) (bool, error) {
	res, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to delete cart: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (m *mongoRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := m.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *mongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// the server removes carts the sweep missed
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
