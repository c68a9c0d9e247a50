package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrWishlistNotFound = errors.New("wishlist not found")

// Repository persists wishlists.
type Repository interface {
	Find(ctx context.Context, userID string) (*Wishlist, error)
	Save(ctx context.Context, wishlist *Wishlist) error
	RemoveProduct(ctx context.Context, userID, productID string) (bool, error)
	Delete(ctx context.Context, userID string) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository binds the repository to the wishlists collection.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("wishlists")}
}

func (m *mongoRepository) Find(ctx context.Context, userID string) (*Wishlist, error) {
	var wishlist Wishlist
	if err := m.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&wishlist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}
	return &wishlist, nil
}

func (m *mongoRepository) Save(ctx context.Context, wishlist *Wishlist) error {
	if wishlist.Items == nil {
		wishlist.Items = []Item{}
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": wishlist.UserID}, wishlist, opts); err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}

// RemoveProduct pulls one product and reports whether it was present.
func (m *mongoRepository) RemoveProduct(ctx context.Context, userID, productID string) (bool, error) {
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"product_id": productID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": userID, "items.product_id": productID}, update)
	if err != nil {
		return false, fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (m *mongoRepository) Delete(ctx context.Context, userID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}
	return nil
}
