package cart

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/mongodb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupMongoRepo(t *testing.T) Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongodb.Connect(ctx, config.MongoConfig{URI: uri, Database: "cart_test"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ctx) })

	repo := NewMongoRepository(client.Database())
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func sampleCart(userID string, expiresAt time.Time) *Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Cart{
		ID:     uuid.NewString(),
		UserID: userID,
		Items: []LineItem{{
			ID:             uuid.NewString(),
			ProductID:      uuid.NewString(),
			Quantity:       2,
			UnitPriceCents: 450,
			AddedAt:        now,
		}},
		TotalPriceCents: 900,
		ExpiresAt:       expiresAt.UTC().Truncate(time.Millisecond),
		LastActivity:    now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestMongoRepositoryLifecycle(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()
	userID := uuid.NewString()

	_, err := repo.FindByUser(ctx, userID)
	assert.ErrorIs(t, err, ErrCartNotFound)

	cart := sampleCart(userID, time.Now().Add(48*time.Hour))
	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, loaded.ID)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	assert.Equal(t, int64(900), loaded.TotalPriceCents)

	cart.Items[0].Quantity = 5
	require.NoError(t, repo.Save(ctx, cart))
	loaded, err = repo.FindByIDAndOwner(ctx, cart.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Items[0].Quantity)

	_, err = repo.FindByIDAndOwner(ctx, cart.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrCartNotFound)

	deleted, err := repo.DeleteByUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMongoRepositoryOneCartPerUser(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()
	userID := uuid.NewString()

	require.NoError(t, repo.Save(ctx, sampleCart(userID, time.Now().Add(time.Hour))))
	err := repo.Save(ctx, sampleCart(userID, time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrCartConflict)
}

func TestMongoRepositoryDeleteExpired(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// both still live for the server TTL monitor; the sweep runs at a later instant
	stale := sampleCart(uuid.NewString(), now.Add(time.Hour))
	fresh := sampleCart(uuid.NewString(), now.Add(3*time.Hour))
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, fresh))

	removed, err := repo.DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = repo.FindByUser(ctx, stale.UserID)
	assert.ErrorIs(t, err, ErrCartNotFound)
	_, err = repo.FindByUser(ctx, fresh.UserID)
	assert.NoError(t, err)
}
