package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/testutil"
)

func TestSubscriptionRepository_GetByStripeID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	fan := testutil.TestProfile(t, db)
	creator := testutil.TestProfile(t, db, testutil.AsCreator(1000))
	tier := testutil.TestTier(t, db, creator.ID)
	sub := testutil.TestSubscriptionOrder(t, db, fan.ID, creator.ID, tier.ID, model.SubscriptionStatusActive)

	found, err := repo.GetByStripeID(sub.StripeSubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, found.ID)

	dup := &model.SubscriptionOrder{
		FanID: fan.ID, CreatorID: creator.ID, TierID: tier.ID,
		StripeSubscriptionID: sub.StripeSubscriptionID, Status: model.SubscriptionStatusActive,
	}
	assert.ErrorIs(t, repo.Create(dup), ErrDuplicate)
}

func TestSubscriptionRepository_ExistsLive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	fan := testutil.TestProfile(t, db)
	creator := testutil.TestProfile(t, db, testutil.AsCreator(1000))
	tier := testutil.TestTier(t, db, creator.ID)
	testutil.TestSubscriptionOrder(t, db, fan.ID, creator.ID, tier.ID, model.SubscriptionStatusCanceled)

	live, err := repo.ExistsLive(fan.ID, tier.ID)
	require.NoError(t, err)
	assert.False(t, live)

	testutil.TestSubscriptionOrder(t, db, fan.ID, creator.ID, tier.ID, model.SubscriptionStatusActive)
	live, err = repo.ExistsLive(fan.ID, tier.ID)
	require.NoError(t, err)
	assert.True(t, live)

	subs, total, err := repo.ListByParticipant(OwnerCreator, creator.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.NotNil(t, subs[0].Tier)
}
