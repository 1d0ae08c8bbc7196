package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/pkg/pubsub"
	"github.com/qs3c/creatorhub_server/internal/repository"
	"github.com/qs3c/creatorhub_server/internal/testutil"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []*pubsub.NotificationMessage
}

func (p *capturePublisher) PublishNotification(ctx context.Context, msg *pubsub.NotificationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func setupNotificationService(t *testing.T) (*NotificationService, *gorm.DB, *capturePublisher, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	publisher := &capturePublisher{}
	service := NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewProfileRepository(db),
		publisher,
		nil,
		"",
	)
	return service, db, publisher, func() { testutil.CleanupTestDB(t, db) }
}

func TestNotificationService_CreatePublishes(t *testing.T) {
	service, db, publisher, cleanup := setupNotificationService(t)
	defer cleanup()

	user := testutil.TestProfile(t, db)
	n, err := service.Create(user.ID, model.NotificationOrderAccepted, "订单已被接受", "", map[string]interface{}{"order_id": 7})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	require.Len(t, publisher.msgs, 1)
	assert.Equal(t, user.ID, publisher.msgs[0].UserID)
	assert.Equal(t, n.ID, publisher.msgs[0].NotificationID)
	assert.Equal(t, model.NotificationOrderAccepted, publisher.msgs[0].Kind)
}

func TestNotificationService_Poll(t *testing.T) {
	service, db, _, cleanup := setupNotificationService(t)
	defer cleanup()

	user := testutil.TestProfile(t, db)
	other := testutil.TestProfile(t, db)
	base := time.Now().UTC().Add(-time.Hour)
	testutil.TestNotification(t, db, user.ID, base)
	testutil.TestNotification(t, db, user.ID, base.Add(time.Minute))
	testutil.TestNotification(t, db, other.ID, base.Add(2*time.Minute))

	first, err := service.Poll(user.ID, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, int64(2), first.UnreadCount)
	require.NotEmpty(t, first.NextSince)

	cursor, err := time.Parse(time.RFC3339Nano, first.NextSince)
	require.NoError(t, err)

	// 游标未变化时再次轮询为空
	again, err := service.Poll(user.ID, &cursor, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, again.Items)
	assert.Equal(t, first.NextSince, again.NextSince)

	testutil.TestNotification(t, db, user.ID, base.Add(3*time.Minute))
	next, err := service.Poll(user.ID, &cursor, 0, 0)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, int64(3), next.UnreadCount)
}

func TestNotificationService_Poll_Limit(t *testing.T) {
	service, db, _, cleanup := setupNotificationService(t)
	defer cleanup()

	user := testutil.TestProfile(t, db)
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		testutil.TestNotification(t, db, user.ID, base.Add(time.Duration(i)*time.Second))
	}

	since := base.Add(-time.Second)
	resp, err := service.Poll(user.ID, &since, 0, 2)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	cursor, err := time.Parse(time.RFC3339Nano, resp.NextSince)
	require.NoError(t, err)
	resp, err = service.Poll(user.ID, &cursor, 0, 500)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 3)
}

func TestNotificationService_Poll_SameTimestamp(t *testing.T) {
	service, db, _, cleanup := setupNotificationService(t)
	defer cleanup()

	user := testutil.TestProfile(t, db)
	at := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		testutil.TestNotification(t, db, user.ID, at)
	}

	since := at.Add(-time.Second)
	first, err := service.Poll(user.ID, &since, 0, 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotZero(t, first.NextID)
	assert.Equal(t, first.Items[1].ID, first.NextID)

	cursor, err := time.Parse(time.RFC3339Nano, first.NextSince)
	require.NoError(t, err)
	second, err := service.Poll(user.ID, &cursor, first.NextID, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, int64(3), second.UnreadCount)

	// 三条都拿到后游标不再前进
	cursor, err = time.Parse(time.RFC3339Nano, second.NextSince)
	require.NoError(t, err)
	third, err := service.Poll(user.ID, &cursor, second.NextID, 2)
	require.NoError(t, err)
	assert.Empty(t, third.Items)
	assert.Equal(t, second.NextID, third.NextID)
	assert.Equal(t, second.NextSince, third.NextSince)
}

func TestIsOrderNotification(t *testing.T) {
	for _, kind := range []string{
		model.NotificationOrderCreated, model.NotificationOrderPaid, model.NotificationOrderAccepted,
		model.NotificationOrderStarted, model.NotificationOrderCompleted, model.NotificationOrderDisputed,
		model.NotificationOrderCancelled, model.NotificationOrderResolved,
	} {
		assert.True(t, isOrderNotification(kind), kind)
	}
	assert.False(t, isOrderNotification(model.NotificationNewSubscriber))
	assert.False(t, isOrderNotification(model.NotificationPaymentFailed))
}

func TestNotificationService_MarkRead(t *testing.T) {
	service, db, _, cleanup := setupNotificationService(t)
	defer cleanup()

	user := testutil.TestProfile(t, db)
	other := testutil.TestProfile(t, db)
	n1 := testutil.TestNotification(t, db, user.ID, time.Now().UTC())
	testutil.TestNotification(t, db, user.ID, time.Now().UTC())
	foreign := testutil.TestNotification(t, db, other.ID, time.Now().UTC())

	require.NoError(t, service.MarkRead(user.ID, n1.ID))
	assert.ErrorIs(t, service.MarkRead(user.ID, foreign.ID), ErrNotificationNotFound)
	assert.ErrorIs(t, service.MarkRead(user.ID, 99999), ErrNotificationNotFound)

	count, err := service.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.UnreadCount)

	resp, err := service.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Updated)

	count, err = service.UnreadCount(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count.UnreadCount)
}
