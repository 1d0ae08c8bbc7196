package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/qs3c/creatorhub_server/internal/model"
)

type fakeSyncer struct {
	calls int32
	err   error
}

func (f *fakeSyncer) Run(ctx context.Context) (*model.SyncLog, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &model.SyncLog{Status: model.SyncStatusSuccess}, nil
}

type fakeExpirer struct {
	ttl   time.Duration
	calls int32
}

func (f *fakeExpirer) ExpireStale(ttl time.Duration) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	f.ttl = ttl
	return 2, nil
}

type fakeRetrier struct {
	limit int
}

func (f *fakeRetrier) RetryFailed(ctx context.Context, limit int) (int, error) {
	f.limit = limit
	return 0, nil
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(nil, nil, nil, 0, 0)
	assert.Equal(t, time.Duration(defaultSyncMinutes)*time.Minute, svc.syncInterval)
	assert.Equal(t, defaultPendingTTL, svc.pendingTTL)

	svc = NewService(nil, nil, nil, 15, 24)
	assert.Equal(t, 15*time.Minute, svc.syncInterval)
	assert.Equal(t, 24*time.Hour, svc.pendingTTL)
}

func TestService_RunNow(t *testing.T) {
	syncer := &fakeSyncer{}
	expirer := &fakeExpirer{}
	retrier := &fakeRetrier{}
	svc := NewService(syncer, expirer, retrier, 5, 48)

	svc.RunSync()
	svc.RunExpire()
	svc.RunRetry()

	assert.Equal(t, int32(1), atomic.LoadInt32(&syncer.calls))
	assert.Equal(t, 48*time.Hour, expirer.ttl)
	assert.Equal(t, webhookRetryBatch, retrier.limit)
}

func TestService_RunSync_Error(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("boom")}
	svc := NewService(syncer, nil, nil, 5, 0)

	assert.NotPanics(t, svc.RunSync)
	assert.Equal(t, int32(1), atomic.LoadInt32(&syncer.calls))
}

func TestService_StartStop(t *testing.T) {
	svc := NewService(&fakeSyncer{}, &fakeExpirer{}, &fakeRetrier{}, 1, 1)

	svc.Start()
	done := make(chan struct{})
	go func() {
		svc.Stop()
		svc.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
