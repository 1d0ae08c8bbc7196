package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/creatorhub_server/internal/pkg/queue"
)

const defaultPopTimeout = 5 * time.Second

// EventProcessor 处理一条已落库的 webhook 事件
type EventProcessor interface {
	Process(ctx context.Context, rowID int64) error
}

// Consumer 从 Redis 队列消费 webhook 事件
type Consumer struct {
	queue      *queue.Queue
	processor  EventProcessor
	workers    int
	popTimeout time.Duration
}

func NewConsumer(q *queue.Queue, processor EventProcessor, workers int) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		queue:      q,
		processor:  processor,
		workers:    workers,
		popTimeout: defaultPopTimeout,
	}
}

// Run 启动 workers 个消费协程，ctx 取消后等全部退出再返回
func (c *Consumer) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (c *Consumer) loop(ctx context.Context, workerID int) {
	entry := logrus.WithField("worker", workerID)
	for {
		if ctx.Err() != nil {
			entry.Info("worker shutting down")
			return
		}

		msg, err := c.queue.Pop(ctx, c.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			entry.WithError(err).Warn("failed to pop webhook event")
			sleep(ctx, time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		c.handle(ctx, entry, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, entry *logrus.Entry, msg *queue.WebhookMessage) {
	entry = entry.WithFields(logrus.Fields{
		"event_row_id": msg.EventRowID,
		"event_id":     msg.EventID,
		"type":         msg.Type,
	})
	// 失败的事件留在表里由定时任务重试，这里不重新入队
	if err := c.processor.Process(ctx, msg.EventRowID); err != nil {
		entry.WithError(err).Error("webhook event failed")
		return
	}
	entry.Debug("webhook event consumed")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
