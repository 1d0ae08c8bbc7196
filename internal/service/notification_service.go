package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/pubsub"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

const (
	defaultPollLimit = 50
	maxPollLimit     = 100
)

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

// Notifier 业务服务发送站内通知
type Notifier interface {
	Notify(userID int64, kind, title, body string, data map[string]interface{})
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	profileRepo      *repository.ProfileRepository
	publisher        NotificationPublisher
	mailer           Mailer
	linkBase         string
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	profileRepo *repository.ProfileRepository,
	publisher NotificationPublisher,
	mailer Mailer,
	linkBase string,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		profileRepo:      profileRepo,
		publisher:        publisher,
		mailer:           mailer,
		linkBase:         linkBase,
	}
}

// Create 写入通知，再推送到在线连接
func (s *NotificationService) Create(userID int64, kind, title, body string, data map[string]interface{}) (*model.Notification, error) {
	n := &model.Notification{
		UserID: userID,
		Type:   kind,
		Title:  title,
		Body:   body,
		Data:   data,
	}
	if err := s.notificationRepo.Create(n); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		msg := &pubsub.NotificationMessage{
			UserID:         userID,
			NotificationID: n.ID,
			Kind:           kind,
			Title:          title,
			Body:           body,
			Data:           data,
			CreatedAt:      n.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := s.publisher.PublishNotification(context.Background(), msg); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("publish notification failed")
		}
	}

	if s.mailer != nil && s.mailer.Enabled() && isOrderNotification(kind) {
		go s.sendEmail(userID, title, body, data)
	}

	return n, nil
}

// Notify 通知失败不影响主流程，只记录日志
func (s *NotificationService) Notify(userID int64, kind, title, body string, data map[string]interface{}) {
	if _, err := s.Create(userID, kind, title, body, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    kind,
		}).Error("create notification failed")
	}
}

func (s *NotificationService) sendEmail(userID int64, title, body string, data map[string]interface{}) {
	profile, err := s.profileRepo.GetByID(userID)
	if err != nil || profile.Email == nil {
		return
	}

	var link string
	if orderID, ok := data["order_id"]; ok && s.linkBase != "" {
		link = fmt.Sprintf("%s/orders/%v", s.linkBase, orderID)
	}

	if err := s.mailer.SendNotification(*profile.Email, title, body, link); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("send notification email failed")
	}
}

func isOrderNotification(kind string) bool {
	return strings.HasPrefix(kind, model.NotificationOrderPrefix)
}

// Poll 拉取游标 (since, afterID) 之后的新通知；since 为空时返回最近的通知
func (s *NotificationService) Poll(userID int64, since *time.Time, afterID int64, limit int) (*dto.NotificationPollResponse, error) {
	if limit < 1 {
		limit = defaultPollLimit
	}
	if limit > maxPollLimit {
		limit = maxPollLimit
	}

	var (
		items []*model.Notification
		err   error
	)
	if since != nil {
		items, err = s.notificationRepo.ListSince(userID, since.UTC(), afterID, limit)
	} else {
		items, err = s.notificationRepo.ListLatest(userID, limit)
	}
	if err != nil {
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.NotificationPollResponse{
		Items:       make([]*dto.NotificationItem, 0, len(items)),
		UnreadCount: unread,
	}
	for _, n := range items {
		resp.Items = append(resp.Items, buildNotificationItem(n))
	}

	// 没有新通知时游标保持不变
	switch {
	case len(items) > 0:
		last := items[len(items)-1]
		resp.NextSince = last.CreatedAt.UTC().Format(time.RFC3339Nano)
		resp.NextID = last.ID
	case since != nil:
		resp.NextSince = since.UTC().Format(time.RFC3339Nano)
		resp.NextID = afterID
	}

	return resp, nil
}

// UnreadCount 未读数
func (s *NotificationService) UnreadCount(userID int64) (*dto.UnreadCountResponse, error) {
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{UnreadCount: count}, nil
}

// MarkRead 标记单条已读，别人的通知视为不存在
func (s *NotificationService) MarkRead(userID, id int64) error {
	affected, err := s.notificationRepo.MarkRead(userID, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead 全部已读
func (s *NotificationService) MarkAllRead(userID int64) (*dto.MarkReadResponse, error) {
	affected, err := s.notificationRepo.MarkAllRead(userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &dto.MarkReadResponse{Updated: affected}, nil
}
