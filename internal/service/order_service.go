package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/payment"
	"github.com/qs3c/creatorhub_server/internal/pkg/storage"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

var (
	ErrOrderNotFound      = errors.New("订单不存在")
	ErrOrderForbidden     = errors.New("无权对该订单执行此操作")
	ErrInvalidTransition  = errors.New("订单当前状态不允许该操作")
	ErrCreatorNotFound    = errors.New("创作者不存在")
	ErrCreatorUnavailable = errors.New("创作者暂不接单")
	ErrOnlyFansCanOrder   = errors.New("只有粉丝可以下单")
	ErrSelfOrder          = errors.New("不能给自己下单")
	ErrVideoRequired      = errors.New("请先上传视频")
	ErrInvalidVideo       = errors.New("不支持的视频格式")
	ErrVideoTooLarge      = errors.New("视频文件过大")
)

const staleOrderBatch = 100

type OrderService struct {
	orderRepo   *repository.OrderRepository
	profileRepo *repository.ProfileRepository
	notifier    Notifier
	store       storage.ObjectStore
	cfg         *config.Config
}

func NewOrderService(
	orderRepo *repository.OrderRepository,
	profileRepo *repository.ProfileRepository,
	notifier Notifier,
	store storage.ObjectStore,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		store:       store,
		cfg:         cfg,
	}
}

// Create 粉丝向创作者下单，价格按下单时的报价固定
func (s *OrderService) Create(fanID int64, req *dto.CreateOrderRequest) (*dto.OrderItem, error) {
	fan, err := s.profileRepo.GetByID(fanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if fan.Role != model.RoleFan {
		return nil, ErrOnlyFansCanOrder
	}
	if req.CreatorID == fanID {
		return nil, ErrSelfOrder
	}

	creator, err := s.profileRepo.GetByID(req.CreatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, err
	}
	if !creator.IsCreator() || creator.IsSuspended {
		return nil, ErrCreatorNotFound
	}
	if !creator.AcceptingOrders || creator.VideoPriceCents <= 0 {
		return nil, ErrCreatorUnavailable
	}

	order := &model.Order{
		FanID:            fanID,
		CreatorID:        creator.ID,
		Status:           model.OrderStatusPending,
		RecipientName:    strings.TrimSpace(req.RecipientName),
		Occasion:         req.Occasion,
		Instructions:     req.Instructions,
		PriceCents:       creator.VideoPriceCents,
		PlatformFeeCents: payment.PlatformFee(creator.VideoPriceCents, s.cfg.Stripe.PlatformFeePercent),
		Currency:         s.currency(),
		PaymentStatus:    model.PaymentStatusUnpaid,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	s.logStatus(order.ID, fanID, "", model.OrderStatusPending, "")
	if err := s.profileRepo.IncrementOrdersReceived(creator.ID); err != nil {
		logrus.WithError(err).WithField("creator_id", creator.ID).Warn("increment orders_received failed")
	}
	s.notify(creator.ID, model.NotificationOrderCreated, "收到新订单",
		fmt.Sprintf("%s 请你为 %s 录制视频", fan.DisplayName, order.RecipientName), order.ID)

	order.Fan = fan
	order.Creator = creator
	return buildOrderItem(order), nil
}

// Get 订单详情，管理员可查看任意订单
func (s *OrderService) Get(userID int64, role string, id int64) (*dto.OrderDetail, error) {
	var (
		order *model.Order
		err   error
	)
	if role == model.RoleAdmin {
		order, err = s.orderRepo.GetByIDWithProfiles(id)
	} else {
		order, err = s.orderRepo.GetForParticipant(id, userID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	logs, err := s.orderRepo.ListStatusLogs(order.ID)
	if err != nil {
		return nil, err
	}

	detail := &dto.OrderDetail{
		OrderItem: buildOrderItem(order),
		History:   make([]*dto.OrderStatusItem, 0, len(logs)),
	}
	for _, l := range logs {
		detail.History = append(detail.History, &dto.OrderStatusItem{
			FromStatus: l.FromStatus,
			ToStatus:   l.ToStatus,
			ActorID:    l.ActorID,
			Note:       l.Note,
			CreatedAt:  formatTime(l.CreatedAt),
		})
	}
	return detail, nil
}

// List 我下的单（as=fan）或我收到的单（as=creator）
func (s *OrderService) List(userID int64, as, status string, page, pageSize int) ([]*dto.OrderItem, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	column := repository.OwnerFan
	if as == model.RoleCreator {
		column = repository.OwnerCreator
	}

	orders, total, err := s.orderRepo.ListByParticipant(column, userID, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return buildOrderItems(orders), total, nil
}

// AdminList 管理端订单列表
func (s *OrderService) AdminList(status string, page, pageSize int) ([]*dto.OrderItem, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	orders, total, err := s.orderRepo.ListAll(status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return buildOrderItems(orders), total, nil
}

// Accept 创作者接单
func (s *OrderService) Accept(creatorID, id int64) (*dto.OrderItem, error) {
	order, err := s.loadForParticipant(id, creatorID)
	if err != nil {
		return nil, err
	}
	if order.CreatorID != creatorID {
		return nil, ErrOrderForbidden
	}

	now := time.Now().UTC()
	affected, err := s.orderRepo.TransitionStatus(id, repository.OwnerCreator, creatorID,
		[]string{model.OrderStatusPending},
		map[string]interface{}{"status": model.OrderStatusAccepted, "accepted_at": now})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	s.logStatus(id, creatorID, order.Status, model.OrderStatusAccepted, "")
	s.notify(order.FanID, model.NotificationOrderAccepted, "订单已被接受",
		fmt.Sprintf("%s 接受了你的订单", displayName(order.Creator)), id)
	return s.reload(id)
}

// Start 创作者开始录制
func (s *OrderService) Start(creatorID, id int64) (*dto.OrderItem, error) {
	order, err := s.loadForParticipant(id, creatorID)
	if err != nil {
		return nil, err
	}
	if order.CreatorID != creatorID {
		return nil, ErrOrderForbidden
	}

	now := time.Now().UTC()
	affected, err := s.orderRepo.TransitionStatus(id, repository.OwnerCreator, creatorID,
		[]string{model.OrderStatusAccepted},
		map[string]interface{}{"status": model.OrderStatusInProgress, "started_at": now})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	s.logStatus(id, creatorID, order.Status, model.OrderStatusInProgress, "")
	s.notify(order.FanID, model.NotificationOrderStarted, "视频录制中",
		fmt.Sprintf("%s 开始录制你的视频", displayName(order.Creator)), id)
	return s.reload(id)
}

// UploadVideo 创作者上传成片，已接单或录制中都可以上传，重复上传覆盖旧文件
func (s *OrderService) UploadVideo(ctx context.Context, creatorID, id int64, filename string, size int64, file io.Reader) (*dto.OrderItem, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	order, err := s.loadForParticipant(id, creatorID)
	if err != nil {
		return nil, err
	}
	if order.CreatorID != creatorID {
		return nil, ErrOrderForbidden
	}
	if order.Status != model.OrderStatusAccepted && order.Status != model.OrderStatusInProgress {
		return nil, ErrInvalidTransition
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !s.videoExtensionAllowed(ext) {
		return nil, ErrInvalidVideo
	}
	if s.cfg.Upload.MaxVideoSize > 0 && size > s.cfg.Upload.MaxVideoSize {
		return nil, ErrVideoTooLarge
	}

	key := storage.VideoKey(order.ID, ext)
	url, err := s.store.Put(ctx, key, file, storage.ContentType(ext))
	if err != nil {
		return nil, err
	}

	affected, err := s.orderRepo.TransitionStatus(id, repository.OwnerCreator, creatorID,
		[]string{model.OrderStatusAccepted, model.OrderStatusInProgress},
		map[string]interface{}{"video_url": url, "video_object_key": key})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		s.deleteObject(ctx, key)
		return nil, ErrInvalidTransition
	}

	if order.VideoObjectKey != "" && order.VideoObjectKey != key {
		s.deleteObject(ctx, order.VideoObjectKey)
	}

	return s.reload(id)
}

// Complete 创作者交付，需要已上传视频
func (s *OrderService) Complete(creatorID, id int64) (*dto.OrderItem, error) {
	order, err := s.loadForParticipant(id, creatorID)
	if err != nil {
		return nil, err
	}
	if order.CreatorID != creatorID {
		return nil, ErrOrderForbidden
	}
	if order.VideoURL == "" {
		return nil, ErrVideoRequired
	}

	now := time.Now().UTC()
	affected, err := s.orderRepo.TransitionStatus(id, repository.OwnerCreator, creatorID,
		[]string{model.OrderStatusAccepted, model.OrderStatusInProgress},
		map[string]interface{}{"status": model.OrderStatusCompleted, "completed_at": now})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	s.logStatus(id, creatorID, order.Status, model.OrderStatusCompleted, "")
	s.recordEarnings(order)
	s.notify(order.FanID, model.NotificationOrderCompleted, "视频已送达",
		fmt.Sprintf("%s 完成了你的订单", displayName(order.Creator)), id)
	return s.reload(id)
}

// Dispute 粉丝对进行中或已完成的订单发起争议
func (s *OrderService) Dispute(fanID, id int64, req *dto.DisputeRequest) (*dto.OrderItem, error) {
	order, err := s.loadForParticipant(id, fanID)
	if err != nil {
		return nil, err
	}
	if order.FanID != fanID {
		return nil, ErrOrderForbidden
	}

	now := time.Now().UTC()
	affected, err := s.orderRepo.TransitionStatus(id, repository.OwnerFan, fanID,
		[]string{model.OrderStatusAccepted, model.OrderStatusInProgress, model.OrderStatusCompleted},
		map[string]interface{}{
			"status":         model.OrderStatusDisputed,
			"dispute_reason": req.Reason,
			"disputed_at":    now,
		})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	s.logStatus(id, fanID, order.Status, model.OrderStatusDisputed, req.Reason)
	s.notify(order.CreatorID, model.NotificationOrderDisputed, "订单有争议",
		fmt.Sprintf("%s 对订单发起了争议", displayName(order.Fan)), id)
	return s.reload(id)
}

// Cancel 粉丝只能取消未接的单，创作者可以取消未开始录制的单
func (s *OrderService) Cancel(userID, id int64, req *dto.CancelRequest) (*dto.OrderItem, error) {
	order, err := s.loadForParticipant(id, userID)
	if err != nil {
		return nil, err
	}

	var (
		column string
		from   []string
		target int64
	)
	switch userID {
	case order.FanID:
		column = repository.OwnerFan
		from = []string{model.OrderStatusPending}
		target = order.CreatorID
	case order.CreatorID:
		column = repository.OwnerCreator
		from = []string{model.OrderStatusPending, model.OrderStatusAccepted}
		target = order.FanID
	default:
		return nil, ErrOrderForbidden
	}

	var reason string
	if req != nil {
		reason = req.Reason
	}

	now := time.Now().UTC()
	affected, err := s.orderRepo.TransitionStatus(id, column, userID, from,
		map[string]interface{}{"status": model.OrderStatusCancelled, "cancelled_at": now})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	s.logStatus(id, userID, order.Status, model.OrderStatusCancelled, reason)
	s.notify(target, model.NotificationOrderCancelled, "订单已取消", reason, id)
	return s.reload(id)
}

// Resolve 管理员裁定争议订单为完成或取消
func (s *OrderService) Resolve(adminID, id int64, req *dto.ResolveRequest) (*dto.OrderItem, error) {
	order, err := s.orderRepo.GetByIDWithProfiles(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":          req.Outcome,
		"resolution_note": req.Note,
	}
	switch req.Outcome {
	case model.OrderStatusCompleted:
		if order.CompletedAt == nil {
			fields["completed_at"] = now
		}
	case model.OrderStatusCancelled:
		fields["cancelled_at"] = now
		// 完成后才被投诉的订单，收入要退回
		fields["completed_at"] = nil
	default:
		return nil, ErrInvalidTransition
	}

	affected, err := s.orderRepo.TransitionStatus(id, "", 0, []string{model.OrderStatusDisputed}, fields)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	s.logStatus(id, adminID, order.Status, req.Outcome, req.Note)
	switch {
	case req.Outcome == model.OrderStatusCompleted && order.CompletedAt == nil:
		s.recordEarnings(order)
	case req.Outcome == model.OrderStatusCancelled && order.CompletedAt != nil:
		s.reverseEarnings(order)
	}

	body := fmt.Sprintf("争议处理结果：%s", req.Outcome)
	s.notify(order.FanID, model.NotificationOrderResolved, "争议已处理", body, id)
	s.notify(order.CreatorID, model.NotificationOrderResolved, "争议已处理", body, id)
	return s.reload(id)
}

// ExpireStale 取消超时未接的订单，返回取消数量
func (s *OrderService) ExpireStale(ttl time.Duration) (int, error) {
	before := time.Now().UTC().Add(-ttl)
	orders, err := s.orderRepo.ListStalePending(before, staleOrderBatch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, order := range orders {
		affected, err := s.orderRepo.TransitionStatus(order.ID, "", 0,
			[]string{model.OrderStatusPending},
			map[string]interface{}{"status": model.OrderStatusCancelled, "cancelled_at": time.Now().UTC()})
		if err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Error("expire order failed")
			continue
		}
		if affected == 0 {
			continue
		}
		expired++
		s.logStatus(order.ID, 0, model.OrderStatusPending, model.OrderStatusCancelled, "expired")
		s.notify(order.FanID, model.NotificationOrderCancelled, "订单已过期", "创作者未在规定时间内接单", order.ID)
	}

	return expired, nil
}

func (s *OrderService) loadForParticipant(id, userID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetForParticipant(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) reload(id int64) (*dto.OrderItem, error) {
	order, err := s.orderRepo.GetByIDWithProfiles(id)
	if err != nil {
		return nil, err
	}
	return buildOrderItem(order), nil
}

func (s *OrderService) recordEarnings(order *model.Order) {
	earnings := order.PriceCents - order.PlatformFeeCents
	if err := s.profileRepo.RecordCompletedOrder(order.CreatorID, earnings); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("record completed order failed")
	}
}

func (s *OrderService) reverseEarnings(order *model.Order) {
	earnings := order.PriceCents - order.PlatformFeeCents
	if err := s.profileRepo.ReverseCompletedOrder(order.CreatorID, earnings); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("reverse completed order failed")
	}
}

func (s *OrderService) logStatus(orderID, actorID int64, from, to, note string) {
	err := s.orderRepo.CreateStatusLog(&model.OrderStatusLog{
		OrderID:    orderID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
	})
	if err != nil {
		logrus.WithError(err).WithField("order_id", orderID).Error("write order status log failed")
	}
}

func (s *OrderService) notify(userID int64, kind, title, body string, orderID int64) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(userID, kind, title, body, map[string]interface{}{"order_id": orderID})
}

func (s *OrderService) deleteObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("delete object failed")
	}
}

func (s *OrderService) videoExtensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.Upload.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (s *OrderService) currency() string {
	if s.cfg.Stripe.Currency != "" {
		return s.cfg.Stripe.Currency
	}
	return "usd"
}

func buildOrderItems(orders []*model.Order) []*dto.OrderItem {
	items := make([]*dto.OrderItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, buildOrderItem(o))
	}
	return items
}

func displayName(p *model.Profile) string {
	if p == nil {
		return ""
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Handle
}
