package service

import (
	"time"

	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func buildProfileInfo(p *model.Profile) *dto.ProfileInfo {
	info := &dto.ProfileInfo{
		ID:              p.ID,
		Username:        p.Username,
		Handle:          p.Handle,
		DisplayName:     p.DisplayName,
		Role:            p.Role,
		AvatarURL:       p.AvatarURL,
		Bio:             p.Bio,
		IsSuspended:     p.IsSuspended,
		VideoPriceCents: p.VideoPriceCents,
		AcceptingOrders: p.AcceptingOrders,
		HasPayoutAcct:   p.StripeAccountID != nil,
		PayoutsEnabled:  p.PayoutsEnabled,
		OrdersReceived:  p.OrdersReceived,
		OrdersCompleted: p.OrdersCompleted,
		SubscriberCount: p.SubscriberCount,
		EarningsCents:   p.EarningsCents,
		CreatedAt:       formatTime(p.CreatedAt),
	}
	if p.Email != nil {
		info.Email = *p.Email
	}
	return info
}

func buildProfileSummary(p *model.Profile) *dto.ProfileSummary {
	if p == nil {
		return nil
	}
	return &dto.ProfileSummary{
		ID:          p.ID,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}

func buildTierItem(t *model.Tier) *dto.TierItem {
	if t == nil {
		return nil
	}
	benefits := []string(t.Benefits)
	if benefits == nil {
		benefits = []string{}
	}
	return &dto.TierItem{
		ID:          t.ID,
		CreatorID:   t.CreatorID,
		Name:        t.Name,
		Description: t.Description,
		PriceCents:  t.PriceCents,
		Currency:    t.Currency,
		Benefits:    benefits,
		IsActive:    t.IsActive,
		SortOrder:   t.SortOrder,
	}
}

func buildOrderItem(o *model.Order) *dto.OrderItem {
	return &dto.OrderItem{
		ID:               o.ID,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		RecipientName:    o.RecipientName,
		Occasion:         o.Occasion,
		Instructions:     o.Instructions,
		PriceCents:       o.PriceCents,
		PlatformFeeCents: o.PlatformFeeCents,
		Currency:         o.Currency,
		VideoURL:         o.VideoURL,
		DisputeReason:    o.DisputeReason,
		ResolutionNote:   o.ResolutionNote,
		Fan:              buildProfileSummary(o.Fan),
		Creator:          buildProfileSummary(o.Creator),
		AcceptedAt:       formatTimePtr(o.AcceptedAt),
		CompletedAt:      formatTimePtr(o.CompletedAt),
		CreatedAt:        formatTime(o.CreatedAt),
		UpdatedAt:        formatTime(o.UpdatedAt),
	}
}

func buildSubscriptionItem(s *model.SubscriptionOrder) *dto.SubscriptionItem {
	return &dto.SubscriptionItem{
		ID:                s.ID,
		Status:            s.Status,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		CurrentPeriodEnd:  formatTimePtr(s.CurrentPeriodEnd),
		CanceledAt:        formatTimePtr(s.CanceledAt),
		Tier:              buildTierItem(s.Tier),
		Fan:               buildProfileSummary(s.Fan),
		Creator:           buildProfileSummary(s.Creator),
		CreatedAt:         formatTime(s.CreatedAt),
	}
}

func buildNotificationItem(n *model.Notification) *dto.NotificationItem {
	return &dto.NotificationItem{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func buildSyncLogInfo(l *model.SyncLog) *dto.SyncLogInfo {
	return &dto.SyncLogInfo{
		ID:           l.ID,
		Source:       l.Source,
		Status:       l.Status,
		ItemsScanned: l.ItemsScanned,
		ItemsUpdated: l.ItemsUpdated,
		ErrorMessage: l.ErrorMessage,
		StartedAt:    formatTime(l.StartedAt),
		FinishedAt:   formatTimePtr(l.FinishedAt),
	}
}
