package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

var (
	ErrTierNotFound = errors.New("订阅档位不存在")
	ErrNotCreator   = errors.New("只有创作者可以执行此操作")
)

type TierService struct {
	tierRepo    *repository.TierRepository
	profileRepo *repository.ProfileRepository
	cfg         *config.Config
}

func NewTierService(tierRepo *repository.TierRepository, profileRepo *repository.ProfileRepository, cfg *config.Config) *TierService {
	return &TierService{
		tierRepo:    tierRepo,
		profileRepo: profileRepo,
		cfg:         cfg,
	}
}

// ListByCreator 公开接口只返回在售档位；创作者查看自己的档位时包含已下架的
func (s *TierService) ListByCreator(viewerID, creatorID int64) ([]*dto.TierItem, error) {
	tiers, err := s.tierRepo.ListByCreator(creatorID, viewerID != creatorID)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.TierItem, 0, len(tiers))
	for _, t := range tiers {
		items = append(items, buildTierItem(t))
	}
	return items, nil
}

// Create 创建档位
func (s *TierService) Create(creatorID int64, req *dto.CreateTierRequest) (*dto.TierItem, error) {
	if err := s.requireCreator(creatorID); err != nil {
		return nil, err
	}

	currency := s.cfg.Stripe.Currency
	if currency == "" {
		currency = "usd"
	}

	tier := &model.Tier{
		CreatorID:   creatorID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		Benefits:    model.StringArray(req.Benefits),
		IsActive:    true,
		SortOrder:   req.SortOrder,
	}
	if err := s.tierRepo.Create(tier); err != nil {
		return nil, err
	}
	return buildTierItem(tier), nil
}

// Update 修改自己的档位，别人的档位视为不存在
func (s *TierService) Update(creatorID, id int64, req *dto.UpdateTierRequest) (*dto.TierItem, error) {
	tier, err := s.loadOwned(creatorID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		tier.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		tier.Description = *req.Description
	}
	if req.PriceCents != nil {
		tier.PriceCents = *req.PriceCents
	}
	if req.Benefits != nil {
		tier.Benefits = model.StringArray(*req.Benefits)
	}
	if req.SortOrder != nil {
		tier.SortOrder = *req.SortOrder
	}
	if req.IsActive != nil {
		tier.IsActive = *req.IsActive
	}

	if err := s.tierRepo.Update(tier); err != nil {
		return nil, err
	}
	return buildTierItem(tier), nil
}

// Deactivate 下架档位，已有订阅不受影响
func (s *TierService) Deactivate(creatorID, id int64) error {
	tier, err := s.loadOwned(creatorID, id)
	if err != nil {
		return err
	}
	if !tier.IsActive {
		return nil
	}
	tier.IsActive = false
	return s.tierRepo.Update(tier)
}

func (s *TierService) loadOwned(creatorID, id int64) (*model.Tier, error) {
	tier, err := s.tierRepo.GetByIDAndCreator(id, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, err
	}
	return tier, nil
}

func (s *TierService) requireCreator(profileID int64) error {
	profile, err := s.profileRepo.GetByID(profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	if !profile.IsCreator() {
		return ErrNotCreator
	}
	return nil
}
