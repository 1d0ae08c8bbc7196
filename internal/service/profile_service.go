package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/storage"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

var (
	ErrProfileNotFound    = errors.New("用户不存在")
	ErrInvalidAvatar      = errors.New("不支持的图片格式")
	ErrAvatarTooLarge     = errors.New("头像文件过大")
	ErrStorageUnavailable = errors.New("文件存储未配置")
	ErrCreatorOnlyField   = errors.New("只有创作者可以设置接单信息")
)

var avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

type ProfileService struct {
	profileRepo *repository.ProfileRepository
	tierRepo    *repository.TierRepository
	store       storage.ObjectStore
	cfg         *config.Config
}

func NewProfileService(profileRepo *repository.ProfileRepository, tierRepo *repository.TierRepository, store storage.ObjectStore, cfg *config.Config) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		tierRepo:    tierRepo,
		store:       store,
		cfg:         cfg,
	}
}

func (s *ProfileService) load(id int64) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// GetMe 当前用户资料
func (s *ProfileService) GetMe(userID int64) (*dto.ProfileInfo, error) {
	profile, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	return buildProfileInfo(profile), nil
}

// UpdateMe 更新自己的资料
func (s *ProfileService) UpdateMe(userID int64, req *dto.UpdateProfileRequest) (*dto.ProfileInfo, error) {
	profile, err := s.load(userID)
	if err != nil {
		return nil, err
	}

	if (req.VideoPriceCents != nil || req.AcceptingOrders != nil) && !profile.IsCreator() {
		return nil, ErrCreatorOnlyField
	}

	if req.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.VideoPriceCents != nil {
		profile.VideoPriceCents = *req.VideoPriceCents
	}
	if req.AcceptingOrders != nil {
		profile.AcceptingOrders = *req.AcceptingOrders
	}

	if err := s.profileRepo.UpdateFields(profile.ID, map[string]interface{}{
		"display_name":      profile.DisplayName,
		"bio":               profile.Bio,
		"video_price_cents": profile.VideoPriceCents,
		"accepting_orders":  profile.AcceptingOrders,
	}); err != nil {
		return nil, err
	}

	return buildProfileInfo(profile), nil
}

// UploadAvatar 上传头像
func (s *ProfileService) UploadAvatar(ctx context.Context, userID int64, filename string, size int64, file io.Reader) (*dto.AvatarResponse, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !avatarExtensions[ext] {
		return nil, ErrInvalidAvatar
	}
	if s.cfg.Upload.MaxAvatarSize > 0 && size > s.cfg.Upload.MaxAvatarSize {
		return nil, ErrAvatarTooLarge
	}

	profile, err := s.load(userID)
	if err != nil {
		return nil, err
	}

	url, err := s.store.Put(ctx, storage.AvatarKey(profile.ID, ext), file, storage.ContentType(ext))
	if err != nil {
		return nil, err
	}

	if err := s.profileRepo.UpdateFields(profile.ID, map[string]interface{}{"avatar_url": url}); err != nil {
		return nil, err
	}

	return &dto.AvatarResponse{AvatarURL: url}, nil
}

// GetPublic 按 handle 查看公开资料，创作者附带在售档位
func (s *ProfileService) GetPublic(handle string) (*dto.PublicProfile, error) {
	profile, err := s.profileRepo.GetByHandle(handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if profile.IsSuspended {
		return nil, ErrProfileNotFound
	}

	public := &dto.PublicProfile{
		ID:              profile.ID,
		Handle:          profile.Handle,
		DisplayName:     profile.DisplayName,
		Role:            profile.Role,
		AvatarURL:       profile.AvatarURL,
		Bio:             profile.Bio,
		OrdersCompleted: profile.OrdersCompleted,
		SubscriberCount: profile.SubscriberCount,
	}

	if profile.IsCreator() {
		public.VideoPriceCents = profile.VideoPriceCents
		public.AcceptingOrders = profile.AcceptingOrders

		tiers, err := s.tierRepo.ListByCreator(profile.ID, true)
		if err != nil {
			return nil, err
		}
		public.Tiers = make([]*dto.TierItem, 0, len(tiers))
		for _, t := range tiers {
			public.Tiers = append(public.Tiers, buildTierItem(t))
		}
	}

	return public, nil
}

// ListCreators 创作者目录
func (s *ProfileService) ListCreators(page, pageSize int, search string) ([]*dto.PublicProfile, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	profiles, total, err := s.profileRepo.ListCreators(page, pageSize, strings.TrimSpace(search))
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.PublicProfile, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, &dto.PublicProfile{
			ID:              p.ID,
			Handle:          p.Handle,
			DisplayName:     p.DisplayName,
			Role:            p.Role,
			AvatarURL:       p.AvatarURL,
			Bio:             p.Bio,
			VideoPriceCents: p.VideoPriceCents,
			AcceptingOrders: p.AcceptingOrders,
			OrdersCompleted: p.OrdersCompleted,
			SubscriberCount: p.SubscriberCount,
		})
	}
	return items, total, nil
}

// AdminList 管理员查看用户列表
func (s *ProfileService) AdminList(role string, page, pageSize int) ([]*dto.ProfileInfo, int64, error) {
	page, pageSize = clampPage(page, pageSize)

	profiles, total, err := s.profileRepo.List(role, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.ProfileInfo, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, buildProfileInfo(p))
	}
	return items, total, nil
}

// AdminUpdate 修改角色或停用账号，角色变更在下次登录后生效
func (s *ProfileService) AdminUpdate(adminID, id int64, req *dto.AdminUpdateProfileRequest) (*dto.ProfileInfo, error) {
	profile, err := s.load(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Role != nil {
		profile.Role = *req.Role
		fields["role"] = profile.Role
	}
	if req.IsSuspended != nil {
		profile.IsSuspended = *req.IsSuspended
		fields["is_suspended"] = profile.IsSuspended
	}
	if req.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*req.DisplayName)
		fields["display_name"] = profile.DisplayName
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
		fields["bio"] = profile.Bio
	}

	if len(fields) > 0 {
		if err := s.profileRepo.UpdateFields(profile.ID, fields); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"admin_id":   adminID,
			"profile_id": profile.ID,
			"fields":     fields,
		}).Info("profile updated by admin")
	}

	return buildProfileInfo(profile), nil
}
