package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/creatorhub_server/config"
	"github.com/qs3c/creatorhub_server/internal/model"
	"github.com/qs3c/creatorhub_server/internal/model/dto"
	"github.com/qs3c/creatorhub_server/internal/pkg/jwt"
	"github.com/qs3c/creatorhub_server/internal/pkg/oauth"
	"github.com/qs3c/creatorhub_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrUsernameExists     = errors.New("用户名已被使用")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrProfileSuspended   = errors.New("账号已被停用")
	ErrOAuthUnavailable   = errors.New("第三方登录未配置")
	ErrInvalidOAuthState  = errors.New("登录状态无效或已过期")
)

const maxHandleAttempts = 20

type AuthService struct {
	profileRepo *repository.ProfileRepository
	cfg         *config.Config
	github      GithubProvider
	states      OAuthStateStore
}

func NewAuthService(profileRepo *repository.ProfileRepository, cfg *config.Config, github GithubProvider, states OAuthStateStore) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
		cfg:         cfg,
		github:      github,
		states:      states,
	}
}

// Register 邮箱注册，角色只能是粉丝或创作者
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.profileRepo.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	exists, err = s.profileRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	passwordStr := string(hashedPassword)

	role := req.Role
	if role != model.RoleCreator {
		role = model.RoleFan
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	handle, err := s.uniqueHandle(req.Username)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		Username:     req.Username,
		Handle:       handle,
		DisplayName:  displayName,
		Email:        &email,
		PasswordHash: &passwordStr,
		Role:         role,
	}
	if err := s.profileRepo.Create(profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"profile_id": profile.ID, "role": role}).Info("profile registered")
	return s.issue(profile)
}

// Login 邮箱密码登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	profile, err := s.profileRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if profile.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if profile.IsSuspended {
		return nil, ErrProfileSuspended
	}

	return s.issue(profile)
}

// GithubAuthURL 生成授权地址，state 保存登录后的跳转和首次注册的角色
func (s *AuthService) GithubAuthURL(ctx context.Context, next, role string) (string, error) {
	if s.github == nil || !s.github.Enabled() || s.states == nil {
		return "", ErrOAuthUnavailable
	}
	if role != model.RoleCreator {
		role = model.RoleFan
	}

	state, err := s.states.GenerateState(ctx, oauth.StateData{Next: next, Role: role})
	if err != nil {
		return "", err
	}
	return s.github.AuthURL(state), nil
}

// GithubCallback 处理回调，返回登录结果和跳转地址
func (s *AuthService) GithubCallback(ctx context.Context, code, state string) (*dto.LoginResponse, string, error) {
	if s.github == nil || !s.github.Enabled() || s.states == nil {
		return nil, "", ErrOAuthUnavailable
	}

	data, err := s.states.ConsumeState(ctx, state)
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidState) {
			return nil, "", ErrInvalidOAuthState
		}
		return nil, "", err
	}

	githubUser, err := s.github.FetchUser(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get github user: %w", err)
	}

	profile, err := s.profileRepo.GetByGithubID(githubUser.IDString())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	if profile == nil {
		profile, err = s.createGithubProfile(githubUser, data.Role)
		if err != nil {
			return nil, "", err
		}
	}

	if profile.IsSuspended {
		return nil, "", ErrProfileSuspended
	}

	resp, err := s.issue(profile)
	if err != nil {
		return nil, "", err
	}
	return resp, data.Next, nil
}

func (s *AuthService) createGithubProfile(githubUser *oauth.GithubUser, role string) (*model.Profile, error) {
	githubID := githubUser.IDString()

	// 邮箱已注册时绑定到已有账号
	if githubUser.Email != "" {
		email := strings.ToLower(githubUser.Email)
		existing, err := s.profileRepo.GetByEmail(email)
		if err == nil {
			if err := s.profileRepo.UpdateFields(existing.ID, map[string]interface{}{"github_id": githubID}); err != nil {
				return nil, err
			}
			existing.GithubID = &githubID
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if role != model.RoleCreator {
		role = model.RoleFan
	}

	username := githubUser.Login
	exists, err := s.profileRepo.ExistsByUsername(username)
	if err != nil {
		return nil, err
	}
	if exists {
		username = fmt.Sprintf("%s_%d", githubUser.Login, githubUser.ID)
	}

	handle, err := s.uniqueHandle(githubUser.Login)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		Username:    username,
		Handle:      handle,
		DisplayName: githubUser.DisplayName(),
		GithubID:    &githubID,
		AvatarURL:   githubUser.AvatarURL,
		Role:        role,
	}
	if githubUser.Email != "" {
		email := strings.ToLower(githubUser.Email)
		profile.Email = &email
	}

	if err := s.profileRepo.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// uniqueHandle 由用户名生成 URL 友好的 handle，冲突时追加序号
func (s *AuthService) uniqueHandle(base string) (string, error) {
	handle := slug.Make(base)
	if handle == "" {
		handle = "user"
	}

	candidate := handle
	for i := 2; i <= maxHandleAttempts; i++ {
		exists, err := s.profileRepo.ExistsByHandle(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", handle, i)
	}

	return fmt.Sprintf("%s-%s", handle, uuid.NewString()[:8]), nil
}

func (s *AuthService) issue(profile *model.Profile) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(profile.ID, profile.Role, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  buildProfileInfo(profile),
	}, nil
}
