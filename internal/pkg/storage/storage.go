package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qs3c/creatorhub_server/config"
)

var ErrUnknownProvider = errors.New("unknown storage provider")

// ObjectStore 对象存储，返回可公开访问的 URL
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New 按配置选择存储实现
func New(ctx context.Context, cfg *config.StorageConfig) (ObjectStore, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "oss":
		return NewOSSStore(&cfg.OSS)
	case "s3":
		return NewS3Store(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// VideoKey 订单交付视频的存储路径
func VideoKey(orderID int64, ext string) string {
	return fmt.Sprintf("videos/%d/%s%s", orderID, uuid.NewString(), strings.ToLower(ext))
}

// AvatarKey 头像存储路径
func AvatarKey(profileID int64, ext string) string {
	return fmt.Sprintf("avatars/%d/%d%s", profileID, time.Now().Unix(), strings.ToLower(ext))
}

// ContentType 根据扩展名获取 Content-Type
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
