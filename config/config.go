package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Email     EmailConfig     `mapstructure:"email"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Stripe    StripeConfig    `mapstructure:"stripe"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Cron      CronConfig      `mapstructure:"cron"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres, mysql
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	ExpireHours  int    `mapstructure:"expire_hours"`
	CookieName   string `mapstructure:"cookie_name"`
	CookieDomain string `mapstructure:"cookie_domain"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
}

type StorageConfig struct {
	Provider string    `mapstructure:"provider"` // oss, s3
	OSS      OSSConfig `mapstructure:"oss"`
	S3       S3Config  `mapstructure:"s3"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type OAuthConfig struct {
	Github GithubOAuthConfig `mapstructure:"github"`
}

type GithubOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	FrontendURL  string `mapstructure:"frontend_url"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	WebhookQueue string `mapstructure:"webhook_queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type StripeConfig struct {
	SecretKey          string `mapstructure:"secret_key"`
	WebhookSecret      string `mapstructure:"webhook_secret"`
	Currency           string `mapstructure:"currency"`
	PlatformFeePercent int64  `mapstructure:"platform_fee_percent"`
	ConnectRefreshURL  string `mapstructure:"connect_refresh_url"`
	ConnectReturnURL   string `mapstructure:"connect_return_url"`
	CheckoutSuccessURL string `mapstructure:"checkout_success_url"`
	CheckoutCancelURL  string `mapstructure:"checkout_cancel_url"`
}

type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
	Burst         int `mapstructure:"burst"`
}

type UploadConfig struct {
	MaxVideoSize      int64    `mapstructure:"max_video_size"`     // 字节
	MaxAvatarSize     int64    `mapstructure:"max_avatar_size"`    // 字节
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 视频扩展名
}

type CronConfig struct {
	SyncIntervalMinutes  int `mapstructure:"sync_interval_minutes"`
	PendingOrderTTLHours int `mapstructure:"pending_order_ttl_hours"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("jwt.cookie_name", "session")
	v.SetDefault("storage.provider", "oss")
	v.SetDefault("queue.webhook_queue", "webhook_events")
	v.SetDefault("queue.max_workers", 4)
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("stripe.platform_fee_percent", 20)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("upload.max_video_size", 200*1024*1024)
	v.SetDefault("upload.max_avatar_size", 5*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{".mp4", ".mov", ".webm"})
	v.SetDefault("cron.sync_interval_minutes", 60)
	v.SetDefault("cron.pending_order_ttl_hours", 168)
}

func Load(configPath string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	// 优先读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖，例如 STRIPE_SECRET_KEY
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验启动必需的配置
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Stripe.PlatformFeePercent < 0 || c.Stripe.PlatformFeePercent > 100 {
		return errors.New("stripe.platform_fee_percent must be between 0 and 100")
	}
	switch c.Database.Driver {
	case "", "postgres", "mysql":
	default:
		return errors.New("database.driver must be postgres or mysql")
	}
	return nil
}
