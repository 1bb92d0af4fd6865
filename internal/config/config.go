package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Media    MediaConfig    `yaml:"media"`
	S3       S3Config       `yaml:"s3"`
	Web      WebConfig      `yaml:"web"`
}

// HTTPConfig ReadTimeout/WriteTimeout 要覆盖慢速客户端上传整段视频的时间，
// 慢速请求头由 ReadHeaderTimeout 单独限制
type HTTPConfig struct {
	Port              string        `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig Driver 为 postgres 或 sqlite
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig Addr 为空时已看列表退回到进程内存
type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	WatchedTTL time.Duration `yaml:"watched_ttl"`
}

type SessionConfig struct {
	Name   string        `yaml:"name"`
	Secret string        `yaml:"secret"`
	MaxAge time.Duration `yaml:"max_age"`
	Secure bool          `yaml:"secure"`
}

type MediaConfig struct {
	Backend          string        `yaml:"backend"` // local, s3
	Root             string        `yaml:"root"`
	URLPrefix        string        `yaml:"url_prefix"`
	MaxUploadMB      int64         `yaml:"max_upload_mb"`
	MaxVideoSeconds  float64       `yaml:"max_video_seconds"`
	FFprobePath      string        `yaml:"ffprobe_path"`
	InspectTimeout   time.Duration `yaml:"inspect_timeout"`
	WatchedCacheSize int           `yaml:"watched_cache_size"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

type WebConfig struct {
	TemplatesDir string `yaml:"templates_dir"`
	StaticDir    string `yaml:"static_dir"`
	SiteURL      string `yaml:"site_url"`
}

// MaxUploadBytes 上传大小上限（字节）
func (m MediaConfig) MaxUploadBytes() int64 {
	return m.MaxUploadMB * 1024 * 1024
}

func Default() Config {
	return Config{
		Env: "development",
		HTTP: HTTPConfig{
			Port:              "8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Minute,
			WriteTimeout:      15 * time.Minute,
			IdleTimeout:       120 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver: "postgres",
			DSN:    "host=localhost user=postgres password=postgres dbname=redvibe port=5432 sslmode=disable TimeZone=UTC",
		},
		Redis: RedisConfig{
			WatchedTTL: 14 * 24 * time.Hour,
		},
		Session: SessionConfig{
			Name:   "redvibe_session",
			Secret: "secret_key_change_me",
			MaxAge: 14 * 24 * time.Hour,
		},
		Media: MediaConfig{
			Backend:          "local",
			Root:             "./media",
			URLPrefix:        "/media",
			MaxUploadMB:      100,
			MaxVideoSeconds:  120,
			FFprobePath:      "ffprobe",
			InspectTimeout:   30 * time.Second,
			WatchedCacheSize: 10000,
		},
		S3: S3Config{
			Endpoint: "localhost:9000",
			Bucket:   "redvibe-media",
		},
		Web: WebConfig{
			TemplatesDir: "./web/templates",
			StaticDir:    "./web/static",
			SiteURL:      "http://localhost:8080",
		},
	}
}

// Load 读取默认值 -> YAML 文件（可选）-> 环境变量
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Media.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported media backend %q", c.Media.Backend)
	}
	if c.Media.MaxUploadMB <= 0 {
		return fmt.Errorf("media.max_upload_mb must be positive, got %d", c.Media.MaxUploadMB)
	}
	if c.Media.MaxVideoSeconds <= 0 {
		return fmt.Errorf("media.max_video_seconds must be positive, got %v", c.Media.MaxVideoSeconds)
	}
	if c.Media.Backend == "s3" && strings.TrimSpace(c.S3.Bucket) == "" {
		return errors.New("s3.bucket is required for s3 media backend")
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return errors.New("session.secret is empty")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Port = v
	}
	if err := overrideDuration("HTTP_READ_HEADER_TIMEOUT", &cfg.HTTP.ReadHeaderTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if err := overrideDuration("REDIS_WATCHED_TTL", &cfg.Redis.WatchedTTL); err != nil {
		return err
	}

	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Session.Secret = v
	}
	if err := overrideDuration("SESSION_MAX_AGE", &cfg.Session.MaxAge); err != nil {
		return err
	}
	if err := overrideBool("SESSION_SECURE", &cfg.Session.Secure); err != nil {
		return err
	}

	if v := os.Getenv("MEDIA_BACKEND"); v != "" {
		cfg.Media.Backend = v
	}
	if v := os.Getenv("MEDIA_ROOT"); v != "" {
		cfg.Media.Root = v
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse MAX_UPLOAD_MB int: %w", err)
		}
		cfg.Media.MaxUploadMB = n
	}
	if v := os.Getenv("MAX_VIDEO_SECONDS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse MAX_VIDEO_SECONDS float: %w", err)
		}
		cfg.Media.MaxVideoSeconds = f
	}
	if v := os.Getenv("FFPROBE_PATH"); v != "" {
		cfg.Media.FFprobePath = v
	}
	if err := overrideDuration("FFPROBE_TIMEOUT", &cfg.Media.InspectTimeout); err != nil {
		return err
	}

	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if v := os.Getenv("S3_PUBLIC_URL"); v != "" {
		cfg.S3.PublicURL = v
	}
	if err := overrideBool("S3_USE_SSL", &cfg.S3.UseSSL); err != nil {
		return err
	}

	if v := os.Getenv("SITE_URL"); v != "" {
		cfg.Web.SiteURL = v
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
