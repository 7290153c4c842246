package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string   `mapstructure:"host"`
	Port              int      `mapstructure:"port"`
	ReadTimeoutSec    int      `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec   int      `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec    int      `mapstructure:"idle_timeout_sec"`
	RequestTimeoutSec int      `mapstructure:"request_timeout_sec"`
	MaxBodyBytes      int64    `mapstructure:"max_body_bytes"`
	RateLimitRPS      float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst    int      `mapstructure:"rate_limit_burst"`
	GlobalRPS         float64  `mapstructure:"global_rps"` // 进程级限速，0 表示不启用
	GlobalBurst       int      `mapstructure:"global_burst"`
	MaxConcurrent     int64    `mapstructure:"max_concurrent"`
	CORSOrigins       []string `mapstructure:"cors_origins"`
}

type AdminHTTP struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type App struct {
	Name  string    `mapstructure:"name"`
	Env   string    `mapstructure:"env"`
	HTTP  HTTP      `mapstructure:"http"`
	Admin AdminHTTP `mapstructure:"admin"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"` // 为空时只输出到 stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type JWT struct {
	Secret            string `mapstructure:"secret"`
	Issuer            string `mapstructure:"issuer"`
	AccessTokenTTLMin int    `mapstructure:"access_token_ttl_min"`
}

func (j JWT) TTL() time.Duration { return time.Duration(j.AccessTokenTTLMin) * time.Minute }

type Redis struct {
	Addr        string `mapstructure:"addr"` // 为空时不启用缓存
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	DropSchema         bool   `mapstructure:"drop_schema"` // 启动时删表重建，仅用于测试环境
	LogLevel           string `mapstructure:"log_level"`
}

type User struct {
	DefaultPicture string `mapstructure:"default_picture"`
	RootEmail      string `mapstructure:"root_email"`
	RootPassword   string `mapstructure:"root_password"`
	SeedEmail      string `mapstructure:"seed_email"`
	SeedPassword   string `mapstructure:"seed_password"`
	MaxPageSize    int    `mapstructure:"max_page_size"` // 0 表示不限制
}

type Config struct {
	App   App   `mapstructure:"app"`
	Log   Log   `mapstructure:"log"`
	JWT   JWT   `mapstructure:"jwt"`
	DB    DB    `mapstructure:"db"`
	Redis Redis `mapstructure:"redis"`
	User  User  `mapstructure:"user"`
}

var ErrMissingJWTSecret = errors.New("config: jwt.secret is required")

var defaults = map[string]any{
	"app.name":                     "user-api",
	"app.env":                      "production",
	"app.http.host":                "0.0.0.0",
	"app.http.port":                8080,
	"app.http.read_timeout_sec":    10,
	"app.http.write_timeout_sec":   15,
	"app.http.idle_timeout_sec":    60,
	"app.http.request_timeout_sec": 10,
	"app.http.max_body_bytes":      1 << 20,
	"app.http.rate_limit_rps":      50,
	"app.http.rate_limit_burst":    100,
	"app.http.global_rps":          0,
	"app.http.global_burst":        0,
	"app.http.max_concurrent":      256,
	"app.http.cors_origins":        []string{},
	"app.admin.host":               "0.0.0.0",
	"app.admin.port":               8081,

	"log.level":        "info",
	"log.json":         false,
	"log.file":         "",
	"log.max_size_mb":  100,
	"log.max_backups":  7,
	"log.max_age_days": 14,
	"log.compress":     true,

	"jwt.secret":               "",
	"jwt.issuer":               "user-api",
	"jwt.access_token_ttl_min": 60,

	"db.driver":                "postgres",
	"db.dsn":                   "",
	"db.host":                  "localhost",
	"db.port":                  5432,
	"db.username":              "postgres",
	"db.password":              "",
	"db.name":                  "users",
	"db.sslmode":               "disable",
	"db.max_open_conns":        20,
	"db.max_idle_conns":        10,
	"db.conn_max_lifetime_min": 30,
	"db.auto_migrate":          true,
	"db.drop_schema":           false,
	"db.log_level":             "warn",

	"redis.addr":          "",
	"redis.password":      "",
	"redis.db":            0,
	"redis.cache_ttl_sec": 300,

	"user.default_picture": "",
	"user.root_email":      "",
	"user.root_password":   "",
	"user.seed_email":      "",
	"user.seed_password":   "",
	"user.max_page_size":   0,
}

// 兼容旧部署使用的环境变量名
var aliases = map[string]string{
	"app.http.port":        "PORT",
	"db.name":              "DB_NAME",
	"db.password":          "DB_PASSWORD",
	"db.username":          "DB_USER",
	"db.host":              "DB_HOST",
	"jwt.secret":           "JWT_SECRET",
	"user.default_picture": "USER_IMG",
	"user.root_email":      "USER_ROOT_EMAIL",
	"user.root_password":   "USER_ROOT_PASS",
}

// EnvFile 根据 APP_ENV 选择 dotenv 文件
func EnvFile(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev":
		return ".env.development"
	case "test":
		return ".env.test"
	default:
		return ".env"
	}
}

// LoadDotenv 加载 dotenv 文件，已存在的环境变量不会被覆盖；文件不存在不算错误
func LoadDotenv() string {
	file := EnvFile(os.Getenv("APP_ENV"))
	_ = godotenv.Load(file)
	return file
}

// Load 读取配置：默认值 < YAML 文件（可选）< 环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range aliases {
		envKey := "APP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	// APP_ENV 同时决定 dotenv 文件与 app.env
	if err := v.BindEnv("app.env", "APP_APP_ENV", "APP_ENV"); err != nil {
		return nil, fmt.Errorf("bind env app.env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return ErrMissingJWTSecret
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return fmt.Errorf("config: jwt.access_token_ttl_min must be positive, got %d", c.JWT.AccessTokenTTLMin)
	}
	return nil
}

func (c *Config) IsProduction() bool { return strings.EqualFold(c.App.Env, "production") }
