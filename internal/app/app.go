// Package app 两个进程（api / admin）共用的装配逻辑
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-gorm-user/internal/core/auth"
	"go-gin-gorm-user/internal/core/cache"
	"go-gin-gorm-user/internal/core/config"
	"go-gin-gorm-user/internal/core/database"
	"go-gin-gorm-user/internal/core/logger"
	"go-gin-gorm-user/internal/core/server"
	"go-gin-gorm-user/internal/domain"
	"go-gin-gorm-user/internal/repo"
	"go-gin-gorm-user/internal/service"
	"go-gin-gorm-user/internal/transport/http/handler"
	"go-gin-gorm-user/internal/transport/http/router"
)

type App struct {
	Cfg      *config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	JWT      *auth.JWTer
	Cache    *cache.Cache
	Users    *service.UserService
	Registry *router.Registry

	closers []func()
}

// Bootstrap 读取 dotenv + 配置并创建 logger；返回的 cleanup 负责 flush 日志
func Bootstrap() (*config.Config, *zap.Logger, func(), error) {
	envFile := config.LoadDotenv()
	cfg, err := config.Load("")
	if err != nil {
		return nil, nil, nil, err
	}
	log, flush := logger.New(logger.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	})
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)
	log.Info("config loaded", zap.String("env", cfg.App.Env), zap.String("env_file", envFile))
	return cfg, log, func() { undo(); flush() }, nil
}

// New 打开数据库、迁移表结构并装配用户模块
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Host:               cfg.DB.Host,
		Port:               cfg.DB.Port,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		Name:               cfg.DB.Name,
		SSLMode:            cfg.DB.SSLMode,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a := &App{Cfg: cfg, Log: log, DB: db}
	a.closers = append(a.closers, func() { _ = database.Close(db) })
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate || cfg.DB.DropSchema {
		if err := database.Migrate(db, cfg.DB.DropSchema, &domain.User{}); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("automigrate done", zap.Bool("drop_schema", cfg.DB.DropSchema))
	}

	a.JWT = &auth.JWTer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, TTL: cfg.JWT.TTL()}

	var cacheOpts *service.CacheOptions
	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()
		if err != nil {
			// 缓存不是必需的，连不上就直接读库
			log.Warn("redis unavailable, cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = c.Close()
		} else {
			a.Cache = c
			a.closers = append(a.closers, func() { _ = c.Close() })
			cacheOpts = &service.CacheOptions{
				Cache:  c,
				Prefix: "user:",
				TTL:    time.Duration(cfg.Redis.CacheTTLSec) * time.Second,
			}
		}
	}

	users, err := repo.NewBaseRepo[domain.User](db, "User", "email")
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Users, err = service.NewUserService(users, a.JWT, service.UserServiceOptions{
		DefaultPicture: cfg.User.DefaultPicture,
		Cache:          cacheOpts,
		Logger:         log.Named("user"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Registry = router.NewRegistry(handler.NewUserHandler(a.Users, a.JWT, cfg.User.MaxPageSize))
	return a, nil
}

// Seed 种子数据失败只记录日志，不阻止启动
func (a *App) Seed(ctx context.Context) {
	err := service.SeedUsers(ctx, a.Users, service.SeedConfig{
		RootEmail:    a.Cfg.User.RootEmail,
		RootPassword: a.Cfg.User.RootPassword,
		UserEmail:    a.Cfg.User.SeedEmail,
		UserPassword: a.Cfg.User.SeedPassword,
	}, a.Log)
	if err != nil {
		a.Log.Error("seed users failed", zap.Error(err))
	}
}

func (a *App) Deps() router.Deps {
	mode := gin.ReleaseMode
	if !a.Cfg.IsProduction() {
		mode = gin.DebugMode
	}
	return router.Deps{
		Logger:   a.Log,
		JWT:      a.JWT,
		Registry: a.Registry,
		HTTP:     a.Cfg.App.HTTP,
		Mode:     mode,
		Ping: func() error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	}
}

// Serve 启动 HTTP 服务并阻塞到收到 SIGINT/SIGTERM，然后优雅关闭
func (a *App) Serve(name string, h http.Handler, host string, port int) error {
	httpCfg := a.Cfg.App.HTTP
	addr := server.Addr(host, port)
	srv := server.BuildServer(addr, h,
		time.Duration(httpCfg.ReadTimeoutSec)*time.Second,
		time.Duration(httpCfg.WriteTimeoutSec)*time.Second,
		time.Duration(httpCfg.IdleTimeoutSec)*time.Second,
	)

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info(name+" starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s listen: %w", name, err)
		}
		return nil
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown: %w", name, err)
	}
	a.Log.Info(name + " stopped gracefully")
	return nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
