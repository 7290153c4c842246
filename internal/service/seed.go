package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-gin-gorm-user/internal/domain"
)

const (
	DefaultSeedEmail    = "bartolomiau@gmail.com"
	DefaultSeedPassword = "L1234567"
)

type SeedConfig struct {
	RootEmail    string
	RootPassword string
	UserEmail    string
	UserPassword string
}

var ErrSeedRootMissing = errors.New("seed: root email/password not configured")

// SeedUsers 表为空时创建 root 管理员与一个普通账号；已有用户则跳过
func SeedUsers(ctx context.Context, s *UserService, cfg SeedConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(all.Results) > 0 {
		log.Info("users already exist, skip seeding", zap.Int("count", len(all.Results)))
		return nil
	}
	if cfg.RootEmail == "" || cfg.RootPassword == "" {
		return ErrSeedRootMissing
	}
	if cfg.UserEmail == "" {
		cfg.UserEmail = DefaultSeedEmail
	}
	if cfg.UserPassword == "" {
		cfg.UserPassword = DefaultSeedPassword
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Create(ctx, CreateUserInput{
			Email:    cfg.RootEmail,
			Password: cfg.RootPassword,
			Role:     domain.RoleSuperAdmin,
			IsRoot:   true,
		})
		return err
	})
	g.Go(func() error {
		_, err := s.Create(ctx, CreateUserInput{Email: cfg.UserEmail, Password: cfg.UserPassword})
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("users seeded", zap.String("root", cfg.RootEmail), zap.String("user", cfg.UserEmail))
	return nil
}
