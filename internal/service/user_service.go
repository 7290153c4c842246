package service

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/internal/domain"
	"go-gin-gorm-user/internal/feature/user"
	"go-gin-gorm-user/internal/repo"
	"go-gin-gorm-user/pkg/utils"
)

// TokenIssuer 由 *auth.JWTer 实现
type TokenIssuer interface {
	Issue(id, email string, role int) (string, error)
}

type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     int    `json:"-"`
	IsRoot   bool   `json:"-"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	User  user.Info `json:"user"`
	Token string    `json:"token"`
}

type UserServiceOptions struct {
	DefaultPicture string
	Images         *ImageOptions[domain.User]
	Cache          *CacheOptions
	Logger         *zap.Logger
}

type UserService struct {
	*Service[domain.User, user.Info]
	tokens         TokenIssuer
	defaultPicture string
}

func NewUserService(r Repository[domain.User], tokens TokenIssuer, opts UserServiceOptions) (*UserService, error) {
	if opts.Images != nil && opts.Images.Column == "" {
		opts.Images.Column = "picture"
	}
	base, err := NewService[domain.User, user.Info](r, Options[domain.User, user.Info]{
		Parser: user.InfoClean,
		Images: opts.Images,
		Cache:  opts.Cache,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &UserService{Service: base, tokens: tokens, defaultPicture: opts.DefaultPicture}, nil
}

// Create 查重、哈希密码并补齐默认字段
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (repo.Result[user.Info], error) {
	_, err := s.repo.GetOne(ctx, map[string]any{"email": in.Email})
	switch {
	case err == nil:
		return repo.Result[user.Info]{}, apperr.Conflict("This email already exists")
	case apperr.Status(err) != http.StatusNotFound:
		return repo.Result[user.Info]{}, err
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return repo.Result[user.Info]{}, apperr.Internal("", err)
	}
	role := in.Role
	if role == 0 {
		role = domain.RoleUser
	}
	u := &domain.User{
		Email:    in.Email,
		Password: hashed,
		Nickname: user.Nickname(in.Email),
		Picture:  s.defaultPicture,
		Role:     role,
		IsRoot:   in.IsRoot,
	}
	u.Enabled = true

	res, err := s.Service.Create(ctx, u)
	if errors.Is(err, repo.ErrDuplicate) {
		return repo.Result[user.Info]{}, apperr.Conflict("This email already exists")
	}
	return res, err
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (repo.Result[LoginResult], error) {
	found, err := s.repo.GetOne(ctx, map[string]any{"email": in.Email})
	if err != nil {
		if apperr.Status(err) == http.StatusNotFound {
			loginTotal.WithLabelValues("not_found").Inc()
			return repo.Result[LoginResult]{}, apperr.NotFound("User not found")
		}
		return repo.Result[LoginResult]{}, err
	}
	u := &found.Results
	if !utils.CheckPassword(in.Password, u.Password) {
		loginTotal.WithLabelValues("invalid_password").Inc()
		return repo.Result[LoginResult]{}, apperr.Credentials("Invalid password")
	}
	if !u.Enabled {
		loginTotal.WithLabelValues("blocked").Inc()
		return repo.Result[LoginResult]{}, apperr.Credentials("User is blocked")
	}
	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return repo.Result[LoginResult]{}, apperr.Internal("", err)
	}
	loginTotal.WithLabelValues("ok").Inc()
	return repo.Result[LoginResult]{
		Message: "Login successfully",
		Results: LoginResult{User: s.Parse(u), Token: token},
	}, nil
}

// Update 提交了新密码时先哈希；空密码视为不修改
func (s *UserService) Update(ctx context.Context, id string, data map[string]any) (repo.Result[user.Info], error) {
	if err := s.guardRoot(ctx, id, data); err != nil {
		return repo.Result[user.Info]{}, err
	}
	if pw, ok := data["password"]; ok {
		str, _ := pw.(string)
		if str == "" {
			delete(data, "password")
		} else {
			hashed, err := utils.HashPassword(str)
			if err != nil {
				return repo.Result[user.Info]{}, apperr.Internal("", err)
			}
			data["password"] = hashed
		}
	}
	res, err := s.Service.Update(ctx, id, data)
	if errors.Is(err, repo.ErrDuplicate) {
		return repo.Result[user.Info]{}, apperr.Conflict("This email already exists")
	}
	return res, err
}

// SetEnabled 管理端封禁 / 解封
func (s *UserService) SetEnabled(ctx context.Context, id string, enabled bool) (repo.Result[user.Info], error) {
	data := map[string]any{"enabled": enabled}
	if err := s.guardRoot(ctx, id, data); err != nil {
		return repo.Result[user.Info]{}, err
	}
	return s.Service.Update(ctx, id, data)
}

// guardRoot root 用户不能被禁用，也不能改角色
func (s *UserService) guardRoot(ctx context.Context, id string, data map[string]any) error {
	enabled, hasEnabled := data["enabled"].(bool)
	role, hasRole := data["role"].(int)
	banning := hasEnabled && !enabled
	if !banning && !hasRole {
		return nil
	}
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case !cur.Results.IsRoot:
		return nil
	case banning:
		return apperr.Forbidden("Root user cannot be banned")
	case hasRole && role != cur.Results.Role:
		return apperr.Forbidden("Root user role cannot be changed")
	}
	return nil
}
