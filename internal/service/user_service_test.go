package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/internal/core/auth"
	"go-gin-gorm-user/internal/domain"
	"go-gin-gorm-user/internal/repo"
	"go-gin-gorm-user/internal/testutil"
	"go-gin-gorm-user/pkg/utils"
)

const defaultPicture = "https://cdn.test/avatar.png"

type UserServiceSuite struct {
	suite.Suite
	ctx  context.Context
	repo *repo.BaseRepo[domain.User]
	jwt  *auth.JWTer
	svc  *UserService
}

func TestUserServiceSuite(t *testing.T) { suite.Run(t, new(UserServiceSuite)) }

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = repo.MustBaseRepo[domain.User](testutil.NewDB(s.T(), &domain.User{}), "User", "email")
	s.jwt = &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	svc, err := NewUserService(s.repo, s.jwt, UserServiceOptions{
		DefaultPicture: defaultPicture,
		Logger:         zaptest.NewLogger(s.T()),
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *UserServiceSuite) TestCreate() {
	res, err := s.svc.Create(s.ctx, CreateUserInput{Email: "ana.perez@test.io", Password: "L1234567"})
	s.Require().NoError(err)
	s.Equal("User created successfully", res.Message)
	s.Equal("ana.perez", res.Results.Nickname)
	s.Equal(defaultPicture, res.Results.Picture)
	s.Equal("User", res.Results.Role)
	s.False(res.Results.IsRoot)
	s.True(res.Results.Enabled)
	s.Len(res.Results.ID, 36)

	stored, err := s.repo.GetByID(s.ctx, res.Results.ID)
	s.Require().NoError(err)
	s.NotEqual("L1234567", stored.Results.Password)
	s.True(utils.CheckPassword("L1234567", stored.Results.Password))
}

func (s *UserServiceSuite) TestCreate_DuplicateEmail() {
	_, err := s.svc.Create(s.ctx, CreateUserInput{Email: "dup@test.io", Password: "L1234567"})
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, CreateUserInput{Email: "dup@test.io", Password: "Other1234"})
	s.Require().Error(err)
	s.Equal(http.StatusBadRequest, apperr.Status(err))
	s.EqualError(err, "This email already exists")
}

// 并发创建时查重可能同时通过，由唯一索引保证只成功一次
func (s *UserServiceSuite) TestCreate_ConcurrentDuplicate() {
	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.Create(s.ctx, CreateUserInput{Email: "race@test.io", Password: "L1234567"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		s.EqualError(err, "This email already exists")
	}
	s.Equal(1, ok)
}

func (s *UserServiceSuite) TestCreate_RootRole() {
	res, err := s.svc.Create(s.ctx, CreateUserInput{Email: "root@test.io", Password: "L1234567", Role: domain.RoleSuperAdmin, IsRoot: true})
	s.Require().NoError(err)
	s.Equal("SuperAdmin", res.Results.Role)
	s.True(res.Results.IsRoot)
}

func (s *UserServiceSuite) TestLogin() {
	created, err := s.svc.Create(s.ctx, CreateUserInput{Email: "login@test.io", Password: "L1234567"})
	s.Require().NoError(err)

	res, err := s.svc.Login(s.ctx, LoginInput{Email: "login@test.io", Password: "L1234567"})
	s.Require().NoError(err)
	s.Equal("Login successfully", res.Message)
	s.NotEmpty(res.Results.Token)
	s.Equal(created.Results.ID, res.Results.User.ID)

	claims, err := s.jwt.Parse(res.Results.Token)
	s.Require().NoError(err)
	s.Equal(created.Results.ID, claims.ID)
	s.Equal("login@test.io", claims.Email)
	s.Equal(domain.RoleUser, claims.Role)
}

func (s *UserServiceSuite) TestLogin_Failures() {
	created, err := s.svc.Create(s.ctx, CreateUserInput{Email: "login@test.io", Password: "L1234567"})
	s.Require().NoError(err)

	_, err = s.svc.Login(s.ctx, LoginInput{Email: "nobody@test.io", Password: "L1234567"})
	s.Equal(http.StatusNotFound, apperr.Status(err))
	s.EqualError(err, "User not found")

	_, err = s.svc.Login(s.ctx, LoginInput{Email: "login@test.io", Password: "Wrong1234"})
	s.Equal(http.StatusBadRequest, apperr.Status(err))
	s.EqualError(err, "Invalid password")

	_, err = s.svc.SetEnabled(s.ctx, created.Results.ID, false)
	s.Require().NoError(err)
	_, err = s.svc.Login(s.ctx, LoginInput{Email: "login@test.io", Password: "L1234567"})
	s.Equal(http.StatusBadRequest, apperr.Status(err))
	s.EqualError(err, "User is blocked")
}

func (s *UserServiceSuite) TestUpdate_HashesPassword() {
	created, err := s.svc.Create(s.ctx, CreateUserInput{Email: "pw@test.io", Password: "L1234567"})
	s.Require().NoError(err)
	id := created.Results.ID

	_, err = s.svc.Update(s.ctx, id, map[string]any{"password": "Newpass123"})
	s.Require().NoError(err)
	_, err = s.svc.Login(s.ctx, LoginInput{Email: "pw@test.io", Password: "Newpass123"})
	s.NoError(err)

	// 空密码不修改
	_, err = s.svc.Update(s.ctx, id, map[string]any{"password": "", "name": "Ana"})
	s.Require().NoError(err)
	_, err = s.svc.Login(s.ctx, LoginInput{Email: "pw@test.io", Password: "Newpass123"})
	s.NoError(err)
}

func (s *UserServiceSuite) TestRootProtected() {
	root, err := s.svc.Create(s.ctx, CreateUserInput{Email: "root@test.io", Password: "L1234567", Role: domain.RoleSuperAdmin, IsRoot: true})
	s.Require().NoError(err)
	id := root.Results.ID

	_, err = s.svc.SetEnabled(s.ctx, id, false)
	s.Equal(http.StatusForbidden, apperr.Status(err))
	s.EqualError(err, "Root user cannot be banned")

	_, err = s.svc.Update(s.ctx, id, map[string]any{"enabled": false})
	s.EqualError(err, "Root user cannot be banned")

	_, err = s.svc.Update(s.ctx, id, map[string]any{"role": domain.RoleUser})
	s.Equal(http.StatusForbidden, apperr.Status(err))
	s.EqualError(err, "Root user role cannot be changed")

	// 原值回写和其他字段照常更新
	res, err := s.svc.Update(s.ctx, id, map[string]any{"role": domain.RoleSuperAdmin, "enabled": true, "name": "Root"})
	s.Require().NoError(err)
	s.Equal("Root", res.Results.Name)
	s.Equal("SuperAdmin", res.Results.Role)
	s.True(res.Results.Enabled)
}

type failingIssuer struct{}

func (failingIssuer) Issue(string, string, int) (string, error) { return "", errors.New("no key") }

func TestLogin_TokenFailureIsInternal(t *testing.T) {
	r := repo.MustBaseRepo[domain.User](testutil.NewDB(t, &domain.User{}), "User", "email")
	svc, err := NewUserService(r, failingIssuer{}, UserServiceOptions{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Create(ctx, CreateUserInput{Email: "a@test.io", Password: "L1234567"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginInput{Email: "a@test.io", Password: "L1234567"})
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
}
