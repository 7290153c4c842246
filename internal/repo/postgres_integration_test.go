//go:build integration

package repo_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/internal/core/database"
	"go-gin-gorm-user/internal/domain"
	"go-gin-gorm-user/internal/repo"
)

// PostgresSuite 在真实 postgres 上验证唯一索引与软删除
type PostgresSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *gorm.DB
	users     *repo.BaseRepo[domain.User]
}

func TestPostgresSuite(t *testing.T) { suite.Run(t, new(PostgresSuite)) }

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.container, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("users_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	s.Require().NoError(err, "start postgres container")

	dsn, err := s.container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.db, err = database.NewGorm(database.Opts{Driver: "postgres", DSN: dsn, MaxOpenConns: 10, MaxIdleConns: 5, LogLevel: "silent"})
	s.Require().NoError(err)
	s.users = repo.MustBaseRepo[domain.User](s.db, "User", "email")
}

func (s *PostgresSuite) TearDownSuite() {
	if s.db != nil {
		_ = database.Close(s.db)
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(database.Migrate(s.db, true, &domain.User{}))
}

func newUser(email string) *domain.User {
	return &domain.User{Email: email, Password: "x", Nickname: "n", Picture: "p", Role: domain.RoleUser}
}

func (s *PostgresSuite) TestConcurrentCreateKeepsEmailUnique() {
	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		ok, conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.users.Create(s.ctx, newUser("race@test.io"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repo.ErrDuplicate):
				conflicts++
			default:
				s.Fail("unexpected error", err.Error())
			}
		}()
	}
	wg.Wait()
	s.Equal(1, ok)
	s.Equal(7, conflicts)
}

func (s *PostgresSuite) TestPaginationAndFilters() {
	for _, e := range []string{"a@test.io", "b@test.io", "c@test.io"} {
		_, err := s.users.Create(s.ctx, newUser(e))
		s.Require().NoError(err)
	}
	page, err := s.users.FindWithPagination(s.ctx, repo.Query{
		Page:  2,
		Limit: 2,
		Sort:  []repo.SortField{{Field: "email", Desc: true}},
	})
	s.Require().NoError(err)
	s.Equal(repo.PageInfo{Total: 3, TotalPages: 2, Page: 2, Limit: 2, Count: 1}, page.Info)
	s.Equal("a@test.io", page.Results[0].Email)

	_, err = s.users.FindWithPagination(s.ctx, repo.Query{Filters: map[string]any{"password_hash": "x"}})
	s.Equal(http.StatusBadRequest, apperr.Status(err))
}

func (s *PostgresSuite) TestSoftDeleteKeepsRow() {
	created, err := s.users.Create(s.ctx, newUser("gone@test.io"))
	s.Require().NoError(err)
	_, err = s.users.Delete(s.ctx, created.Results.ID)
	s.Require().NoError(err)

	_, err = s.users.GetByID(s.ctx, created.Results.ID)
	s.Equal(http.StatusNotFound, apperr.Status(err))

	var n int64
	s.Require().NoError(s.db.Unscoped().Model(&domain.User{}).Where("email = ?", "gone@test.io").Count(&n).Error)
	s.EqualValues(1, n)
}
