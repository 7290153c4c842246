package repo

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/internal/domain"
	"go-gin-gorm-user/internal/testutil"
)

func newUserRepo(t *testing.T) *BaseRepo[domain.User] {
	t.Helper()
	db := testutil.NewDB(t, &domain.User{})
	return MustBaseRepo[domain.User](db, "User", "email")
}

func seedUsers(t *testing.T, r *BaseRepo[domain.User], n int) []domain.User {
	t.Helper()
	out := make([]domain.User, 0, n)
	for i := 0; i < n; i++ {
		u := &domain.User{Email: fmt.Sprintf("user%02d@test.io", i), Password: "x", Nickname: "n", Picture: "p"}
		res, err := r.Create(context.Background(), u)
		require.NoError(t, err)
		out = append(out, res.Results)
	}
	return out
}

func TestGetAll(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	res, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "No User yet", res.Message)
	assert.Empty(t, res.Results)

	seedUsers(t, r, 3)
	res, err = r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "User retrieved", res.Message)
	assert.Len(t, res.Results, 3)
}

func TestFindWithPagination(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()
	seedUsers(t, r, 23)

	cases := []struct {
		page, limit int
		wantPages   int
		wantCount   int
		wantPage    int
		wantLimit   int
	}{
		{1, 10, 3, 10, 1, 10},
		{3, 10, 3, 3, 3, 10},
		{4, 10, 3, 0, 4, 10},
		{0, 0, 3, 10, 1, 10},
		{2, 23, 1, 0, 2, 23},
		{1, 100, 1, 23, 1, 100},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("page=%d,limit=%d", tc.page, tc.limit), func(t *testing.T) {
			res, err := r.FindWithPagination(ctx, Query{Page: tc.page, Limit: tc.limit})
			require.NoError(t, err)
			assert.Equal(t, "User list retrieved", res.Message)
			assert.EqualValues(t, 23, res.Info.Total)
			assert.Equal(t, tc.wantPages, res.Info.TotalPages)
			assert.Equal(t, tc.wantPage, res.Info.Page)
			assert.Equal(t, tc.wantLimit, res.Info.Limit)
			assert.Equal(t, tc.wantCount, res.Info.Count)
			assert.Len(t, res.Results, res.Info.Count)
		})
	}
}

func TestFindWithPagination_PageOutOfRange(t *testing.T) {
	r := newUserRepo(t)
	_, err := r.FindWithPagination(context.Background(), Query{Page: 1 << 40, Limit: 100})
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.EqualError(t, err, "Page out of range")
}

func TestFindWithPagination_SortAndFilter(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()
	users := seedUsers(t, r, 5)
	_, err := r.Update(ctx, users[1].ID, map[string]any{"role": domain.RoleAdmin})
	require.NoError(t, err)
	_, err = r.Update(ctx, users[3].ID, map[string]any{"role": domain.RoleAdmin})
	require.NoError(t, err)

	res, err := r.FindWithPagination(ctx, Query{Sort: []SortField{{Field: "email", Desc: true}}})
	require.NoError(t, err)
	emails := make([]string, 0, len(res.Results))
	for _, u := range res.Results {
		emails = append(emails, u.Email)
	}
	assert.True(t, sort.SliceIsSorted(emails, func(i, j int) bool { return emails[i] > emails[j] }), emails)

	res, err = r.FindWithPagination(ctx, Query{Filters: map[string]any{"role": domain.RoleAdmin}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Info.Total)
	assert.Equal(t, 1, res.Info.TotalPages)

	_, err = r.FindWithPagination(ctx, Query{Sort: []SortField{{Field: "nope"}}})
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.EqualError(t, err, "Unknown field nope")
}

func TestGetByIDAndGetOne(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()
	u := seedUsers(t, r, 1)[0]

	res, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, res.Results.Email)
	assert.True(t, res.Results.Enabled)

	_, err = r.GetByID(ctx, "8b0a6f8e-4a44-4b8c-9d3c-000000000000")
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
	assert.EqualError(t, err, "User not found")

	one, err := r.GetOne(ctx, map[string]any{"email": u.Email})
	require.NoError(t, err)
	assert.Equal(t, u.ID, one.Results.ID)

	_, err = r.GetOne(ctx, map[string]any{"email": "missing@test.io"})
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
	assert.EqualError(t, err, "This User not found")
}

func TestCreate(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()

	res, err := r.Create(ctx, &domain.User{Email: "a@test.io", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "User created successfully", res.Message)
	assert.Len(t, res.Results.ID, 36)

	_, err = r.Create(ctx, &domain.User{Email: "a@test.io", Password: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
	assert.EqualError(t, err, "This User already exists")

	_, err = r.Create(ctx, &domain.User{Password: "x"})
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
}

func TestCreate_NoUniqueField(t *testing.T) {
	db := testutil.NewDB(t, &domain.User{})
	r := MustBaseRepo[domain.User](db, "User", "")
	_, err := r.Create(context.Background(), &domain.User{Email: "a@test.io"})
	assert.EqualError(t, err, "no field specified for search")
	assert.Equal(t, http.StatusInternalServerError, apperr.Status(err))
}

// 软删除后唯一索引仍然占用该邮箱，写入阶段的冲突同样报 400
func TestCreate_UniqueIndexAfterSoftDelete(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()
	u := seedUsers(t, r, 1)[0]
	_, err := r.Delete(ctx, u.ID)
	require.NoError(t, err)

	_, err = r.Create(ctx, &domain.User{Email: u.Email, Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdate(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()
	u := seedUsers(t, r, 2)
	before, err := r.GetByID(ctx, u[0].ID)
	require.NoError(t, err)

	res, err := r.Update(ctx, u[0].ID, map[string]any{
		"name":       "Ana",
		"Country":    "AR",
		"enabled":    false,
		"id":         "other-id",
		"created_at": "2000-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "User updated successfully", res.Message)
	assert.Equal(t, u[0].ID, res.Results.ID)
	assert.Equal(t, "Ana", res.Results.Name)
	assert.Equal(t, "AR", res.Results.Country)
	assert.False(t, res.Results.Enabled)
	assert.True(t, before.Results.CreatedAt.Equal(res.Results.CreatedAt))

	_, err = r.Update(ctx, u[0].ID, map[string]any{"email": u[1].Email})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = r.Update(ctx, "8b0a6f8e-4a44-4b8c-9d3c-000000000000", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	_, err = r.Update(ctx, u[0].ID, map[string]any{"bogus": 1})
	assert.EqualError(t, err, "Unknown field bogus")
}

func TestDelete(t *testing.T) {
	r := newUserRepo(t)
	ctx := context.Background()
	u := seedUsers(t, r, 2)

	msg, err := r.Delete(ctx, u[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "User deleted successfully", msg)

	_, err = r.Delete(ctx, u[0].ID)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	_, err = r.GetByID(ctx, u[0].ID)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all.Results, 1)

	var n int64
	require.NoError(t, r.DB(ctx).Unscoped().Model(&domain.User{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}
