package repo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"go-gin-gorm-user/internal/core/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ErrDuplicate 唯一字段已存在（查重命中或唯一索引冲突）
var ErrDuplicate = errors.New("duplicate record")

// Result 单条 / 全量查询结果
type Result[T any] struct {
	Message string `json:"message"`
	Results T      `json:"results"`
}

type PageInfo struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Count      int   `json:"count"`
}

type Page[T any] struct {
	Message string   `json:"message"`
	Results []T      `json:"results"`
	Info    PageInfo `json:"info"`
}

type SortField struct {
	Field string
	Desc  bool
}

// Query 分页查询参数；Page/Limit <= 0 时取默认值，Limit 不设上限
type Query struct {
	Page    int
	Limit   int
	Filters map[string]any
	Sort    []SortField
}

// BaseRepo 针对单一模型的通用数据访问层。
// Name 用于拼接提示信息，UniqueField 为创建前做重复检查的列。
type BaseRepo[T any] struct {
	db          *gorm.DB
	schema      *schema.Schema
	name        string
	uniqueField string
}

func NewBaseRepo[T any](db *gorm.DB, name, uniqueField string) (*BaseRepo[T], error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return &BaseRepo[T]{db: db, schema: stmt.Schema, name: name, uniqueField: uniqueField}, nil
}

func MustBaseRepo[T any](db *gorm.DB, name, uniqueField string) *BaseRepo[T] {
	r, err := NewBaseRepo[T](db, name, uniqueField)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *BaseRepo[T]) Name() string { return r.name }

// DB 供同包之外需要自定义查询的场景使用
func (r *BaseRepo[T]) DB(ctx context.Context) *gorm.DB { return r.db.WithContext(ctx) }

func (r *BaseRepo[T]) GetAll(ctx context.Context) (Result[[]T], error) {
	var docs []T
	if err := r.DB(ctx).Find(&docs).Error; err != nil {
		return Result[[]T]{}, apperr.Internal("", err)
	}
	if len(docs) == 0 {
		return Result[[]T]{Message: fmt.Sprintf("No %s yet", r.name), Results: []T{}}, nil
	}
	return Result[[]T]{Message: fmt.Sprintf("%s retrieved", r.name), Results: docs}, nil
}

func (r *BaseRepo[T]) FindWithPagination(ctx context.Context, q Query) (Page[T], error) {
	page, limit := q.Page, q.Limit
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if page-1 > math.MaxInt32/limit {
		return Page[T]{}, apperr.BadRequest("Page out of range")
	}
	offset := (page - 1) * limit

	where, err := r.columns(q.Filters)
	if err != nil {
		return Page[T]{}, err
	}
	order := make([]clause.OrderByColumn, 0, len(q.Sort))
	for _, s := range q.Sort {
		col, err := r.column(s.Field)
		if err != nil {
			return Page[T]{}, err
		}
		order = append(order, clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: s.Desc})
	}

	tx := r.DB(ctx).Model(new(T))
	if len(where) > 0 {
		tx = tx.Where(where)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Page[T]{}, apperr.Internal("", err)
	}

	docs := make([]T, 0)
	find := r.DB(ctx).Model(new(T))
	if len(where) > 0 {
		find = find.Where(where)
	}
	if len(order) > 0 {
		find = find.Order(clause.OrderBy{Columns: order})
	}
	if err := find.Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return Page[T]{}, apperr.Internal("", err)
	}

	return Page[T]{
		Message: fmt.Sprintf("%s list retrieved", r.name),
		Results: docs,
		Info: PageInfo{
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
			Page:       page,
			Limit:      limit,
			Count:      len(docs),
		},
	}, nil
}

func (r *BaseRepo[T]) GetByID(ctx context.Context, id string) (Result[T], error) {
	var doc T
	err := r.DB(ctx).Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result[T]{}, apperr.NotFound(fmt.Sprintf("%s not found", r.name))
	}
	if err != nil {
		return Result[T]{}, apperr.Internal("", err)
	}
	return Result[T]{Message: fmt.Sprintf("%s retrieved", r.name), Results: doc}, nil
}

func (r *BaseRepo[T]) GetOne(ctx context.Context, filter map[string]any) (Result[T], error) {
	where, err := r.columns(filter)
	if err != nil {
		return Result[T]{}, err
	}
	var doc T
	err = r.DB(ctx).Where(where).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Result[T]{}, apperr.NotFound(fmt.Sprintf("This %s not found", r.name))
	}
	if err != nil {
		return Result[T]{}, apperr.Internal("", err)
	}
	return Result[T]{Message: fmt.Sprintf("%s retrieved", r.name), Results: doc}, nil
}

// Create 先查重再写入。查重与写入之间没有事务，并发下由唯一索引兜底
func (r *BaseRepo[T]) Create(ctx context.Context, data *T) (Result[T], error) {
	if r.uniqueField == "" {
		return Result[T]{}, apperr.Internal("no field specified for search", nil)
	}
	field := r.schema.LookUpField(r.uniqueField)
	if field == nil {
		return Result[T]{}, apperr.Internal(fmt.Sprintf("unknown field %q for %s", r.uniqueField, r.name), nil)
	}
	val, zero := field.ValueOf(ctx, reflect.ValueOf(data))
	if zero {
		return Result[T]{}, apperr.Internal(fmt.Sprintf("missing value for field %q in data", r.uniqueField), nil)
	}

	var n int64
	if err := r.DB(ctx).Model(new(T)).Where(map[string]any{field.DBName: val}).Count(&n).Error; err != nil {
		return Result[T]{}, apperr.Internal("", err)
	}
	if n > 0 {
		return Result[T]{}, r.conflict()
	}
	if err := r.DB(ctx).Create(data).Error; err != nil {
		if apperr.IsDupKey(err) {
			return Result[T]{}, r.conflict()
		}
		return Result[T]{}, apperr.Internal("", err)
	}
	return Result[T]{Message: fmt.Sprintf("%s created successfully", r.name), Results: *data}, nil
}

// Update 局部更新后回读；记录不存在时在回读阶段报 404
func (r *BaseRepo[T]) Update(ctx context.Context, id string, data map[string]any) (Result[T], error) {
	values, err := r.columns(data)
	if err != nil {
		return Result[T]{}, err
	}
	for _, f := range r.schema.PrimaryFields {
		delete(values, f.DBName)
	}
	for _, col := range []string{"created_at", "deleted_at"} {
		delete(values, col)
	}

	if len(values) > 0 {
		err := r.DB(ctx).Model(new(T)).
			Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).
			Updates(values).Error
		if err != nil {
			if apperr.IsDupKey(err) {
				return Result[T]{}, r.conflict()
			}
			return Result[T]{}, apperr.Internal("", err)
		}
	}

	res, err := r.GetByID(ctx, id)
	if err != nil {
		return Result[T]{}, err
	}
	res.Message = fmt.Sprintf("%s updated successfully", r.name)
	return res, nil
}

// Delete 软删除（写 deleted_at），已删除的记录再次删除返回 404
func (r *BaseRepo[T]) Delete(ctx context.Context, id string) (string, error) {
	res := r.DB(ctx).Where(clause.Eq{Column: clause.PrimaryColumn, Value: id}).Delete(new(T))
	if res.Error != nil {
		return "", apperr.Internal("", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", apperr.NotFound(fmt.Sprintf("%s not found", r.name))
	}
	return fmt.Sprintf("%s deleted successfully", r.name), nil
}

func (r *BaseRepo[T]) conflict() error {
	return &apperr.Error{
		Code: http.StatusBadRequest,
		Msg:  fmt.Sprintf("This %s already exists", r.name),
		Err:  ErrDuplicate,
	}
}

// column 将字段名（Go 名或列名）解析为列名，拒绝模型外的字段
func (r *BaseRepo[T]) column(name string) (string, error) {
	f := r.schema.LookUpField(strings.TrimSpace(name))
	if f == nil || f.DBName == "" {
		return "", apperr.BadRequest(fmt.Sprintf("Unknown field %s", name))
	}
	return f.DBName, nil
}

func (r *BaseRepo[T]) columns(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for k, v := range in {
		col, err := r.column(k)
		if err != nil {
			return nil, err
		}
		out[col] = v
	}
	return out, nil
}
