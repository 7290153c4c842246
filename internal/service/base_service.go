package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/internal/core/cache"
	"go-gin-gorm-user/internal/repo"
)

// Repository BaseService 依赖的数据访问接口，*repo.BaseRepo[T] 即为实现
type Repository[T any] interface {
	Name() string
	GetAll(ctx context.Context) (repo.Result[[]T], error)
	FindWithPagination(ctx context.Context, q repo.Query) (repo.Page[T], error)
	GetByID(ctx context.Context, id string) (repo.Result[T], error)
	GetOne(ctx context.Context, filter map[string]any) (repo.Result[T], error)
	Create(ctx context.Context, data *T) (repo.Result[T], error)
	Update(ctx context.Context, id string, data map[string]any) (repo.Result[T], error)
	Delete(ctx context.Context, id string) (string, error)
}

// Parser 输出整形（脱敏、字段映射等）
type Parser[T, O any] func(*T) O

// ImageDeleter 清理外部存储的旧图片
type ImageDeleter func(ctx context.Context, url string) error

type ImageOptions[T any] struct {
	Column string // 更新数据中的图片列名，如 "picture"
	Get    func(*T) string
	Delete ImageDeleter
	// 删除记录前清理图片失败时是否中止删除；false 时只记日志
	BlockDeleteOnError bool
}

type CacheOptions struct {
	Cache  *cache.Cache
	Prefix string
	TTL    time.Duration
}

type Options[T, O any] struct {
	Parser Parser[T, O]
	Images *ImageOptions[T]
	Cache  *CacheOptions
	Logger *zap.Logger
}

// Service 在 Repository 之上提供输出整形与图片清理钩子
type Service[T, O any] struct {
	repo   Repository[T]
	parse  Parser[T, O]
	images *ImageOptions[T]
	cache  *cache.Typed[repo.Result[O]]
	log    *zap.Logger
}

// NewService Parser 为空时 O 必须与 T 相同（原样输出）
func NewService[T, O any](r Repository[T], opts Options[T, O]) (*Service[T, O], error) {
	parse := opts.Parser
	if parse == nil {
		var zero T
		if _, ok := any(zero).(O); !ok {
			return nil, fmt.Errorf("service %s: parser required when output type differs", r.Name())
		}
		parse = func(t *T) O { return any(*t).(O) }
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	images := opts.Images
	if images != nil && (images.Delete == nil || images.Get == nil) {
		images = nil
	}
	svc := &Service[T, O]{repo: r, parse: parse, images: images, log: log}
	if c := opts.Cache; c != nil && c.Cache != nil {
		svc.cache = cache.NewTyped[repo.Result[O]](c.Cache, c.Prefix, c.TTL)
	}
	return svc, nil
}

func (s *Service[T, O]) Parse(t *T) O { return s.parse(t) }

func (s *Service[T, O]) GetAll(ctx context.Context) (repo.Result[[]O], error) {
	res, err := s.repo.GetAll(ctx)
	if err != nil {
		return repo.Result[[]O]{}, err
	}
	return repo.Result[[]O]{Message: res.Message, Results: s.parseAll(res.Results)}, nil
}

func (s *Service[T, O]) FindWithPagination(ctx context.Context, q repo.Query) (repo.Page[O], error) {
	res, err := s.repo.FindWithPagination(ctx, q)
	if err != nil {
		return repo.Page[O]{}, err
	}
	return repo.Page[O]{Message: res.Message, Results: s.parseAll(res.Results), Info: res.Info}, nil
}

func (s *Service[T, O]) GetByID(ctx context.Context, id string) (repo.Result[O], error) {
	load := func(ctx context.Context) (repo.Result[O], error) {
		res, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return repo.Result[O]{}, err
		}
		return repo.Result[O]{Message: res.Message, Results: s.parse(&res.Results)}, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Load(ctx, id, load)
}

func (s *Service[T, O]) GetOne(ctx context.Context, filter map[string]any) (repo.Result[O], error) {
	res, err := s.repo.GetOne(ctx, filter)
	if err != nil {
		return repo.Result[O]{}, err
	}
	return repo.Result[O]{Message: res.Message, Results: s.parse(&res.Results)}, nil
}

func (s *Service[T, O]) Create(ctx context.Context, data *T) (repo.Result[O], error) {
	res, err := s.repo.Create(ctx, data)
	if err != nil {
		return repo.Result[O]{}, err
	}
	return repo.Result[O]{Message: res.Message, Results: s.parse(&res.Results)}, nil
}

// Update 图片列变化时，在写库成功后清理旧图片。
// 清理失败返回 500，但数据库中的更新已经生效。
func (s *Service[T, O]) Update(ctx context.Context, id string, data map[string]any) (repo.Result[O], error) {
	var oldImage string
	if s.images != nil {
		prev, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return repo.Result[O]{}, err
		}
		cur := s.images.Get(&prev.Results)
		next, _ := data[s.images.Column].(string)
		if cur != "" && next != "" && cur != next {
			oldImage = cur
		}
	}

	res, err := s.repo.Update(ctx, id, data)
	if err != nil {
		return repo.Result[O]{}, err
	}
	s.invalidate(ctx, id)

	if oldImage != "" {
		if err := s.images.Delete(ctx, oldImage); err != nil {
			imageHookFailures.WithLabelValues("update").Inc()
			s.log.Error("image cleanup after update failed",
				zap.String("model", s.repo.Name()), zap.String("id", id), zap.String("image", oldImage), zap.Error(err))
			return repo.Result[O]{}, hookError(oldImage, err)
		}
	}
	return repo.Result[O]{Message: res.Message, Results: s.parse(&res.Results)}, nil
}

// Delete 删除前清理图片；是否因清理失败而中止由 BlockDeleteOnError 决定
func (s *Service[T, O]) Delete(ctx context.Context, id string) (string, error) {
	if s.images != nil {
		prev, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		if img := s.images.Get(&prev.Results); img != "" {
			if err := s.images.Delete(ctx, img); err != nil {
				imageHookFailures.WithLabelValues("delete").Inc()
				if s.images.BlockDeleteOnError {
					return "", hookError(img, err)
				}
				s.log.Warn("image cleanup before delete failed, deleting anyway",
					zap.String("model", s.repo.Name()), zap.String("id", id), zap.String("image", img), zap.Error(err))
			}
		}
	}
	msg, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, id)
	return msg, nil
}

func (s *Service[T, O]) parseAll(in []T) []O {
	out := make([]O, 0, len(in))
	for i := range in {
		out = append(out, s.parse(&in[i]))
	}
	return out
}

func (s *Service[T, O]) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Forget(ctx, id); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("key", s.cache.Key(id)), zap.Error(err))
	}
}

func hookError(url string, err error) error {
	if ae := apperr.As(err); ae != nil {
		return ae
	}
	return apperr.Internal(fmt.Sprintf("Error processing ImageUrl: %s", url), err)
}
