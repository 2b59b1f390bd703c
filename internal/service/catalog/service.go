// internal/service/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hellofixo-service/internal/domain/catalog"
	xerrors "hellofixo-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultLang = "en"
	cacheTTL    = 10 * time.Minute
	cachePrefix = "catalog:categories:"
)

// supportedLangs are the languages the app ships translations for. Anything
// else is served, and cached, as DefaultLang.
var supportedLangs = map[string]bool{
	"en": true, "hi": true, "mr": true, "ta": true,
	"te": true, "kn": true, "bn": true, "gu": true,
}

// CategoryRepository reads active categories with their problems.
type CategoryRepository interface {
	ListActive(ctx context.Context) ([]*catalog.ServiceCategory, error)
}

type CatalogService struct {
	repo   CategoryRepository
	cache  redis.Cmdable
	logger *zap.Logger
}

func NewCatalogService(repo CategoryRepository, cache redis.Cmdable, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// ListCategories returns active categories with names in lang where translated.
func (s *CatalogService) ListCategories(ctx context.Context, lang string) ([]catalog.ServiceCategory, error) {
	lang = normalizeLang(lang)

	if cached, ok := s.readCache(ctx, lang); ok {
		return cached, nil
	}

	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", zap.Error(err))
		return nil, err
	}

	out := make([]catalog.ServiceCategory, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.Localize(lang))
	}
	s.writeCache(ctx, lang, out)
	return out, nil
}

// GetCategory returns one category by slug.
func (s *CatalogService) GetCategory(ctx context.Context, slug, lang string) (*catalog.ServiceCategory, error) {
	categories, err := s.ListCategories(ctx, lang)
	if err != nil {
		return nil, err
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	for i := range categories {
		if categories[i].Slug == slug {
			return &categories[i], nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", slug, xerrors.ErrNotFound)
}

// InvalidateCache drops every cached language variant.
func (s *CatalogService) InvalidateCache(ctx context.Context) error {
	iter := s.cache.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan catalog cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cache.Del(ctx, keys...).Err()
}

func (s *CatalogService) readCache(ctx context.Context, lang string) ([]catalog.ServiceCategory, bool) {
	raw, err := s.cache.Get(ctx, cachePrefix+lang).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var out []catalog.ServiceCategory
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn("catalog cache entry corrupt", zap.String("lang", lang), zap.Error(err))
		return nil, false
	}
	return out, true
}

func (s *CatalogService) writeCache(ctx context.Context, lang string, categories []catalog.ServiceCategory) {
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cachePrefix+lang, raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}

// normalizeLang reduces "hi-IN,hi;q=0.9" style values to "hi" and maps
// unsupported languages to DefaultLang.
func normalizeLang(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if i := strings.IndexAny(lang, ",;"); i >= 0 {
		lang = lang[:i]
	}
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if !supportedLangs[lang] {
		return DefaultLang
	}
	return lang
}
