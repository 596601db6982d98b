package categoryservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/attr"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidName     = errors.New("category name must be lowercase letters, digits or dashes")
	ErrInvalidColor    = errors.New("category color must be a #rrggbb hex value")
	ErrCategoryMissing = errors.New("category not found")
)

var (
	namePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,31}$`)
	colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// CategoryService manages the category list.
type CategoryService struct {
	repo   categorydb.Repository
	logger *slog.Logger
	tracer trace.Tracer
	db     *bun.DB
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo categorydb.Repository, logger *slog.Logger, tracer trace.Tracer, db *bun.DB) *CategoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryService{repo: repo, logger: logger, tracer: tracer, db: db}
}

func (s *CategoryService) start(ctx context.Context, op, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, "CategoryService."+op, trace.WithAttributes(attribute.String("category", name)))
}

// List returns every category.
func (s *CategoryService) List(ctx context.Context) ([]*categorydb.Category, error) {
	ctx, span := s.start(ctx, "List", "")
	defer span.End()

	return s.repo.List(ctx, s.db)
}

// Upsert validates and stores a category under name.
func (s *CategoryService) Upsert(ctx context.Context, category *categorydb.Category) error {
	ctx, span := s.start(ctx, "Upsert", category.Name)
	defer span.End()

	category.Name = strings.TrimSpace(category.Name)
	if !namePattern.MatchString(category.Name) {
		return ErrInvalidName
	}
	if category.Color == "" {
		category.Color = "#888888"
	}
	if !colorPattern.MatchString(category.Color) {
		return ErrInvalidColor
	}
	if strings.TrimSpace(category.Label) == "" {
		category.Label = category.Name
	}

	if err := s.repo.Upsert(ctx, s.db, category); err != nil {
		span.RecordError(err)
		return fmt.Errorf("upsert category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category saved", attr.ExtractCorrelationID(ctx), attr.String("category", category.Name))
	return nil
}

// Delete removes a category. Events keep their category string.
func (s *CategoryService) Delete(ctx context.Context, name string) error {
	ctx, span := s.start(ctx, "Delete", name)
	defer span.End()

	if err := s.repo.Delete(ctx, s.db, name); err != nil {
		if errors.Is(err, categorydb.ErrNotFound) {
			return ErrCategoryMissing
		}
		span.RecordError(err)
		return fmt.Errorf("delete category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category deleted", attr.ExtractCorrelationID(ctx), attr.String("category", name))
	return nil
}

// NewCache returns an empty cache backed by this service's repository.
func (s *CategoryService) NewCache() *Cache {
	return NewCache(s.repo, s.db)
}

// Exists reports whether name is a known category, reading through the
// request's cache when one is attached to ctx.
func (s *CategoryService) Exists(ctx context.Context, name string) (bool, error) {
	cache, ok := CacheFromContext(ctx)
	if !ok {
		cache = s.NewCache()
	}
	_, found, err := cache.Lookup(ctx, name)
	return found, err
}
