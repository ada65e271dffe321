package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedReferenceGateway is a read-through redis cache in front of a
// ReferenceGateway. Reference rows change rarely, so short TTLs keep the
// hot authorization checks off the database. Cache failures fall through to
// the inner gateway.
type CachedReferenceGateway struct {
	inner  ReferenceGateway
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedReferenceGateway wraps inner with a redis cache.
func NewCachedReferenceGateway(inner ReferenceGateway, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedReferenceGateway {
	return &CachedReferenceGateway{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "reference_cache").Logger(),
	}
}

// StudentCourseID implements ReferenceGateway.
func (g *CachedReferenceGateway) StudentCourseID(ctx context.Context, studentID uint) (uint, error) {
	key := fmt.Sprintf("ref:student_course:%d", studentID)

	if cached, ok := g.getUint(ctx, key); ok {
		return cached, nil
	}

	courseID, err := g.inner.StudentCourseID(ctx, studentID)
	if err != nil {
		return 0, err
	}

	g.setUint(ctx, key, courseID)

	return courseID, nil
}

// InstructorTeachesCourse implements ReferenceGateway. Only positive
// memberships are cached; a negative answer must always be re-checked so a
// fresh assignment takes effect immediately.
func (g *CachedReferenceGateway) InstructorTeachesCourse(ctx context.Context, instructorID, courseID uint) (bool, error) {
	key := fmt.Sprintf("ref:teaches:%d:%d", instructorID, courseID)

	if cached, ok := g.getUint(ctx, key); ok && cached == 1 {
		return true, nil
	}

	teaches, err := g.inner.InstructorTeachesCourse(ctx, instructorID, courseID)
	if err != nil {
		return false, err
	}

	if teaches {
		g.setUint(ctx, key, 1)
	}

	return teaches, nil
}

// CategoryRequiredHours implements ReferenceGateway.
func (g *CachedReferenceGateway) CategoryRequiredHours(ctx context.Context, categoryID uint) (int, error) {
	key := fmt.Sprintf("ref:category_hours:%d", categoryID)

	if cached, ok := g.getUint(ctx, key); ok {
		return int(cached), nil
	}

	hours, err := g.inner.CategoryRequiredHours(ctx, categoryID)
	if err != nil {
		return 0, err
	}

	g.setUint(ctx, key, uint(hours))

	return hours, nil
}

// CategoryCourseID implements ReferenceGateway.
func (g *CachedReferenceGateway) CategoryCourseID(ctx context.Context, categoryID uint) (uint, error) {
	key := fmt.Sprintf("ref:category_course:%d", categoryID)

	if cached, ok := g.getUint(ctx, key); ok {
		return cached, nil
	}

	courseID, err := g.inner.CategoryCourseID(ctx, categoryID)
	if err != nil {
		return 0, err
	}

	g.setUint(ctx, key, courseID)

	return courseID, nil
}

func (g *CachedReferenceGateway) getUint(ctx context.Context, key string) (uint, bool) {
	if g.cache == nil {
		return 0, false
	}

	cached, err := g.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			g.logger.Warn().Err(err).Str("key", key).Msg("failed to read reference cache")
		}
		return 0, false
	}

	value, err := strconv.ParseUint(cached, 10, 64)
	if err != nil {
		return 0, false
	}

	return uint(value), true
}

func (g *CachedReferenceGateway) setUint(ctx context.Context, key string, value uint) {
	if g.cache == nil {
		return
	}

	if err := g.cache.Set(ctx, key, strconv.FormatUint(uint64(value), 10), g.ttl).Err(); err != nil {
		g.logger.Warn().Err(err).Str("key", key).Msg("failed to store reference cache")
	}
}
