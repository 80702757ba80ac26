package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/repository"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type courseGroupRepo interface {
	FindByID(ctx context.Context, id string) (*models.CourseGroup, error)
	List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroup, error)
	ReserveSeat(ctx context.Context, id string) error
	ReleaseSeat(ctx context.Context, id string) error
}

type listingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const groupListingKeyPrefix = "course_groups:available"

// CourseGroupService tracks seat capacity for course groups and serves the
// availability listing consumed by enrollment clients.
type CourseGroupService struct {
	repo     courseGroupRepo
	cache    listingCache
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewCourseGroupService constructs CourseGroupService.
func NewCourseGroupService(repo courseGroupRepo, cache listingCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *CourseGroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CourseGroupService{repo: repo, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// Get returns a course group by ID.
func (s *CourseGroupService) Get(ctx context.Context, id string) (*models.CourseGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course group")
	}
	return group, nil
}

// List returns course groups matching the filter, bypassing the cache.
func (s *CourseGroupService) List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroup, error) {
	groups, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course groups")
	}
	return groups, nil
}

// ListAvailable returns active groups with free seats, read through the cache.
func (s *CourseGroupService) ListAvailable(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroup, error) {
	filter.OnlyAvailable = true
	key := listingKey(filter)

	if s.cache != nil {
		var cached []models.CourseGroup
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("group listing cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	groups, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available course groups")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, groups, s.cacheTTL); err != nil {
			s.logger.Warn("group listing cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return groups, nil
}

// ReserveSeat consumes one seat of the group. Fails with GROUP_FULL when the
// counter already reached max_students. The conditional UPDATE matches zero
// rows both for a full group and a missing one, so existence is checked first.
func (s *CourseGroupService) ReserveSeat(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.ReserveSeat(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoSeat) {
			if s.metrics != nil {
				s.metrics.RecordSeatReservation(false)
			}
			return appErrors.ErrGroupFull
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
	}
	if s.metrics != nil {
		s.metrics.RecordSeatReservation(true)
	}
	s.InvalidateListings(ctx)
	return nil
}

// ReleaseSeat returns one seat to the group, floored at zero. An unknown
// group is rejected rather than silently absorbed by the floor.
func (s *CourseGroupService) ReleaseSeat(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.ReleaseSeat(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release seat")
	}
	s.InvalidateListings(ctx)
	return nil
}

// InvalidateListings drops all cached availability listings. Seat counters
// change out from under the cache on every reserve and release.
func (s *CourseGroupService) InvalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, groupListingKeyPrefix+"*"); err != nil {
		s.logger.Warn("group listing cache invalidation failed", zap.Error(err))
	}
}

func listingKey(filter models.CourseGroupFilter) string {
	return fmt.Sprintf("%s:%s:%s:%s", groupListingKeyPrefix, filter.CourseID, filter.LevelID, filter.AcademicPeriodID)
}
