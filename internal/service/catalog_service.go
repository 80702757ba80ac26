package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type catalogBrowser interface {
	catalogReader
	ListLevelsByCourse(ctx context.Context, courseID string) ([]models.Level, error)
	ListSubjectsByLevel(ctx context.Context, levelID string) ([]models.Subject, error)
}

// CatalogService serves read-only views of the academic catalog.
type CatalogService struct {
	catalog catalogBrowser
	logger  *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(catalog catalogBrowser, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, logger: logger}
}

// GetCourse returns a course by ID.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.catalog.FindCourseByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// ListLevels returns the levels of a course in curriculum order.
func (s *CatalogService) ListLevels(ctx context.Context, courseID string) ([]models.Level, error) {
	if _, err := s.catalog.FindCourseByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	levels, err := s.catalog.ListLevelsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}
	return levels, nil
}

// ListSubjects returns the active subjects of a level.
func (s *CatalogService) ListSubjects(ctx context.Context, levelID string) ([]models.Subject, error) {
	if _, err := s.catalog.FindLevelByID(ctx, levelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	subjects, err := s.catalog.ListSubjectsByLevel(ctx, levelID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}
