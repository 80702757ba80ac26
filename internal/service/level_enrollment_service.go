package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/repository"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type levelEnrollmentRepo interface {
	List(ctx context.Context, filter models.LevelEnrollmentFilter) ([]models.LevelEnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.LevelEnrollment, error)
	Create(ctx context.Context, enrollment *models.LevelEnrollment) error
	UpdateStatus(ctx context.Context, id string, status models.ProgressStatus, completionDate *time.Time, groupID *string, seat repository.SeatAdjustment) error
	SetFinalAverage(ctx context.Context, id string, finalAverage float64) error
	Delete(ctx context.Context, id string, groupID *string) error
}

type courseEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error)
}

type groupReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseGroup, error)
}

type groupCacheInvalidator interface {
	InvalidateListings(ctx context.Context)
}

// CreateLevelEnrollmentRequest describes the level enrollment payload.
type CreateLevelEnrollmentRequest struct {
	CourseEnrollmentID string     `json:"course_enrollment_id" validate:"required"`
	LevelID            string     `json:"level_id" validate:"required"`
	AcademicPeriodID   string     `json:"academic_period_id" validate:"required"`
	GroupID            *string    `json:"group_id,omitempty"`
	EnrollmentDate     *time.Time `json:"enrollment_date,omitempty"`
}

// UpdateLevelEnrollmentStatusRequest describes a status transition.
type UpdateLevelEnrollmentStatusRequest struct {
	Status models.ProgressStatus `json:"status" validate:"required"`
}

// UpdateLevelEnrollmentRequest carries mutable enrollment fields.
type UpdateLevelEnrollmentRequest struct {
	FinalAverage *float64 `json:"final_average,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// LevelEnrollmentService orchestrates the level tier of the enrollment
// hierarchy, including seat accounting against course groups.
type LevelEnrollmentService struct {
	repo       levelEnrollmentRepo
	parents    courseEnrollmentReader
	catalog    catalogReader
	groups     groupReader
	groupCache groupCacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewLevelEnrollmentService constructs LevelEnrollmentService.
func NewLevelEnrollmentService(repo levelEnrollmentRepo, parents courseEnrollmentReader, catalog catalogReader, groups groupReader, groupCache groupCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *LevelEnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LevelEnrollmentService{repo: repo, parents: parents, catalog: catalog, groups: groups, groupCache: groupCache, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns level enrollments with pagination metadata.
func (s *LevelEnrollmentService) List(ctx context.Context, filter models.LevelEnrollmentFilter) ([]models.LevelEnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list level enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a level enrollment by ID.
func (s *LevelEnrollmentService) Get(ctx context.Context, id string) (*models.LevelEnrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level enrollment")
	}
	return enrollment, nil
}

// Create registers a level enrollment under an active course enrollment. The
// level must belong to the course of the parent enrollment, and a referenced
// group must match the same course and level; its seat is reserved in the same
// transaction as the insert.
func (s *LevelEnrollmentService) Create(ctx context.Context, req CreateLevelEnrollmentRequest) (*models.LevelEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level enrollment payload")
	}
	parent, err := s.parents.FindByID(ctx, req.CourseEnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course enrollment")
	}
	if parent.Status != models.CourseEnrollmentActive {
		return nil, appErrors.ErrCourseEnrollmentNotActive
	}
	level, err := s.catalog.FindLevelByID(ctx, req.LevelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	if level.CourseID != parent.CourseID {
		return nil, appErrors.ErrHierarchyMismatch
	}
	period, err := s.catalog.FindPeriodByID(ctx, req.AcademicPeriodID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
	}
	if !period.Active {
		return nil, appErrors.ErrInactivePeriod
	}
	if !period.IsCurrent(s.now()) {
		s.logger.Warn("enrollment into a period outside its date range",
			zap.String("academic_period_id", period.ID))
	}
	if req.GroupID != nil {
		group, err := s.groups.FindByID(ctx, *req.GroupID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course group")
		}
		if group.CourseID != parent.CourseID || group.LevelID != req.LevelID {
			return nil, appErrors.ErrGroupScopeMismatch
		}
	}

	enrollment := &models.LevelEnrollment{
		CourseEnrollmentID: req.CourseEnrollmentID,
		LevelID:            req.LevelID,
		AcademicPeriodID:   req.AcademicPeriodID,
		GroupID:            req.GroupID,
		Status:             models.ProgressInCourse,
	}
	if req.EnrollmentDate != nil {
		enrollment.EnrollmentDate = *req.EnrollmentDate
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrNoSeat) {
			return nil, appErrors.ErrGroupFull
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create level enrollment")
	}
	if req.GroupID != nil && s.groupCache != nil {
		s.groupCache.InvalidateListings(ctx)
	}
	s.logger.Info("level enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("course_enrollment_id", enrollment.CourseEnrollmentID),
		zap.String("level_id", enrollment.LevelID))
	return enrollment, nil
}

// UpdateStatus transitions a level enrollment. APROBADO and REPROBADO stamp
// the completion date when unset. The group seat follows the status: entering
// RETIRADO returns it, leaving RETIRADO takes it back, so the counter stays
// consistent across withdraw and re-activation cycles. Re-activation into a
// full group fails with GROUP_FULL.
func (s *LevelEnrollmentService) UpdateStatus(ctx context.Context, id string, req UpdateLevelEnrollmentStatusRequest) (*models.LevelEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level enrollment status")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level enrollment")
	}

	completionDate := enrollment.CompletionDate
	if (req.Status == models.ProgressApproved || req.Status == models.ProgressFailed) && completionDate == nil {
		now := s.now()
		completionDate = &now
	}
	seat := repository.SeatKeep
	if enrollment.GroupID != nil {
		withdrawn := enrollment.Status == models.ProgressWithdrawn
		withdrawing := req.Status == models.ProgressWithdrawn
		switch {
		case withdrawing && !withdrawn:
			seat = repository.SeatRelease
		case !withdrawing && withdrawn:
			seat = repository.SeatReserve
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, completionDate, enrollment.GroupID, seat); err != nil {
		if errors.Is(err, repository.ErrNoSeat) {
			return nil, appErrors.ErrGroupFull
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update level enrollment status")
	}
	if seat != repository.SeatKeep && s.groupCache != nil {
		s.groupCache.InvalidateListings(ctx)
	}
	enrollment.Status = req.Status
	enrollment.CompletionDate = completionDate
	return enrollment, nil
}

// Update mutates the final average of a level enrollment.
func (s *LevelEnrollmentService) Update(ctx context.Context, id string, req UpdateLevelEnrollmentRequest) (*models.LevelEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level enrollment")
	}
	if req.FinalAverage != nil {
		if err := s.repo.SetFinalAverage(ctx, id, *req.FinalAverage); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set final average")
		}
		enrollment.FinalAverage = req.FinalAverage
	}
	return enrollment, nil
}

// Delete removes a level enrollment and returns its seat.
func (s *LevelEnrollmentService) Delete(ctx context.Context, id string) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "level enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level enrollment")
	}
	if err := s.repo.Delete(ctx, id, enrollment.GroupID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "level enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete level enrollment")
	}
	if enrollment.GroupID != nil && s.groupCache != nil {
		s.groupCache.InvalidateListings(ctx)
	}
	return nil
}
