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

type courseEnrollmentRepo interface {
	List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error)
	Exists(ctx context.Context, studentID, courseID, periodID string) (bool, error)
	Create(ctx context.Context, enrollment *models.CourseEnrollment) error
	UpdateStatus(ctx context.Context, id string, status models.CourseEnrollmentStatus, completionDate *time.Time) error
	HasLevelEnrollments(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type catalogReader interface {
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	FindLevelByID(ctx context.Context, id string) (*models.Level, error)
	FindSubjectByID(ctx context.Context, id string) (*models.SubjectDetail, error)
	FindPeriodByID(ctx context.Context, id string) (*models.AcademicPeriod, error)
	FindStudentByID(ctx context.Context, id string) (*models.Student, error)
	FindAssignmentByID(ctx context.Context, id string) (*models.SubjectAssignment, error)
	FindProfessorByID(ctx context.Context, id string) (*models.Professor, error)
}

// CreateCourseEnrollmentRequest describes the course enrollment payload.
type CreateCourseEnrollmentRequest struct {
	StudentID        string     `json:"student_id" validate:"required"`
	CourseID         string     `json:"course_id" validate:"required"`
	AcademicPeriodID string     `json:"academic_period_id" validate:"required"`
	EnrollmentDate   *time.Time `json:"enrollment_date,omitempty"`
}

// UpdateCourseEnrollmentStatusRequest describes a status transition.
type UpdateCourseEnrollmentStatusRequest struct {
	Status models.CourseEnrollmentStatus `json:"status" validate:"required"`
}

// CourseEnrollmentService orchestrates the root tier of the enrollment
// hierarchy.
type CourseEnrollmentService struct {
	repo      courseEnrollmentRepo
	catalog   catalogReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCourseEnrollmentService constructs CourseEnrollmentService.
func NewCourseEnrollmentService(repo courseEnrollmentRepo, catalog catalogReader, validate *validator.Validate, logger *zap.Logger) *CourseEnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseEnrollmentService{repo: repo, catalog: catalog, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns course enrollments with pagination metadata.
func (s *CourseEnrollmentService) List(ctx context.Context, filter models.CourseEnrollmentFilter) ([]models.CourseEnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Get returns a course enrollment by ID.
func (s *CourseEnrollmentService) Get(ctx context.Context, id string) (*models.CourseEnrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course enrollment")
	}
	return enrollment, nil
}

// Create registers a student into a course for an academic period.
func (s *CourseEnrollmentService) Create(ctx context.Context, req CreateCourseEnrollmentRequest) (*models.CourseEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course enrollment payload")
	}
	student, err := s.catalog.FindStudentByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.ErrStudentInactive
	}
	course, err := s.catalog.FindCourseByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.ErrCourseInactive
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
	exists, err := s.repo.Exists(ctx, req.StudentID, req.CourseID, req.AcademicPeriodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course enrollment")
	}
	if exists {
		return nil, appErrors.ErrDuplicateEnrollment
	}

	enrollment := &models.CourseEnrollment{
		StudentID:        req.StudentID,
		CourseID:         req.CourseID,
		AcademicPeriodID: req.AcademicPeriodID,
		Status:           models.CourseEnrollmentActive,
	}
	if req.EnrollmentDate != nil {
		enrollment.EnrollmentDate = *req.EnrollmentDate
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course enrollment")
	}
	s.logger.Info("course enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("course_id", enrollment.CourseID))
	return enrollment, nil
}

// UpdateStatus transitions a course enrollment. Any status may follow any
// other; EGRESADO stamps the completion date when it is still unset.
func (s *CourseEnrollmentService) UpdateStatus(ctx context.Context, id string, req UpdateCourseEnrollmentStatusRequest) (*models.CourseEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course enrollment status")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course enrollment")
	}

	completionDate := enrollment.CompletionDate
	if req.Status == models.CourseEnrollmentGraduated && completionDate == nil {
		now := s.now()
		completionDate = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, completionDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course enrollment status")
	}
	enrollment.Status = req.Status
	enrollment.CompletionDate = completionDate
	return enrollment, nil
}

// Delete removes a course enrollment. The root of the hierarchy cannot be
// deleted while child level enrollments still reference it.
func (s *CourseEnrollmentService) Delete(ctx context.Context, id string) error {
	hasChildren, err := s.repo.HasLevelEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check level enrollments")
	}
	if hasChildren {
		return appErrors.ErrChildEnrollmentsExist
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course enrollment")
	}
	return nil
}
