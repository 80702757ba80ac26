package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type subjectEnrollmentRepo interface {
	List(ctx context.Context, filter models.SubjectEnrollmentFilter) ([]models.SubjectEnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error)
	Create(ctx context.Context, enrollment *models.SubjectEnrollment) error
	UpdateStatus(ctx context.Context, id string, status models.ProgressStatus) error
	SetFinalGrade(ctx context.Context, id string, finalGrade float64) error
}

type levelEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.LevelEnrollment, error)
}

// CreateSubjectEnrollmentRequest describes the subject enrollment payload.
type CreateSubjectEnrollmentRequest struct {
	LevelEnrollmentID   string     `json:"level_enrollment_id" validate:"required"`
	SubjectID           string     `json:"subject_id" validate:"required"`
	SubjectAssignmentID *string    `json:"subject_assignment_id,omitempty"`
	EnrollmentDate      *time.Time `json:"enrollment_date,omitempty"`
}

// UpdateSubjectEnrollmentStatusRequest describes a status transition.
type UpdateSubjectEnrollmentStatusRequest struct {
	Status models.ProgressStatus `json:"status" validate:"required"`
}

// UpdateSubjectEnrollmentRequest carries mutable enrollment fields.
type UpdateSubjectEnrollmentRequest struct {
	FinalGrade *float64 `json:"final_grade,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// SubjectEnrollmentService orchestrates the subject tier of the enrollment
// hierarchy.
type SubjectEnrollmentService struct {
	repo      subjectEnrollmentRepo
	parents   levelEnrollmentReader
	catalog   catalogReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectEnrollmentService constructs SubjectEnrollmentService.
func NewSubjectEnrollmentService(repo subjectEnrollmentRepo, parents levelEnrollmentReader, catalog catalogReader, validate *validator.Validate, logger *zap.Logger) *SubjectEnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectEnrollmentService{repo: repo, parents: parents, catalog: catalog, validator: validate, logger: logger}
}

// List returns subject enrollments with pagination metadata.
func (s *SubjectEnrollmentService) List(ctx context.Context, filter models.SubjectEnrollmentFilter) ([]models.SubjectEnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject enrollments")
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

// Get returns a subject enrollment by ID.
func (s *SubjectEnrollmentService) Get(ctx context.Context, id string) (*models.SubjectEnrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
	}
	return enrollment, nil
}

// Create registers a subject enrollment under an in-progress level enrollment.
// The subject must belong to the level of the parent enrollment; an optional
// assignment must target the same subject. Enrolling without an assignment is
// a valid state: the student has no professor bound yet.
func (s *SubjectEnrollmentService) Create(ctx context.Context, req CreateSubjectEnrollmentRequest) (*models.SubjectEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject enrollment payload")
	}
	parent, err := s.parents.FindByID(ctx, req.LevelEnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level enrollment")
	}
	if parent.Status != models.ProgressInCourse {
		return nil, appErrors.ErrLevelNotActive
	}
	subject, err := s.catalog.FindSubjectByID(ctx, req.SubjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.LevelID != parent.LevelID {
		level, lerr := s.catalog.FindLevelByID(ctx, parent.LevelID)
		expected := parent.LevelID
		if lerr == nil {
			expected = level.Name
		}
		return nil, appErrors.Clone(appErrors.ErrSubjectLevelMismatch,
			fmt.Sprintf("subject belongs to level %q, expected level %q", subject.LevelName, expected))
	}
	if req.SubjectAssignmentID != nil {
		assignment, err := s.catalog.FindAssignmentByID(ctx, *req.SubjectAssignmentID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "subject assignment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject assignment")
		}
		if assignment.SubjectID != req.SubjectID {
			return nil, appErrors.ErrAssignmentSubjectMismatch
		}
	}

	enrollment := &models.SubjectEnrollment{
		LevelEnrollmentID:   req.LevelEnrollmentID,
		SubjectID:           req.SubjectID,
		SubjectAssignmentID: req.SubjectAssignmentID,
		Status:              models.ProgressInCourse,
	}
	if req.EnrollmentDate != nil {
		enrollment.EnrollmentDate = *req.EnrollmentDate
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject enrollment")
	}
	if enrollment.SubjectAssignmentID == nil {
		s.logger.Warn("subject enrollment created without professor assignment",
			zap.String("enrollment_id", enrollment.ID),
			zap.String("subject_id", enrollment.SubjectID))
	} else {
		s.logger.Info("subject enrollment created",
			zap.String("enrollment_id", enrollment.ID),
			zap.String("subject_id", enrollment.SubjectID),
			zap.String("subject_assignment_id", *enrollment.SubjectAssignmentID))
	}
	return enrollment, nil
}

// UpdateStatus transitions a subject enrollment. Any status may follow any
// other; the subject tier carries no completion date of its own.
func (s *SubjectEnrollmentService) UpdateStatus(ctx context.Context, id string, req UpdateSubjectEnrollmentStatusRequest) (*models.SubjectEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject enrollment status")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject enrollment status")
	}
	enrollment.Status = req.Status
	return enrollment, nil
}

// Update mutates the final grade of a subject enrollment.
func (s *SubjectEnrollmentService) Update(ctx context.Context, id string, req UpdateSubjectEnrollmentRequest) (*models.SubjectEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
	}
	if req.FinalGrade != nil {
		if err := s.repo.SetFinalGrade(ctx, id, *req.FinalGrade); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set final grade")
		}
		enrollment.FinalGrade = req.FinalGrade
	}
	return enrollment, nil
}
