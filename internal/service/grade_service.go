package service

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cesde/studentinfo-api/internal/models"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

type gradeRepo interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) error
	UpdateValue(ctx context.Context, id string, value float64, comments *string) error
	FetchRows(ctx context.Context, subjectEnrollmentID string) ([]models.GradeRow, error)
	FindPeriodByID(ctx context.Context, id string) (*models.GradePeriod, error)
	FindComponentByID(ctx context.Context, id string) (*models.GradeComponent, error)
	ListPeriods(ctx context.Context) ([]models.GradePeriod, error)
	ListComponents(ctx context.Context) ([]models.GradeComponent, error)
}

type subjectEnrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.SubjectEnrollment, error)
	SetFinalGrade(ctx context.Context, id string, finalGrade float64) error
}

// RecordGradeRequest describes a single grade entry payload. AssignedByID is
// the already-resolved professor recording the grade.
type RecordGradeRequest struct {
	SubjectEnrollmentID string     `json:"subject_enrollment_id" validate:"required"`
	GradePeriodID       string     `json:"grade_period_id" validate:"required"`
	GradeComponentID    string     `json:"grade_component_id" validate:"required"`
	GradeValue          float64    `json:"grade_value"`
	Comments            *string    `json:"comments,omitempty"`
	AssignmentDate      *time.Time `json:"assignment_date,omitempty"`
	AssignedByID        string     `json:"assigned_by_id" validate:"required"`
}

// UpdateGradeRequest mutates value and comments; slot bindings are immutable.
type UpdateGradeRequest struct {
	GradeValue float64 `json:"grade_value"`
	Comments   *string `json:"comments,omitempty"`
}

// GradeService stores component grades and derives weighted final grades.
type GradeService struct {
	grades      gradeRepo
	enrollments subjectEnrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
	round       func(float64) float64
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepo, enrollments subjectEnrollmentReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:      grades,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
		round:       func(v float64) float64 { return math.RoundToEven(v*100) / 100 },
	}
}

// List returns grade entries.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	grades, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// ListPeriods returns the grading period catalog.
func (s *GradeService) ListPeriods(ctx context.Context) ([]models.GradePeriod, error) {
	periods, err := s.grades.ListPeriods(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade periods")
	}
	return periods, nil
}

// ListComponents returns the grading component catalog.
func (s *GradeService) ListComponents(ctx context.Context) ([]models.GradeComponent, error) {
	components, err := s.grades.ListComponents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade components")
	}
	return components, nil
}

// Record stores a component grade for a subject enrollment. Values outside
// [0.00, 5.00] are rejected; both boundaries are valid grades.
func (s *GradeService) Record(ctx context.Context, req RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if req.GradeValue < models.GradeMin || req.GradeValue > models.GradeMax {
		return nil, appErrors.ErrGradeOutOfRange
	}
	if _, err := s.enrollments.FindByID(ctx, req.SubjectEnrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
	}
	if _, err := s.grades.FindPeriodByID(ctx, req.GradePeriodID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade period")
	}
	if _, err := s.grades.FindComponentByID(ctx, req.GradeComponentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade component not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade component")
	}

	grade := &models.Grade{
		SubjectEnrollmentID: req.SubjectEnrollmentID,
		GradePeriodID:       req.GradePeriodID,
		GradeComponentID:    req.GradeComponentID,
		GradeValue:          req.GradeValue,
		Comments:            req.Comments,
		AssignedByID:        req.AssignedByID,
	}
	if req.AssignmentDate != nil {
		grade.AssignmentDate = *req.AssignmentDate
	}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	s.logger.Info("grade recorded",
		zap.String("subject_enrollment_id", grade.SubjectEnrollmentID),
		zap.String("grade_period_id", grade.GradePeriodID),
		zap.Float64("grade_value", grade.GradeValue))
	return grade, nil
}

// Update mutates an existing grade's value and comments. Period, component
// and enrollment bindings never change after creation.
func (s *GradeService) Update(ctx context.Context, id string, req UpdateGradeRequest) (*models.Grade, error) {
	if req.GradeValue < models.GradeMin || req.GradeValue > models.GradeMax {
		return nil, appErrors.ErrGradeOutOfRange
	}
	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := s.grades.UpdateValue(ctx, id, req.GradeValue, req.Comments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	grade.GradeValue = req.GradeValue
	grade.Comments = req.Comments
	return grade, nil
}

// ComputeFinal derives the weighted final grade for a subject enrollment.
// Each period score is the component-weighted mean of that period's grades;
// the final grade is the period-weighted mean of the period scores. With no
// grades recorded the result is absent, never zero.
func (s *GradeService) ComputeFinal(ctx context.Context, subjectEnrollmentID string, persist bool) (*models.FinalGradeSummary, error) {
	if _, err := s.enrollments.FindByID(ctx, subjectEnrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject enrollment")
	}
	rows, err := s.grades.FetchRows(ctx, subjectEnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	summary := s.aggregate(subjectEnrollmentID, rows)
	if persist && summary.FinalGrade != nil {
		if err := s.enrollments.SetFinalGrade(ctx, subjectEnrollmentID, *summary.FinalGrade); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist final grade")
		}
	}
	return summary, nil
}

type periodAccumulator struct {
	periodNumber int
	weight       float64
	weightedSum  float64
	weightTotal  float64
}

func (s *GradeService) aggregate(subjectEnrollmentID string, rows []models.GradeRow) *models.FinalGradeSummary {
	summary := &models.FinalGradeSummary{SubjectEnrollmentID: subjectEnrollmentID}
	if len(rows) == 0 {
		return summary
	}

	periods := make(map[string]*periodAccumulator)
	for _, row := range rows {
		acc, ok := periods[row.GradePeriodID]
		if !ok {
			acc = &periodAccumulator{periodNumber: row.PeriodNumber, weight: row.PeriodWeight}
			if acc.weight == 0 {
				acc.weight = models.DefaultWeightPercentage
			}
			periods[row.GradePeriodID] = acc
		}
		acc.weightedSum += row.ComponentWeight * row.GradeValue
		acc.weightTotal += row.ComponentWeight
	}

	var finalSum, finalWeight float64
	for periodID, acc := range periods {
		if acc.weightTotal == 0 {
			continue
		}
		score := s.round(acc.weightedSum / acc.weightTotal)
		summary.PeriodScores = append(summary.PeriodScores, models.PeriodScore{
			GradePeriodID: periodID,
			PeriodNumber:  acc.periodNumber,
			Weight:        acc.weight,
			Score:         score,
		})
		finalSum += score * acc.weight
		finalWeight += acc.weight
	}
	sort.Slice(summary.PeriodScores, func(i, j int) bool {
		return summary.PeriodScores[i].PeriodNumber < summary.PeriodScores[j].PeriodNumber
	})
	if finalWeight > 0 {
		final := s.round(finalSum / finalWeight)
		summary.FinalGrade = &final
	}
	return summary
}
