package models

import "time"

// DefaultWeightPercentage is the weight applied to periods and components
// when the institution has not configured one.
const DefaultWeightPercentage = 33.33

// GradeComponent is a reusable grading component such as an exam or project.
type GradeComponent struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	WeightPercentage float64   `db:"weight_percentage" json:"weight_percentage"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// GradePeriod is one of the up to three grading cuts within a term.
type GradePeriod struct {
	ID               string    `db:"id" json:"id"`
	PeriodNumber     int       `db:"period_number" json:"period_number"`
	Name             string    `db:"name" json:"name"`
	WeightPercentage float64   `db:"weight_percentage" json:"weight_percentage"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Grade range boundaries, inclusive on both ends.
const (
	GradeMin = 0.00
	GradeMax = 5.00
)

// Grade is one component score for a subject enrollment within a grade period.
type Grade struct {
	ID                  string    `db:"id" json:"id"`
	SubjectEnrollmentID string    `db:"subject_enrollment_id" json:"subject_enrollment_id"`
	GradePeriodID       string    `db:"grade_period_id" json:"grade_period_id"`
	GradeComponentID    string    `db:"grade_component_id" json:"grade_component_id"`
	GradeValue          float64   `db:"grade_value" json:"grade_value"`
	Comments            *string   `db:"comments" json:"comments,omitempty"`
	AssignmentDate      time.Time `db:"assignment_date" json:"assignment_date"`
	AssignedByID        string    `db:"assigned_by_id" json:"assigned_by_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// GradeRow is a grade joined with its period and component weights, the shape
// consumed by the final-grade computation.
type GradeRow struct {
	Grade
	PeriodNumber    int     `db:"period_number" json:"period_number"`
	PeriodWeight    float64 `db:"period_weight" json:"period_weight"`
	ComponentCode   string  `db:"component_code" json:"component_code"`
	ComponentWeight float64 `db:"component_weight" json:"component_weight"`
}

// PeriodScore is the weighted score of one grade period.
type PeriodScore struct {
	GradePeriodID string  `json:"grade_period_id"`
	PeriodNumber  int     `json:"period_number"`
	Weight        float64 `json:"weight"`
	Score         float64 `json:"score"`
}

// FinalGradeSummary is the derived weighted final grade for an enrollment.
// FinalGrade is nil when no grades exist; absence is not a zero.
type FinalGradeSummary struct {
	SubjectEnrollmentID string        `json:"subject_enrollment_id"`
	PeriodScores        []PeriodScore `json:"period_scores"`
	FinalGrade          *float64      `json:"final_grade,omitempty"`
}

// GradeFilter scopes grade listings.
type GradeFilter struct {
	SubjectEnrollmentID string
	GradePeriodID       string
	GradeComponentID    string
}
