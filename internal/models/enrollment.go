package models

import "time"

// CourseEnrollmentStatus is the lifecycle of a course-tier enrollment.
type CourseEnrollmentStatus string

const (
	CourseEnrollmentActive    CourseEnrollmentStatus = "ACTIVO"
	CourseEnrollmentGraduated CourseEnrollmentStatus = "EGRESADO"
	CourseEnrollmentWithdrawn CourseEnrollmentStatus = "RETIRADO"
	CourseEnrollmentInactive  CourseEnrollmentStatus = "INACTIVO"
)

// Valid returns true when the status is a supported value.
func (s CourseEnrollmentStatus) Valid() bool {
	switch s {
	case CourseEnrollmentActive, CourseEnrollmentGraduated, CourseEnrollmentWithdrawn, CourseEnrollmentInactive:
		return true
	default:
		return false
	}
}

// ProgressStatus is shared by the level and subject tiers.
type ProgressStatus string

const (
	ProgressInCourse  ProgressStatus = "EN_CURSO"
	ProgressApproved  ProgressStatus = "APROBADO"
	ProgressFailed    ProgressStatus = "REPROBADO"
	ProgressWithdrawn ProgressStatus = "RETIRADO"
)

// Valid returns true when the status is a supported value.
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressInCourse, ProgressApproved, ProgressFailed, ProgressWithdrawn:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status closes the tier. APROBADO and REPROBADO
// stamp a completion date; RETIRADO closes without one.
func (s ProgressStatus) Terminal() bool {
	return s == ProgressApproved || s == ProgressFailed || s == ProgressWithdrawn
}

// CourseEnrollment is the root of the enrollment hierarchy. Unique per
// (student, course, academic period).
type CourseEnrollment struct {
	ID               string                 `db:"id" json:"id"`
	StudentID        string                 `db:"student_id" json:"student_id"`
	CourseID         string                 `db:"course_id" json:"course_id"`
	AcademicPeriodID string                 `db:"academic_period_id" json:"academic_period_id"`
	EnrollmentDate   time.Time              `db:"enrollment_date" json:"enrollment_date"`
	Status           CourseEnrollmentStatus `db:"status" json:"status"`
	CompletionDate   *time.Time             `db:"completion_date" json:"completion_date,omitempty"`
	CreatedAt        time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time              `db:"updated_at" json:"updated_at"`
}

// CourseEnrollmentDetail enriches the enrollment with catalog names.
type CourseEnrollmentDetail struct {
	CourseEnrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
}

// CourseEnrollmentFilter scopes course enrollment listings.
type CourseEnrollmentFilter struct {
	StudentID        string
	CourseID         string
	AcademicPeriodID string
	Status           CourseEnrollmentStatus
	Page             int
	PageSize         int
}

// LevelEnrollment registers progress through one level of the enrolled course.
// The level must belong to the same course as the parent enrollment.
type LevelEnrollment struct {
	ID                 string         `db:"id" json:"id"`
	CourseEnrollmentID string         `db:"course_enrollment_id" json:"course_enrollment_id"`
	LevelID            string         `db:"level_id" json:"level_id"`
	AcademicPeriodID   string         `db:"academic_period_id" json:"academic_period_id"`
	GroupID            *string        `db:"group_id" json:"group_id,omitempty"`
	EnrollmentDate     time.Time      `db:"enrollment_date" json:"enrollment_date"`
	Status             ProgressStatus `db:"status" json:"status"`
	FinalAverage       *float64       `db:"final_average" json:"final_average,omitempty"`
	CompletionDate     *time.Time     `db:"completion_date" json:"completion_date,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// LevelEnrollmentDetail adds level metadata for listings.
type LevelEnrollmentDetail struct {
	LevelEnrollment
	LevelName   string  `db:"level_name" json:"level_name"`
	LevelNumber int     `db:"level_number" json:"level_number"`
	GroupCode   *string `db:"group_code" json:"group_code,omitempty"`
}

// LevelEnrollmentFilter scopes level enrollment listings.
type LevelEnrollmentFilter struct {
	CourseEnrollmentID string
	LevelID            string
	AcademicPeriodID   string
	GroupID            string
	Status             ProgressStatus
	Page               int
	PageSize           int
}

// SubjectEnrollment registers a student in one subject of the enrolled level.
// SubjectAssignmentID is optional: a subject may have no professor bound yet.
type SubjectEnrollment struct {
	ID                  string         `db:"id" json:"id"`
	LevelEnrollmentID   string         `db:"level_enrollment_id" json:"level_enrollment_id"`
	SubjectID           string         `db:"subject_id" json:"subject_id"`
	SubjectAssignmentID *string        `db:"subject_assignment_id" json:"subject_assignment_id,omitempty"`
	EnrollmentDate      time.Time      `db:"enrollment_date" json:"enrollment_date"`
	Status              ProgressStatus `db:"status" json:"status"`
	FinalGrade          *float64       `db:"final_grade" json:"final_grade,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// SubjectEnrollmentDetail adds subject metadata for listings.
type SubjectEnrollmentDetail struct {
	SubjectEnrollment
	SubjectName string `db:"subject_name" json:"subject_name"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
}

// SubjectEnrollmentFilter scopes subject enrollment listings.
type SubjectEnrollmentFilter struct {
	LevelEnrollmentID   string
	SubjectID           string
	SubjectAssignmentID string
	Status              ProgressStatus
	Page                int
	PageSize            int
}
