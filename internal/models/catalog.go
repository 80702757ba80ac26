package models

import "time"

// Course is the top tier of the academic catalog. A course owns its levels.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Code        string    `db:"code" json:"code"`
	TotalLevels int       `db:"total_levels" json:"total_levels"`
	Active      bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Level belongs to exactly one course. LevelNumber is unique per course and
// ranges 1..Course.TotalLevels.
type Level struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	LevelNumber int       `db:"level_number" json:"level_number"`
	Name        string    `db:"name" json:"name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Subject belongs to exactly one level. The level parentage anchors the
// cross-tier validation on subject enrollments.
type Subject struct {
	ID           string    `db:"id" json:"id"`
	LevelID      string    `db:"level_id" json:"level_id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Credits      int       `db:"credits" json:"credits"`
	HoursPerWeek int       `db:"hours_per_week" json:"hours_per_week"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail joins the subject with its owning level name for diagnostics.
type SubjectDetail struct {
	Subject
	LevelName string `db:"level_name" json:"level_name"`
}

// AcademicPeriod represents an institutional term such as 2025-1.
type AcademicPeriod struct {
	ID           string    `db:"id" json:"id"`
	Year         int       `db:"year" json:"year"`
	PeriodNumber int       `db:"period_number" json:"period_number"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsCurrent reports whether the reference time falls within the period range.
func (p AcademicPeriod) IsCurrent(now time.Time) bool {
	day := now.Truncate(24 * time.Hour)
	return !day.Before(p.StartDate) && !day.After(p.EndDate)
}

// CourseGroup is a seated cohort for a course level within a period.
// CurrentStudents never exceeds MaxStudents.
type CourseGroup struct {
	ID               string    `db:"id" json:"id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	LevelID          string    `db:"level_id" json:"level_id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	GroupCode        string    `db:"group_code" json:"group_code"`
	MaxStudents      int       `db:"max_students" json:"max_students"`
	CurrentStudents  int       `db:"current_students" json:"current_students"`
	Active           bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// AvailableSeats returns the remaining capacity, never negative.
func (g CourseGroup) AvailableSeats() int {
	seats := g.MaxStudents - g.CurrentStudents
	if seats < 0 {
		return 0
	}
	return seats
}

// CourseGroupFilter scopes group listings.
type CourseGroupFilter struct {
	CourseID         string
	LevelID          string
	AcademicPeriodID string
	OnlyAvailable    bool
}
