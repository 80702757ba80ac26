package models

import "time"

// SubjectAssignment binds a professor to a subject for a period, optionally
// scoped to a group. Unique per (subject, professor, period).
type SubjectAssignment struct {
	ID               string    `db:"id" json:"id"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	ProfessorID      string    `db:"professor_id" json:"professor_id"`
	AcademicPeriodID string    `db:"academic_period_id" json:"academic_period_id"`
	GroupID          *string   `db:"group_id" json:"group_id,omitempty"`
	Schedule         *string   `db:"schedule" json:"schedule,omitempty"`
	Classroom        *string   `db:"classroom" json:"classroom,omitempty"`
	MaxStudents      *int      `db:"max_students" json:"max_students,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// SessionStatus is the lifecycle of a class session.
type SessionStatus string

const (
	SessionScheduled   SessionStatus = "PROGRAMADA"
	SessionHeld        SessionStatus = "REALIZADA"
	SessionCancelled   SessionStatus = "CANCELADA"
	SessionRescheduled SessionStatus = "REPROGRAMADA"
)

// Valid returns true when the status is a supported value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionHeld, SessionCancelled, SessionRescheduled:
		return true
	default:
		return false
	}
}

// Session creation defaults applied by find-or-create.
const (
	DefaultSessionTime            = "08:00"
	DefaultSessionDurationMinutes = 120
)

// ClassSession is one calendar-dated meeting of a subject assignment. At most
// one session exists per (assignment, date); time-of-day does not discriminate.
type ClassSession struct {
	ID                  string        `db:"id" json:"id"`
	SubjectAssignmentID string        `db:"subject_assignment_id" json:"subject_assignment_id"`
	SessionDate         time.Time     `db:"session_date" json:"session_date"`
	SessionTime         string        `db:"session_time" json:"session_time"`
	DurationMinutes     int           `db:"duration_minutes" json:"duration_minutes"`
	Topic               *string       `db:"topic" json:"topic,omitempty"`
	Status              SessionStatus `db:"status" json:"status"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// AttendanceStatus records the fact observed for a student in a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENTE"
	AttendanceAbsent  AttendanceStatus = "AUSENTE"
	AttendanceLate    AttendanceStatus = "TARDANZA"
	AttendanceExcused AttendanceStatus = "EXCUSADO"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// Attendance is the single fact per (subject enrollment, class session).
// IsExcused is orthogonal to the status and may accompany any value.
type Attendance struct {
	ID                  string           `db:"id" json:"id"`
	SubjectEnrollmentID string           `db:"subject_enrollment_id" json:"subject_enrollment_id"`
	ClassSessionID      string           `db:"class_session_id" json:"class_session_id"`
	Status              AttendanceStatus `db:"status" json:"status"`
	IsExcused           bool             `db:"is_excused" json:"is_excused"`
	Reason              *string          `db:"reason" json:"reason,omitempty"`
	RecordedByID        string           `db:"recorded_by_id" json:"recorded_by_id"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceSummary aggregates the facts recorded for one enrollment.
type AttendanceSummary struct {
	Present int     `db:"present" json:"present"`
	Absent  int     `db:"absent" json:"absent"`
	Late    int     `db:"late" json:"late"`
	Excused int     `db:"excused" json:"excused"`
	Total   int     `db:"total" json:"total"`
	Percent float64 `db:"-" json:"percent"`
}
