package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/service"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
	"github.com/cesde/studentinfo-api/pkg/response"
)

// AttendanceHandler exposes attendance and class session endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Record stores an attendance mark for a student in a class session.
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req service.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	attendance, err := h.attendance.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attendance)
}

// FindOrCreateSession resolves the class session for an assignment and date,
// creating it with default scheduling when absent.
func (h *AttendanceHandler) FindOrCreateSession(c *gin.Context) {
	var req service.FindOrCreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.attendance.FindOrCreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// ListSessions returns the class sessions of a subject assignment.
func (h *AttendanceHandler) ListSessions(c *gin.Context) {
	sessions, err := h.attendance.ListSessions(c.Request.Context(), c.Query("assignmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// UpdateSessionStatus transitions a class session status.
func (h *AttendanceHandler) UpdateSessionStatus(c *gin.Context) {
	var req struct {
		Status models.SessionStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.attendance.UpdateSessionStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// ListByEnrollment returns the attendance records of a subject enrollment.
func (h *AttendanceHandler) ListByEnrollment(c *gin.Context) {
	records, err := h.attendance.ListByEnrollment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ListBySession returns the attendance records of a class session.
func (h *AttendanceHandler) ListBySession(c *gin.Context) {
	records, err := h.attendance.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Summary returns aggregate attendance counts for a subject enrollment.
func (h *AttendanceHandler) Summary(c *gin.Context) {
	summary, err := h.attendance.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
