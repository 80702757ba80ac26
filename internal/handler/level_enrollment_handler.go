package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/service"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
	"github.com/cesde/studentinfo-api/pkg/response"
)

// LevelEnrollmentHandler exposes level enrollment endpoints.
type LevelEnrollmentHandler struct {
	enrollments *service.LevelEnrollmentService
}

// NewLevelEnrollmentHandler constructs LevelEnrollmentHandler.
func NewLevelEnrollmentHandler(enrollments *service.LevelEnrollmentService) *LevelEnrollmentHandler {
	return &LevelEnrollmentHandler{enrollments: enrollments}
}

// List returns level enrollments filtered by query parameters.
func (h *LevelEnrollmentHandler) List(c *gin.Context) {
	var filter models.LevelEnrollmentFilter
	filter.CourseEnrollmentID = c.Query("courseEnrollmentId")
	filter.LevelID = c.Query("levelId")
	filter.AcademicPeriodID = c.Query("periodId")
	filter.GroupID = c.Query("groupId")
	filter.Status = models.ProgressStatus(strings.ToUpper(c.Query("status")))
	filter.Page, filter.PageSize = pageParams(c)

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get returns a single level enrollment.
func (h *LevelEnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Create registers a level enrollment under an active course enrollment.
func (h *LevelEnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateLevelEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// UpdateStatus transitions a level enrollment status.
func (h *LevelEnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateLevelEnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Update modifies mutable level enrollment fields.
func (h *LevelEnrollmentHandler) Update(c *gin.Context) {
	var req service.UpdateLevelEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Delete removes a level enrollment and releases its group seat.
func (h *LevelEnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
