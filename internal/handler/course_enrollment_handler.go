package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/service"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
	"github.com/cesde/studentinfo-api/pkg/response"
)

// CourseEnrollmentHandler exposes course enrollment endpoints.
type CourseEnrollmentHandler struct {
	enrollments *service.CourseEnrollmentService
}

// NewCourseEnrollmentHandler constructs CourseEnrollmentHandler.
func NewCourseEnrollmentHandler(enrollments *service.CourseEnrollmentService) *CourseEnrollmentHandler {
	return &CourseEnrollmentHandler{enrollments: enrollments}
}

// List returns course enrollments filtered by query parameters.
func (h *CourseEnrollmentHandler) List(c *gin.Context) {
	var filter models.CourseEnrollmentFilter
	filter.StudentID = c.Query("studentId")
	filter.CourseID = c.Query("courseId")
	filter.AcademicPeriodID = c.Query("periodId")
	filter.Status = models.CourseEnrollmentStatus(strings.ToUpper(c.Query("status")))
	filter.Page, filter.PageSize = pageParams(c)

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get returns a single course enrollment.
func (h *CourseEnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Create enrolls a student into a course for a period.
func (h *CourseEnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateCourseEnrollmentRequest
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

// UpdateStatus transitions a course enrollment status.
func (h *CourseEnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateCourseEnrollmentStatusRequest
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

// Delete removes a course enrollment without child level enrollments.
func (h *CourseEnrollmentHandler) Delete(c *gin.Context) {
	if err := h.enrollments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func pageParams(c *gin.Context) (int, int) {
	page := 1
	size := 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	return page, size
}
