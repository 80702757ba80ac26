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

// SubjectEnrollmentHandler exposes subject enrollment endpoints.
type SubjectEnrollmentHandler struct {
	enrollments *service.SubjectEnrollmentService
	grades      *service.GradeService
}

// NewSubjectEnrollmentHandler constructs SubjectEnrollmentHandler.
func NewSubjectEnrollmentHandler(enrollments *service.SubjectEnrollmentService, grades *service.GradeService) *SubjectEnrollmentHandler {
	return &SubjectEnrollmentHandler{enrollments: enrollments, grades: grades}
}

// List returns subject enrollments filtered by query parameters.
func (h *SubjectEnrollmentHandler) List(c *gin.Context) {
	var filter models.SubjectEnrollmentFilter
	filter.LevelEnrollmentID = c.Query("levelEnrollmentId")
	filter.SubjectID = c.Query("subjectId")
	filter.SubjectAssignmentID = c.Query("assignmentId")
	filter.Status = models.ProgressStatus(strings.ToUpper(c.Query("status")))
	filter.Page, filter.PageSize = pageParams(c)

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get returns a single subject enrollment.
func (h *SubjectEnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Create registers a subject enrollment under an in-progress level enrollment.
func (h *SubjectEnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateSubjectEnrollmentRequest
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

// UpdateStatus transitions a subject enrollment status.
func (h *SubjectEnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateSubjectEnrollmentStatusRequest
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

// Update modifies mutable subject enrollment fields.
func (h *SubjectEnrollmentHandler) Update(c *gin.Context) {
	var req service.UpdateSubjectEnrollmentRequest
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

// FinalGrade computes the weighted final grade for a subject enrollment.
// Pass persist=true to store the computed value on the enrollment.
func (h *SubjectEnrollmentHandler) FinalGrade(c *gin.Context) {
	persist := c.Query("persist") == "true"
	summary, err := h.grades.ComputeFinal(c.Request.Context(), c.Param("id"), persist)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
