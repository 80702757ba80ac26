package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/service"
	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
	"github.com/cesde/studentinfo-api/pkg/response"
)

// GradeHandler exposes grade recording and catalog endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List returns grades filtered by enrollment, period and component.
func (h *GradeHandler) List(c *gin.Context) {
	filter := models.GradeFilter{
		SubjectEnrollmentID: c.Query("subjectEnrollmentId"),
		GradePeriodID:       c.Query("periodId"),
		GradeComponentID:    c.Query("componentId"),
	}
	grades, err := h.grades.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Record stores a grade for one enrollment, period and component slot.
// Recording the same slot again replaces the previous value.
func (h *GradeHandler) Record(c *gin.Context) {
	var req service.RecordGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update modifies the value or comments of an existing grade.
func (h *GradeHandler) Update(c *gin.Context) {
	var req service.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// ListPeriods returns the grade period catalog.
func (h *GradeHandler) ListPeriods(c *gin.Context) {
	periods, err := h.grades.ListPeriods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// ListComponents returns the grade component catalog.
func (h *GradeHandler) ListComponents(c *gin.Context) {
	components, err := h.grades.ListComponents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, components, nil)
}
