package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cesde/studentinfo-api/internal/models"
	"github.com/cesde/studentinfo-api/internal/service"
	"github.com/cesde/studentinfo-api/pkg/response"
)

// CourseGroupHandler exposes course group endpoints.
type CourseGroupHandler struct {
	groups *service.CourseGroupService
}

// NewCourseGroupHandler constructs CourseGroupHandler.
func NewCourseGroupHandler(groups *service.CourseGroupService) *CourseGroupHandler {
	return &CourseGroupHandler{groups: groups}
}

// List returns course groups filtered by course, level and period.
func (h *CourseGroupHandler) List(c *gin.Context) {
	filter := models.CourseGroupFilter{
		CourseID:         c.Query("courseId"),
		LevelID:          c.Query("levelId"),
		AcademicPeriodID: c.Query("periodId"),
	}
	groups, err := h.groups.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// ListAvailable returns groups with at least one free seat.
func (h *CourseGroupHandler) ListAvailable(c *gin.Context) {
	filter := models.CourseGroupFilter{
		CourseID:         c.Query("courseId"),
		LevelID:          c.Query("levelId"),
		AcademicPeriodID: c.Query("periodId"),
		OnlyAvailable:    true,
	}
	groups, err := h.groups.ListAvailable(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Get returns a single course group with its seat counts.
func (h *CourseGroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// ReserveSeat manually consumes one seat, for corrections outside the
// enrollment flow.
func (h *CourseGroupHandler) ReserveSeat(c *gin.Context) {
	if err := h.groups.ReserveSeat(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// ReleaseSeat manually returns one seat to the group.
func (h *CourseGroupHandler) ReleaseSeat(c *gin.Context) {
	if err := h.groups.ReleaseSeat(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}
