package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestCourseEnrollmentHandlerCreateInvalidBody(t *testing.T) {
	h := NewCourseEnrollmentHandler(nil)
	c, w := testContext(t, http.MethodPost, "/course-enrollments", []byte(`not json`))

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLevelEnrollmentHandlerCreateInvalidBody(t *testing.T) {
	h := NewLevelEnrollmentHandler(nil)
	c, w := testContext(t, http.MethodPost, "/level-enrollments", []byte(`{`))

	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGradeHandlerRecordInvalidBody(t *testing.T) {
	h := NewGradeHandler(nil)
	c, w := testContext(t, http.MethodPost, "/grades", []byte(`[]`))

	h.Record(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerRecordInvalidBody(t *testing.T) {
	h := NewAttendanceHandler(nil)
	c, w := testContext(t, http.MethodPost, "/attendances", []byte(`42`))

	h.Record(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageParams(t *testing.T) {
	c, _ := testContext(t, http.MethodGet, "/course-enrollments?page=3&limit=50", nil)
	page, size := pageParams(c)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, size)

	c, _ = testContext(t, http.MethodGet, "/course-enrollments", nil)
	page, size = pageParams(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
