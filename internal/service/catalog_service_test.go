package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/cesde/studentinfo-api/pkg/errors"
)

func TestCatalogServiceListLevels(t *testing.T) {
	svc := NewCatalogService(levelCatalog(), zap.NewNop())

	levels, err := svc.ListLevels(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "Nivel 1", levels[0].Name)
}

func TestCatalogServiceListLevelsUnknownCourse(t *testing.T) {
	svc := NewCatalogService(levelCatalog(), zap.NewNop())

	_, err := svc.ListLevels(context.Background(), "ghost")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCatalogServiceListSubjects(t *testing.T) {
	svc := NewCatalogService(subjectCatalog(), zap.NewNop())

	subjects, err := svc.ListSubjects(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "sub1", subjects[0].ID)
}

func TestCatalogServiceGetCourse(t *testing.T) {
	svc := NewCatalogService(levelCatalog(), zap.NewNop())

	course, err := svc.GetCourse(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, course.Active)
}
