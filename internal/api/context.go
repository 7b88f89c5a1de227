package api

import (
	"context"

	"github.com/Bisp1999/grading-app/internal/models"
)

type contextKey string

const teacherContextKey contextKey = "teacher"

// TeacherFromContext extracts the authenticated teacher from context
func TeacherFromContext(ctx context.Context) *models.Teacher {
	teacher, ok := ctx.Value(teacherContextKey).(*models.Teacher)
	if !ok {
		return nil
	}
	return teacher
}

// ContextWithTeacher adds the authenticated teacher to context
func ContextWithTeacher(ctx context.Context, teacher *models.Teacher) context.Context {
	return context.WithValue(ctx, teacherContextKey, teacher)
}
