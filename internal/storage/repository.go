package storage

import (
	"context"
	"errors"

	"github.com/Bisp1999/grading-app/internal/models"
)

// ErrTestNotFound is returned when a test does not exist for the teacher
var ErrTestNotFound = errors.New("test not found")

// Repository defines the interface for gradebook persistence.
// Every test operation is scoped to the owning teacher.
type Repository interface {
	// Tests
	CreateTests(ctx context.Context, recs []*models.TestRecord) error
	GetTest(ctx context.Context, teacherID, id int64) (*models.TestRecord, error)
	UpdateTest(ctx context.Context, rec *models.TestRecord) error
	DeleteTest(ctx context.Context, teacherID, id int64) error
	ListTests(ctx context.Context, filters models.ListFilters) ([]*models.TestRecord, error)
	LatestTest(ctx context.Context, teacherID int64) (*models.TestRecord, error)

	// Teachers
	GetTeacherByAPIKey(ctx context.Context, apiKey string) (*models.Teacher, error)
	UpdateTeacherLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// LastUsedStore remembers the grade and class a teacher last saved a test for
type LastUsedStore interface {
	Get(ctx context.Context, teacherID int64) (models.LastUsed, error)
	Set(ctx context.Context, teacherID int64, last models.LastUsed) error
	Ping(ctx context.Context) error
	Close() error
}
