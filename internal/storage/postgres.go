package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bisp1999/grading-app/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = 2
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the connection pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const testColumns = `id, teacher_id, semester, grade, class_name, subject, competency, test_name, max_points, test_date, test_weight, created_at`

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanTest(row scanner) (*models.TestRecord, error) {
	var rec models.TestRecord
	var grade, className, subject sql.NullString
	var testDate time.Time

	err := row.Scan(
		&rec.ID,
		&rec.TeacherID,
		&rec.Semester,
		&grade,
		&className,
		&subject,
		&rec.Competency,
		&rec.TestName,
		&rec.MaxPoints,
		&testDate,
		&rec.TestWeight,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Grade = grade.String
	rec.ClassName = className.String
	rec.Subject = subject.String
	rec.TestDate = testDate.Format(models.DateLayout)
	return &rec, nil
}

// CreateTests inserts recs in one transaction and sets their IDs. Either
// every test is stored or none is.
func (r *PostgresRepository) CreateTests(ctx context.Context, recs []*models.TestRecord) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertTest(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		for _, rec := range recs {
			rec.ID = 0
		}
		return fmt.Errorf("failed to create tests: %w", err)
	}

	return nil
}

func insertTest(ctx context.Context, tx pgx.Tx, rec *models.TestRecord) error {
	testDate, err := time.Parse(models.DateLayout, rec.TestDate)
	if err != nil {
		return fmt.Errorf("invalid test date %q: %w", rec.TestDate, err)
	}

	query := `
		INSERT INTO tests (teacher_id, semester, grade, class_name, subject, competency, test_name, max_points, test_date, test_weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, query,
		rec.TeacherID,
		rec.Semester,
		nullString(rec.Grade),
		nullString(rec.ClassName),
		nullString(rec.Subject),
		rec.Competency,
		rec.TestName,
		rec.MaxPoints,
		testDate,
		rec.TestWeight,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert test for class %q: %w", rec.ClassName, err)
	}

	return nil
}

// GetTest retrieves a test owned by teacherID
func (r *PostgresRepository) GetTest(ctx context.Context, teacherID, id int64) (*models.TestRecord, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE id = $1 AND teacher_id = $2`

	rec, err := scanTest(r.pool.QueryRow(ctx, query, id, teacherID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	return rec, nil
}

// UpdateTest overwrites the editable fields of a test
func (r *PostgresRepository) UpdateTest(ctx context.Context, rec *models.TestRecord) error {
	testDate, err := time.Parse(models.DateLayout, rec.TestDate)
	if err != nil {
		return fmt.Errorf("invalid test date %q: %w", rec.TestDate, err)
	}

	query := `
		UPDATE tests
		SET semester = $3, grade = $4, class_name = $5, subject = $6, competency = $7,
		    test_name = $8, max_points = $9, test_date = $10, test_weight = $11
		WHERE id = $1 AND teacher_id = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.TeacherID,
		rec.Semester,
		nullString(rec.Grade),
		nullString(rec.ClassName),
		nullString(rec.Subject),
		rec.Competency,
		rec.TestName,
		rec.MaxPoints,
		testDate,
		rec.TestWeight,
	)
	if err != nil {
		return fmt.Errorf("failed to update test: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTestNotFound
	}

	return nil
}

// DeleteTest removes a test; its grades go with it through the foreign key
func (r *PostgresRepository) DeleteTest(ctx context.Context, teacherID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTestNotFound
	}

	return nil
}

// ListTests returns tests matching filters, newest test date first
func (r *PostgresRepository) ListTests(ctx context.Context, filters models.ListFilters) ([]*models.TestRecord, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE teacher_id = $1`
	args := []any{filters.TeacherID}
	argNum := 2

	if filters.Semester != "" {
		query += fmt.Sprintf(" AND semester = $%d", argNum)
		args = append(args, filters.Semester)
		argNum++
	}

	if filters.ClassName != "" {
		query += fmt.Sprintf(" AND class_name = $%d", argNum)
		args = append(args, filters.ClassName)
		argNum++
	}

	if filters.Subject != "" {
		query += fmt.Sprintf(" AND subject = $%d", argNum)
		args = append(args, filters.Subject)
	}

	query += " ORDER BY test_date DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	defer rows.Close()

	var tests []*models.TestRecord
	for rows.Next() {
		rec, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}
		tests = append(tests, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tests: %w", err)
	}

	return tests, nil
}

// LatestTest returns the teacher's most recent test, or nil when there is none
func (r *PostgresRepository) LatestTest(ctx context.Context, teacherID int64) (*models.TestRecord, error) {
	query := `SELECT ` + testColumns + ` FROM tests WHERE teacher_id = $1 ORDER BY test_date DESC, id DESC LIMIT 1`

	rec, err := scanTest(r.pool.QueryRow(ctx, query, teacherID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest test: %w", err)
	}

	return rec, nil
}

// --- Teachers ---

// GetTeacherByAPIKey retrieves a teacher by API key, or nil when unknown
func (r *PostgresRepository) GetTeacherByAPIKey(ctx context.Context, apiKey string) (*models.Teacher, error) {
	query := `
		SELECT id, name, teacher_type, homeroom_class_name, homeroom_grade, api_key, is_active, created_at, last_used_at
		FROM teachers
		WHERE api_key = $1
	`

	var teacher models.Teacher
	var teacherType string
	var homeroomClass, homeroomGrade sql.NullString
	var lastUsedAt sql.NullTime

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&teacher.ID,
		&teacher.Name,
		&teacherType,
		&homeroomClass,
		&homeroomGrade,
		&teacher.APIKey,
		&teacher.IsActive,
		&teacher.CreatedAt,
		&lastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}

	teacher.Type = models.ParseTeacherType(teacherType)
	teacher.HomeroomClassName = homeroomClass.String
	teacher.HomeroomGrade = homeroomGrade.String
	if lastUsedAt.Valid {
		teacher.LastUsedAt = &lastUsedAt.Time
	}

	return &teacher, nil
}

// UpdateTeacherLastUsed updates the last_used_at timestamp for a teacher
func (r *PostgresRepository) UpdateTeacherLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE teachers SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update teacher last_used_at: %w", err)
	}

	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
