package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/pagecontext"
	"github.com/Bisp1999/grading-app/internal/storage"
)

// Response helpers

type errorBody struct {
	Error string `json:"error"`
}

type testsBody struct {
	Tests []*models.TestRecord `json:"tests"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

func testID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ready, checks := s.health.Ready(r.Context())
	if !ready {
		slog.Warn("readiness check failed", "checks", checks)
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"checks": checks,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}

// Test handlers

func (s *Server) handleGetTest(w http.ResponseWriter, r *http.Request) {
	teacher := TeacherFromContext(r.Context())

	id, ok := testID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid test id")
		return
	}

	rec, err := s.repo.GetTest(r.Context(), teacher.ID, id)
	if err != nil {
		if errors.Is(err, storage.ErrTestNotFound) {
			respondError(w, http.StatusNotFound, "Test not found")
			return
		}
		slog.Error("failed to get test", "test_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteTest(w http.ResponseWriter, r *http.Request) {
	teacher := TeacherFromContext(r.Context())

	id, ok := testID(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, models.DeleteResult{Error: "invalid test id"})
		return
	}

	if err := s.repo.DeleteTest(r.Context(), teacher.ID, id); err != nil {
		if errors.Is(err, storage.ErrTestNotFound) {
			respondJSON(w, http.StatusNotFound, models.DeleteResult{Error: "Test not found"})
			return
		}
		slog.Error("failed to delete test", "test_id", id, "error", err)
		respondJSON(w, http.StatusInternalServerError, models.DeleteResult{Error: err.Error()})
		return
	}

	slog.Info("test deleted", "test_id", id, "teacher_id", teacher.ID)
	respondJSON(w, http.StatusOK, models.DeleteResult{
		Success: true,
		Message: "Test deleted successfully",
	})
}

func (s *Server) handleListTests(w http.ResponseWriter, r *http.Request) {
	teacher := TeacherFromContext(r.Context())
	query := r.URL.Query()

	semester := strings.TrimSpace(query.Get("semester"))
	if semester == "" {
		respondError(w, http.StatusBadRequest, "semester is required")
		return
	}

	filters := models.ListFilters{
		TeacherID: teacher.ID,
		Semester:  semester,
	}
	if teacher.Type == models.TeacherSpecialist {
		filters.ClassName = strings.TrimSpace(query.Get("class_name"))
	} else {
		filters.Subject = strings.TrimSpace(query.Get("subject"))
	}

	tests, err := s.repo.ListTests(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list tests", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tests == nil {
		tests = []*models.TestRecord{}
	}

	respondJSON(w, http.StatusOK, testsBody{Tests: tests})
}

func (s *Server) handleSaveTest(w http.ResponseWriter, r *http.Request) {
	teacher := TeacherFromContext(r.Context())

	var sub models.TestSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondJSON(w, http.StatusBadRequest, models.SaveResult{Error: "invalid request body"})
		return
	}
	sub.TestName = strings.TrimSpace(sub.TestName)

	if err := sub.Validate(); err != nil {
		respondJSON(w, http.StatusBadRequest, models.SaveResult{Error: err.Error()})
		return
	}

	if teacher.Type == models.TeacherHomeroom {
		sub.Grade = teacher.HomeroomGrade
		sub.ClassName = teacher.HomeroomClassName
	}

	if sub.ID > 0 {
		s.updateTest(w, r, teacher, sub)
		return
	}
	s.createTests(w, r, teacher, sub)
}

func (s *Server) updateTest(w http.ResponseWriter, r *http.Request, teacher *models.Teacher, sub models.TestSubmission) {
	rec := sub.Record(teacher.ID)
	if err := s.repo.UpdateTest(r.Context(), rec); err != nil {
		if errors.Is(err, storage.ErrTestNotFound) {
			respondJSON(w, http.StatusNotFound, models.SaveResult{Error: "Test not found"})
			return
		}
		slog.Error("failed to update test", "test_id", rec.ID, "error", err)
		respondJSON(w, http.StatusInternalServerError, models.SaveResult{Error: err.Error()})
		return
	}

	s.rememberSelection(r.Context(), teacher, rec)
	slog.Info("test updated", "test_id", rec.ID, "teacher_id", teacher.ID)
	respondJSON(w, http.StatusOK, models.SaveResult{Success: true, ID: rec.ID})
}

// createTests stores the submission once, or once per class of the grade
// when a specialist authors for the whole grade. The batch is all or nothing.
func (s *Server) createTests(w http.ResponseWriter, r *http.Request, teacher *models.Teacher, sub models.TestSubmission) {
	classes := []string{sub.ClassName}
	if teacher.Type == models.TeacherSpecialist && sub.Scope == models.ScopeGradeAll && sub.Grade != "" && s.setups != nil {
		if setup := s.setups.Get(teacher.ID); setup != nil && len(setup.ClassroomsByGrade[sub.Grade]) > 0 {
			classes = setup.ClassroomsByGrade[sub.Grade]
		}
	}

	recs := make([]*models.TestRecord, 0, len(classes))
	for _, class := range classes {
		rec := sub.Record(teacher.ID)
		rec.ClassName = class
		recs = append(recs, rec)
	}

	if err := s.repo.CreateTests(r.Context(), recs); err != nil {
		slog.Error("failed to create tests", "classes", classes, "error", err)
		respondJSON(w, http.StatusInternalServerError, models.SaveResult{Error: err.Error()})
		return
	}
	first := recs[0]

	s.rememberSelection(r.Context(), teacher, &models.TestRecord{Grade: sub.Grade, ClassName: sub.ClassName})
	slog.Info("tests created", "count", len(classes), "teacher_id", teacher.ID, "first_id", first.ID)
	respondJSON(w, http.StatusCreated, models.SaveResult{Success: true, ID: first.ID})
}

func (s *Server) rememberSelection(ctx context.Context, teacher *models.Teacher, rec *models.TestRecord) {
	if s.lastUsed == nil || teacher.Type != models.TeacherSpecialist {
		return
	}
	last := models.LastUsed{Grade: rec.Grade, ClassName: rec.ClassName}
	if err := s.lastUsed.Set(ctx, teacher.ID, last); err != nil {
		slog.Warn("failed to record last used selection", "teacher_id", teacher.ID, "error", err)
	}
}

// Page context

func (s *Server) handlePageContext(w http.ResponseWriter, r *http.Request) {
	teacher := TeacherFromContext(r.Context())

	var setup *pagecontext.Setup
	if s.setups != nil {
		setup = s.setups.Get(teacher.ID)
	}
	if setup == nil {
		slog.Warn("no setup for teacher", "teacher_id", teacher.ID)
	}

	respondJSON(w, http.StatusOK, pagecontext.Build(setup, teacher, s.lastSelection(r.Context(), teacher)))
}

// lastSelection prefers the recorded selection and falls back to the newest test
func (s *Server) lastSelection(ctx context.Context, teacher *models.Teacher) models.LastUsed {
	if teacher.Type != models.TeacherSpecialist {
		return models.LastUsed{}
	}

	if s.lastUsed != nil {
		last, err := s.lastUsed.Get(ctx, teacher.ID)
		if err != nil {
			slog.Warn("failed to read last used selection", "teacher_id", teacher.ID, "error", err)
		} else if !last.IsZero() {
			return last
		}
	}

	rec, err := s.repo.LatestTest(ctx, teacher.ID)
	if err != nil {
		slog.Warn("failed to load latest test", "teacher_id", teacher.ID, "error", err)
		return models.LastUsed{}
	}
	if rec == nil {
		return models.LastUsed{}
	}
	return models.LastUsed{Grade: rec.Grade, ClassName: rec.ClassName}
}
