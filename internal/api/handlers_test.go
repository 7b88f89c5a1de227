package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Bisp1999/grading-app/internal/config"
	"github.com/Bisp1999/grading-app/internal/health"
	"github.com/Bisp1999/grading-app/internal/models"
	"github.com/Bisp1999/grading-app/internal/pagecontext"
	"github.com/Bisp1999/grading-app/internal/storage"
)

type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	tests    map[int64]*models.TestRecord
	teachers map[string]*models.Teacher
	lastList models.ListFilters

	// failOnInsert makes the n-th record of a batch fail (1-based)
	failOnInsert int
}

func newMemRepo() *memRepo {
	return &memRepo{
		nextID: 1,
		tests:  make(map[int64]*models.TestRecord),
		teachers: map[string]*models.Teacher{
			"specialist-0001": {ID: 1, Type: models.TeacherSpecialist, IsActive: true},
			"home-key-0002":   {ID: 2, Type: models.TeacherHomeroom, HomeroomClassName: "5B", HomeroomGrade: "5", IsActive: true},
			"gone-key-0003":   {ID: 3, Type: models.TeacherSpecialist},
		},
	}
}

func (m *memRepo) CreateTests(ctx context.Context, recs []*models.TestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make([]*models.TestRecord, 0, len(recs))
	next := m.nextID
	for i, rec := range recs {
		if m.failOnInsert > 0 && i+1 == m.failOnInsert {
			return errors.New("insert failed")
		}
		cp := *rec
		cp.ID = next
		next++
		staged = append(staged, &cp)
	}

	for i, rec := range staged {
		m.tests[rec.ID] = rec
		recs[i].ID = rec.ID
	}
	m.nextID = next
	return nil
}

func (m *memRepo) GetTest(ctx context.Context, teacherID, id int64) (*models.TestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tests[id]
	if !ok || rec.TeacherID != teacherID {
		return nil, storage.ErrTestNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRepo) UpdateTest(ctx context.Context, rec *models.TestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tests[rec.ID]
	if !ok || old.TeacherID != rec.TeacherID {
		return storage.ErrTestNotFound
	}
	cp := *rec
	m.tests[rec.ID] = &cp
	return nil
}

func (m *memRepo) DeleteTest(ctx context.Context, teacherID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tests[id]
	if !ok || rec.TeacherID != teacherID {
		return storage.ErrTestNotFound
	}
	delete(m.tests, id)
	return nil
}

func (m *memRepo) ListTests(ctx context.Context, f models.ListFilters) ([]*models.TestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f
	var out []*models.TestRecord
	for _, rec := range m.tests {
		if rec.TeacherID != f.TeacherID || rec.Semester != f.Semester {
			continue
		}
		if f.ClassName != "" && rec.ClassName != f.ClassName {
			continue
		}
		if f.Subject != "" && rec.Subject != f.Subject {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) LatestTest(ctx context.Context, teacherID int64) (*models.TestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.TestRecord
	for _, rec := range m.tests {
		if rec.TeacherID == teacherID && (latest == nil || rec.ID > latest.ID) {
			latest = rec
		}
	}
	return latest, nil
}

func (m *memRepo) GetTeacherByAPIKey(ctx context.Context, apiKey string) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.teachers[apiKey]; ok {
		cp := *t
		cp.APIKey = apiKey
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) UpdateTeacherLastUsed(ctx context.Context, apiKey string) error { return nil }
func (m *memRepo) Ping(ctx context.Context) error                                 { return nil }
func (m *memRepo) Close() error                                                   { return nil }

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tests)
}

type memLastUsed struct {
	mu   sync.Mutex
	data map[int64]models.LastUsed
}

func (s *memLastUsed) Get(ctx context.Context, teacherID int64) (models.LastUsed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[teacherID], nil
}

func (s *memLastUsed) Set(ctx context.Context, teacherID int64, last models.LastUsed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[teacherID] = last
	return nil
}

func (s *memLastUsed) Ping(ctx context.Context) error { return nil }
func (s *memLastUsed) Close() error                   { return nil }

func newTestServer(t *testing.T, lastUsed storage.LastUsedStore) (*Server, *memRepo) {
	t.Helper()

	setups := pagecontext.NewLoader()
	setup, err := pagecontext.Parse([]byte(`
teacher_id: 1
competencies: [Reading, Writing]
num_semesters: 2
classrooms:
  - grade: "3"
    classes: [3A, 3B, 3C]
`))
	if err != nil {
		t.Fatal(err)
	}
	setups.Add(setup)

	repo := newMemRepo()
	return NewServer(config.ServerConfig{RequestTimeout: 5 * time.Second}, repo, lastUsed, setups, nil), repo
}

func call(t *testing.T, s *Server, method, path, key string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("bad response body %q: %v", rr.Body.String(), err)
	}
}

func specialistSubmission() models.TestSubmission {
	return models.TestSubmission{
		Semester:   "Semester 1",
		Grade:      "3",
		ClassName:  "3A",
		Competency: "Reading",
		TestName:   "Quiz",
		MaxPoints:  20,
		TestDate:   "2024-03-01",
		TestWeight: 10,
		Scope:      models.ScopeClassOnly,
	}
}

func TestAuthentication(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name   string
		key    string
		status int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "missing api key"},
		{"unknown", "nope-nope-nope", http.StatusUnauthorized, "invalid api key"},
		{"inactive", "gone-key-0003", http.StatusUnauthorized, "account inactive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(t, s, http.MethodGet, "/api/tests?semester=Semester+1", tt.key, nil)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			var body errorBody
			decode(t, rr, &body)
			if body.Error != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, body.Error)
			}
		})
	}
}

func TestHealthIsPublic(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if rr := call(t, s, http.MethodGet, "/health", "", nil); rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestReady(t *testing.T) {
	checks := health.NewRegistry(time.Second)
	checks.Register("postgres", health.CheckerFunc(func(ctx context.Context) error { return nil }))
	checks.Register("redis", health.CheckerFunc(func(ctx context.Context) error { return errors.New("connection refused") }))

	s := NewServer(config.ServerConfig{}, newMemRepo(), nil, nil, checks)
	rr := call(t, s, http.MethodGet, "/ready", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, rr, &body)
	if body.Status != "not_ready" || body.Checks["redis"] == "" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestSaveGetDelete(t *testing.T) {
	s, _ := newTestServer(t, nil)
	const key = "specialist-0001"

	rr := call(t, s, http.MethodPost, "/api/save_test", key, specialistSubmission())
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var saved models.SaveResult
	decode(t, rr, &saved)
	if !saved.Success || saved.ID == 0 {
		t.Fatalf("unexpected save result %+v", saved)
	}

	rr = call(t, s, http.MethodGet, "/api/get_test/1", key, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var rec models.TestRecord
	decode(t, rr, &rec)
	if rec.TestName != "Quiz" || rec.ClassName != "3A" {
		t.Errorf("unexpected record %+v", rec)
	}

	// Other teachers cannot see it.
	rr = call(t, s, http.MethodGet, "/api/get_test/1", "home-key-0002", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another teacher, got %d", rr.Code)
	}

	update := specialistSubmission()
	update.ID = 1
	update.TestName = "Quiz (revised)"
	if rr = call(t, s, http.MethodPost, "/api/save_test", key, update); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", rr.Code)
	}

	rr = call(t, s, http.MethodDelete, "/api/delete_test/1", key, nil)
	var del models.DeleteResult
	decode(t, rr, &del)
	if rr.Code != http.StatusOK || !del.Success || del.Message != "Test deleted successfully" {
		t.Errorf("unexpected delete %d %+v", rr.Code, del)
	}

	rr = call(t, s, http.MethodDelete, "/api/delete_test/1", key, nil)
	del = models.DeleteResult{}
	decode(t, rr, &del)
	if rr.Code != http.StatusNotFound || del.Success || del.Error != "Test not found" {
		t.Errorf("unexpected second delete %d %+v", rr.Code, del)
	}

	rr = call(t, s, http.MethodGet, "/api/get_test/1", key, nil)
	var missing errorBody
	decode(t, rr, &missing)
	if rr.Code != http.StatusNotFound || missing.Error != "Test not found" {
		t.Errorf("unexpected get after delete %d %+v", rr.Code, missing)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	s, repo := newTestServer(t, nil)

	sub := specialistSubmission()
	sub.MaxPoints = 0
	rr := call(t, s, http.MethodPost, "/api/save_test", "specialist-0001", sub)

	var res models.SaveResult
	decode(t, rr, &res)
	if rr.Code != http.StatusBadRequest || res.Success || res.Error == "" {
		t.Errorf("unexpected response %d %+v", rr.Code, res)
	}
	if repo.count() != 0 {
		t.Error("invalid submission must not be stored")
	}
}

func TestSaveGradeAllCreatesOnePerClass(t *testing.T) {
	last := &memLastUsed{data: map[int64]models.LastUsed{}}
	s, repo := newTestServer(t, last)

	sub := specialistSubmission()
	sub.Scope = models.ScopeGradeAll
	rr := call(t, s, http.MethodPost, "/api/save_test", "specialist-0001", sub)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if repo.count() != 3 {
		t.Errorf("expected one test per class, got %d", repo.count())
	}

	got, _ := last.Get(context.Background(), 1)
	if got != (models.LastUsed{Grade: "3", ClassName: "3A"}) {
		t.Errorf("expected last used 3/3A, got %+v", got)
	}
}

func TestSaveGradeAllIsAllOrNothing(t *testing.T) {
	last := &memLastUsed{data: map[int64]models.LastUsed{}}
	s, repo := newTestServer(t, last)
	repo.failOnInsert = 2

	sub := specialistSubmission()
	sub.Scope = models.ScopeGradeAll
	rr := call(t, s, http.MethodPost, "/api/save_test", "specialist-0001", sub)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var res models.SaveResult
	decode(t, rr, &res)
	if res.Success || res.Error != "insert failed" {
		t.Errorf("unexpected result %+v", res)
	}
	if n := repo.count(); n != 0 {
		t.Errorf("expected nothing stored after a failed batch, got %d", n)
	}
	if got, _ := last.Get(context.Background(), 1); !got.IsZero() {
		t.Errorf("failed save must not record a selection, got %+v", got)
	}
}

func TestHomeroomSaveUsesHomeroomClass(t *testing.T) {
	s, repo := newTestServer(t, nil)

	sub := specialistSubmission()
	sub.Grade, sub.ClassName = "", ""
	sub.Subject = "Math"
	sub.Scope = ""
	rr := call(t, s, http.MethodPost, "/api/save_test", "home-key-0002", sub)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	rec, err := repo.GetTest(context.Background(), 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.ClassName != "5B" || rec.Grade != "5" || rec.Subject != "Math" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestListTests(t *testing.T) {
	s, repo := newTestServer(t, nil)
	const key = "specialist-0001"

	for _, class := range []string{"3A", "3B"} {
		sub := specialistSubmission()
		sub.ClassName = class
		call(t, s, http.MethodPost, "/api/save_test", key, sub)
	}

	if rr := call(t, s, http.MethodGet, "/api/tests", key, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without semester, got %d", rr.Code)
	}

	rr := call(t, s, http.MethodGet, "/api/tests?semester=Semester+1&class_name=3B&subject=Math", key, nil)
	var body testsBody
	decode(t, rr, &body)
	if len(body.Tests) != 1 || body.Tests[0].ClassName != "3B" {
		t.Errorf("unexpected tests %+v", body.Tests)
	}
	if repo.lastList.Subject != "" {
		t.Error("specialists are not filtered by subject")
	}

	rr = call(t, s, http.MethodGet, "/api/tests?semester=Semester+2", key, nil)
	if got := rr.Body.String(); got != "{\"tests\":[]}\n" {
		t.Errorf("expected empty list, got %q", got)
	}
}

func TestPageContext(t *testing.T) {
	t.Run("falls back to the newest test", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		sub := specialistSubmission()
		sub.ClassName = "3C"
		call(t, s, http.MethodPost, "/api/save_test", "specialist-0001", sub)

		rr := call(t, s, http.MethodGet, "/api/page_context", "specialist-0001", nil)
		var d models.ContextData
		decode(t, rr, &d)
		if d.TeacherType != "specialist" || len(d.Grades) != 1 || len(d.ClassroomsByGrade["3"]) != 3 {
			t.Errorf("unexpected context %+v", d)
		}
		if d.LastTestGrade != "3" || d.LastTestClassName != "3C" {
			t.Errorf("expected last test 3/3C, got %q/%q", d.LastTestGrade, d.LastTestClassName)
		}
	})

	t.Run("prefers the recorded selection", func(t *testing.T) {
		last := &memLastUsed{data: map[int64]models.LastUsed{1: {Grade: "3", ClassName: "3B"}}}
		s, _ := newTestServer(t, last)

		rr := call(t, s, http.MethodGet, "/api/page_context", "specialist-0001", nil)
		var d models.ContextData
		decode(t, rr, &d)
		if d.LastTestClassName != "3B" {
			t.Errorf("expected 3B, got %q", d.LastTestClassName)
		}
	})

	t.Run("homeroom without setup", func(t *testing.T) {
		s, _ := newTestServer(t, nil)
		rr := call(t, s, http.MethodGet, "/api/page_context", "home-key-0002", nil)
		var d models.ContextData
		decode(t, rr, &d)
		if d.TeacherType != "homeroom" || d.HomeroomClassName != "5B" {
			t.Errorf("unexpected context %+v", d)
		}
	})
}
