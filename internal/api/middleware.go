package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Bisp1999/grading-app/internal/storage"
)

// AuthMiddleware resolves the calling teacher from an API key
type AuthMiddleware struct {
	repo storage.Repository
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(repo storage.Repository) *AuthMiddleware {
	return &AuthMiddleware{repo: repo}
}

// Authenticate verifies the API key from the Authorization or X-API-Key header
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := extractAPIKey(r)
		if apiKey == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		teacher, err := m.repo.GetTeacherByAPIKey(r.Context(), apiKey)
		if err != nil {
			slog.Error("failed to lookup teacher", "error", err, "key_prefix", maskKey(apiKey))
			writeAuthError(w, http.StatusInternalServerError, "authentication error")
			return
		}

		if teacher == nil {
			slog.Warn("invalid api key attempt", "key_prefix", maskKey(apiKey), "remote_addr", r.RemoteAddr)
			writeAuthError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		if !teacher.IsActive {
			slog.Warn("inactive teacher attempt", "teacher_id", teacher.ID, "key_prefix", maskKey(apiKey))
			writeAuthError(w, http.StatusUnauthorized, "account inactive")
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.repo.UpdateTeacherLastUsed(ctx, apiKey); err != nil {
				slog.Error("failed to update teacher last_used_at", "error", err, "teacher_id", teacher.ID)
			}
		}()

		slog.Debug("authenticated request", "teacher_id", teacher.ID, "key_prefix", teacher.MaskedAPIKey())

		next.ServeHTTP(w, r.WithContext(ContextWithTeacher(r.Context(), teacher)))
	})
}

// extractAPIKey accepts "Bearer <key>", a raw key, or X-API-Key
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// maskKey returns first 8 chars of key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: msg})
}
