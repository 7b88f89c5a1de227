package models

import (
	"time"
)

// Teacher represents an authenticated teacher account
type Teacher struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Type              TeacherType `json:"teacher_type"`
	HomeroomClassName string      `json:"homeroom_class_name,omitempty"`
	HomeroomGrade     string      `json:"homeroom_grade,omitempty"`
	APIKey            string      `json:"-"` // Never serialize
	IsActive          bool        `json:"is_active"`
	CreatedAt         time.Time   `json:"created_at"`
	LastUsedAt        *time.Time  `json:"last_used_at,omitempty"`
}

// MaskedAPIKey returns first 8 characters of API key for logging
func (t *Teacher) MaskedAPIKey() string {
	if len(t.APIKey) < 8 {
		return "***"
	}
	return t.APIKey[:8] + "..."
}

// LastUsed is the grade and class of the most recently saved test
type LastUsed struct {
	Grade     string `json:"grade"`
	ClassName string `json:"class_name"`
}

// IsZero reports whether nothing has been recorded
func (l LastUsed) IsZero() bool {
	return l.Grade == "" && l.ClassName == ""
}
