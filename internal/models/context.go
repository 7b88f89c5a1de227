package models

import (
	"sort"
)

// TeacherType represents the role a teacher was set up with
type TeacherType string

const (
	TeacherHomeroom   TeacherType = "homeroom"   // One fixed class, subject axis
	TeacherSpecialist TeacherType = "specialist" // One subject across grades/classes
)

// ParseTeacherType normalizes a wire value; anything but "specialist" is homeroom
func ParseTeacherType(s string) TeacherType {
	if TeacherType(s) == TeacherSpecialist {
		return TeacherSpecialist
	}
	return TeacherHomeroom
}

// ContextData is the wire/config shape of the page context
type ContextData struct {
	TeacherType       string              `json:"teacherType"`
	ClassroomsByGrade map[string][]string `json:"classroomsByGrade"`
	Grades            []string            `json:"grades,omitempty"`
	Competencies      []string            `json:"competencies"`
	Semesters         []string            `json:"semesters,omitempty"`
	Subjects          []string            `json:"subjects,omitempty"`
	Translations      map[string]string   `json:"translations,omitempty"`
	HomeroomClassName string              `json:"homeroomClassName,omitempty"`
	HomeroomGrade     string              `json:"homeroomGrade,omitempty"`
	LastTestGrade     string              `json:"lastTestGrade,omitempty"`
	LastTestClassName string              `json:"lastTestClassName,omitempty"`
}

// Context is the immutable snapshot of server-provided reference data.
// It is built once at page load and only read afterwards.
type Context struct {
	teacherType       TeacherType
	grades            []string
	classrooms        map[string][]string
	competencies      []string
	semesters         []string
	subjects          []string
	translations      map[string]string
	homeroomClassName string
	homeroomGrade     string
	lastTestGrade     string
	lastTestClassName string
}

// NewContext copies d into an immutable Context.
// Grade order follows d.Grades; grades missing from it are appended in ascending order.
func NewContext(d ContextData) *Context {
	c := &Context{
		teacherType:       ParseTeacherType(d.TeacherType),
		classrooms:        make(map[string][]string, len(d.ClassroomsByGrade)),
		competencies:      append([]string(nil), d.Competencies...),
		semesters:         append([]string(nil), d.Semesters...),
		subjects:          append([]string(nil), d.Subjects...),
		translations:      make(map[string]string, len(d.Translations)),
		homeroomClassName: d.HomeroomClassName,
		homeroomGrade:     d.HomeroomGrade,
		lastTestGrade:     d.LastTestGrade,
		lastTestClassName: d.LastTestClassName,
	}

	for grade, classes := range d.ClassroomsByGrade {
		c.classrooms[grade] = append([]string(nil), classes...)
	}
	for k, v := range d.Translations {
		c.translations[k] = v
	}

	seen := make(map[string]bool, len(c.classrooms))
	for _, grade := range d.Grades {
		if _, ok := c.classrooms[grade]; ok && !seen[grade] {
			c.grades = append(c.grades, grade)
			seen[grade] = true
		}
	}
	var rest []string
	for grade := range c.classrooms {
		if !seen[grade] {
			rest = append(rest, grade)
		}
	}
	sort.Strings(rest)
	c.grades = append(c.grades, rest...)

	return c
}

// TeacherType returns the teacher role
func (c *Context) TeacherType() TeacherType { return c.teacherType }

// IsSpecialist reports whether the teacher has the grade/class axis
func (c *Context) IsSpecialist() bool { return c.teacherType == TeacherSpecialist }

// IsHomeroom reports whether the teacher has the subject axis
func (c *Context) IsHomeroom() bool { return c.teacherType == TeacherHomeroom }

// Grades returns the grades in source order
func (c *Context) Grades() []string { return append([]string(nil), c.grades...) }

// ClassesIn returns the classrooms registered under grade, in source order
func (c *Context) ClassesIn(grade string) []string {
	return append([]string(nil), c.classrooms[grade]...)
}

// HasGrade reports whether any classroom is registered under grade
func (c *Context) HasGrade(grade string) bool {
	_, ok := c.classrooms[grade]
	return ok
}

// Competencies returns the competency columns in source order
func (c *Context) Competencies() []string { return append([]string(nil), c.competencies...) }

// Semesters returns the semester names offered by the page
func (c *Context) Semesters() []string { return append([]string(nil), c.semesters...) }

// Subjects returns the subjects a homeroom teacher teaches
func (c *Context) Subjects() []string { return append([]string(nil), c.subjects...) }

// Translate looks up key, falling back when it is missing or empty
func (c *Context) Translate(key, fallback string) string {
	if v := c.translations[key]; v != "" {
		return v
	}
	return fallback
}

// HomeroomClassName returns the implicit class of a homeroom teacher
func (c *Context) HomeroomClassName() string { return c.homeroomClassName }

// HomeroomGrade returns the implicit grade of a homeroom teacher
func (c *Context) HomeroomGrade() string { return c.homeroomGrade }

// LastTestGrade returns the grade of the most recently saved test
func (c *Context) LastTestGrade() string { return c.lastTestGrade }

// LastTestClassName returns the class of the most recently saved test
func (c *Context) LastTestClassName() string { return c.lastTestClassName }

// Data returns a copy of the context in its wire shape
func (c *Context) Data() ContextData {
	d := ContextData{
		TeacherType:       string(c.teacherType),
		ClassroomsByGrade: make(map[string][]string, len(c.classrooms)),
		Grades:            c.Grades(),
		Competencies:      c.Competencies(),
		Semesters:         c.Semesters(),
		Subjects:          c.Subjects(),
		Translations:      make(map[string]string, len(c.translations)),
		HomeroomClassName: c.homeroomClassName,
		HomeroomGrade:     c.homeroomGrade,
		LastTestGrade:     c.lastTestGrade,
		LastTestClassName: c.lastTestClassName,
	}
	for grade, classes := range c.classrooms {
		d.ClassroomsByGrade[grade] = append([]string(nil), classes...)
	}
	for k, v := range c.translations {
		d.Translations[k] = v
	}
	return d
}

// WithLastTest returns a copy of the context carrying the last-used grade and class
func (c *Context) WithLastTest(grade, className string) *Context {
	d := c.Data()
	d.LastTestGrade = grade
	d.LastTestClassName = className
	return NewContext(d)
}
