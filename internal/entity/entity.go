// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package entity defines the five entity collections the training pipeline
// consumes. The entity store owns schema enforcement (uniqueness of grade
// records, referential integrity); this package only models the shapes the
// pipeline reads.
package entity

// AcademicLevel is the student's enrollment level.
type AcademicLevel string

// Academic levels, ordered from entry to postgraduate.
const (
	LevelFreshman  AcademicLevel = "Freshman"
	LevelSophomore AcademicLevel = "Sophomore"
	LevelJunior    AcademicLevel = "Junior"
	LevelSenior    AcademicLevel = "Senior"
	LevelGraduate  AcademicLevel = "Graduate"
)

// Student is an immutable identity record. CurrentGPA is mutated externally
// over time; a training run sees a point-in-time value.
type Student struct {
	// ID is the unique student identifier.
	ID string `json:"id"`

	// FullName is the student's display name.
	FullName string `json:"full_name"`

	// Email is the student's contact address.
	Email string `json:"email"`

	// Major is the declared field of study.
	Major string `json:"major"`

	// AcademicLevel is the enrollment level (Freshman..Graduate).
	AcademicLevel AcademicLevel `json:"academic_level"`

	// CurrentGPA is the cumulative GPA in [0, 4].
	CurrentGPA float64 `json:"current_gpa"`

	// HasDisability indicates an accommodation record exists. This boolean
	// is the proxy used for the disability feature; see DisabilityProfile.
	HasDisability bool `json:"has_disability"`
}

// Course is a catalog entry.
type Course struct {
	// ID is the unique course identifier.
	ID string `json:"id"`

	// CourseCode is the short catalog code (e.g., "CS101").
	CourseCode string `json:"course_code"`

	// CourseName is the full course title.
	CourseName string `json:"course_name"`

	// DifficultyLevel is an ordinal difficulty rating.
	DifficultyLevel int `json:"difficulty_level"`

	// Credits is the positive credit-hour count.
	Credits int `json:"credits"`
}

// Grade is a fact row: one completed course outcome for one student.
// The store enforces at most one record per (student, course, semester, year).
type Grade struct {
	// StudentID references Student.ID.
	StudentID string `json:"student_id"`

	// CourseID references Course.ID.
	CourseID string `json:"course_id"`

	// Grade is the letter grade (e.g., "B+").
	Grade string `json:"grade"`

	// GradePoint is the numeric grade in [0, 4].
	GradePoint float64 `json:"grade_point"`

	// Semester is the term name (e.g., "Fall").
	Semester string `json:"semester"`

	// Year is the calendar year of the term.
	Year int `json:"year"`

	// AttendanceRate is the attendance percentage in [0, 100].
	AttendanceRate float64 `json:"attendance_rate"`
}

// Preference is the one-per-student record of categorical interest sets.
// The pipeline consumes it as raw attributes without decomposing the sets.
type Preference struct {
	// StudentID references Student.ID.
	StudentID string `json:"student_id"`

	// CareerInterests lists career interest tags.
	CareerInterests []string `json:"career_interests"`

	// LearningStyles lists preferred learning styles.
	LearningStyles []string `json:"learning_styles"`

	// TimePreferences lists preferred class times.
	TimePreferences []string `json:"time_preferences"`

	// FormatPreferences lists preferred delivery formats.
	FormatPreferences []string `json:"format_preferences"`
}

// DisabilityProfile is the zero-or-one-per-student accommodation record.
// Presence implies Student.HasDisability, but the pipeline does not
// cross-check: an inconsistency degrades the feature to the boolean proxy
// instead of failing training.
type DisabilityProfile struct {
	// StudentID references Student.ID.
	StudentID string `json:"student_id"`

	// DisabilityType names the accommodation category.
	DisabilityType string `json:"disability_type"`

	// PreferredInteractionMode describes preferred material delivery.
	PreferredInteractionMode string `json:"preferred_interaction_mode"`

	// SupportRequirements describes required accommodations.
	SupportRequirements string `json:"support_requirements"`
}

// Dataset is the full point-in-time fetch of all five collections. A training
// run operates on exactly one Dataset and never mutates it.
type Dataset struct {
	Students     []Student
	Courses      []Course
	Grades       []Grade
	Preferences  []Preference
	Disabilities []DisabilityProfile
}

// StudentByID returns the first student with the given id. First-match
// semantics: duplicate ids are not treated as an error here.
func (d *Dataset) StudentByID(id string) (Student, bool) {
	for _, s := range d.Students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

// GradesByStudent returns the grade rows belonging to one student, in
// dataset order.
func (d *Dataset) GradesByStudent(id string) []Grade {
	var out []Grade
	for _, g := range d.Grades {
		if g.StudentID == id {
			out = append(out, g)
		}
	}
	return out
}
