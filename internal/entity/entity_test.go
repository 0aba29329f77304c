// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package entity

import "testing"

func sampleDataset() *Dataset {
	return &Dataset{
		Students: []Student{
			{ID: "s1", Major: "CS", CurrentGPA: 3.1},
			{ID: "s2", Major: "Math", CurrentGPA: 2.4},
			{ID: "s1", Major: "Physics", CurrentGPA: 1.0}, // duplicate id
		},
		Grades: []Grade{
			{StudentID: "s1", CourseID: "c1", GradePoint: 3.0},
			{StudentID: "s2", CourseID: "c1", GradePoint: 2.0},
			{StudentID: "s1", CourseID: "c2", GradePoint: 3.3},
		},
	}
}

func TestStudentByID(t *testing.T) {
	t.Parallel()

	ds := sampleDataset()

	s, ok := ds.StudentByID("s1")
	if !ok {
		t.Fatal("expected s1 to resolve")
	}
	// First match wins on duplicate ids.
	if s.Major != "CS" {
		t.Errorf("expected first s1 record, got major %q", s.Major)
	}

	if _, ok := ds.StudentByID("ghost"); ok {
		t.Error("unknown id must not resolve")
	}
}

func TestGradesByStudent(t *testing.T) {
	t.Parallel()

	ds := sampleDataset()

	grades := ds.GradesByStudent("s1")
	if len(grades) != 2 {
		t.Fatalf("expected 2 grades for s1, got %d", len(grades))
	}
	// Dataset order is preserved.
	if grades[0].CourseID != "c1" || grades[1].CourseID != "c2" {
		t.Errorf("unexpected grade order: %v", grades)
	}

	if got := ds.GradesByStudent("ghost"); len(got) != 0 {
		t.Errorf("expected no grades for unknown student, got %v", got)
	}
}
