// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"errors"
	"math"
	"testing"

	"github.com/edupredict/edupredict/internal/entity"
)

func testDataset() *entity.Dataset {
	return &entity.Dataset{
		Students: []entity.Student{
			{ID: "s1", Major: "CS", CurrentGPA: 3.5, HasDisability: false},
			{ID: "s2", Major: "CS", CurrentGPA: 1.8, HasDisability: true},
			{ID: "s3", Major: "Math", CurrentGPA: 2.9, HasDisability: false},
		},
		Courses: []entity.Course{
			{ID: "c1", CourseCode: "CS101", DifficultyLevel: 2, Credits: 3},
			{ID: "c2", CourseCode: "CS201", DifficultyLevel: 4, Credits: 4},
			{ID: "c3", CourseCode: "MA101", DifficultyLevel: 3, Credits: 3},
		},
		Grades: []entity.Grade{
			{StudentID: "s1", CourseID: "c1", GradePoint: 3.7, AttendanceRate: 95},
			{StudentID: "s1", CourseID: "c2", GradePoint: 3.0, AttendanceRate: 88},
			{StudentID: "s2", CourseID: "c1", GradePoint: 1.3, AttendanceRate: 60},
			{StudentID: "s3", CourseID: "c3", GradePoint: 2.3, AttendanceRate: 75},
		},
	}
}

func TestAssemblePerformanceFeatures(t *testing.T) {
	t.Parallel()

	data := AssemblePerformanceFeatures(testDataset())

	if got := data.Features.NumRows(); got != 4 {
		t.Fatalf("expected 4 rows, got %d", got)
	}
	if got := data.Features.NumCols(); got != len(PerformanceFeatureColumns) {
		t.Fatalf("expected %d columns, got %d", len(PerformanceFeatureColumns), got)
	}

	// Row 0: s1 x c1.
	want := []float64{3.5, 2, 95, 0, 3}
	for j, v := range want {
		if data.Features.Rows[0][j] != v {
			t.Errorf("row 0 col %d: expected %v, got %v", j, v, data.Features.Rows[0][j])
		}
	}

	// Labels: at-risk below 2.0.
	wantRisk := []int{0, 0, 1, 0}
	for i, v := range wantRisk {
		if data.AtRisk[i] != v {
			t.Errorf("at_risk[%d]: expected %d, got %d", i, v, data.AtRisk[i])
		}
	}
	if data.GradePoints[2] != 1.3 {
		t.Errorf("grade_points[2]: expected 1.3, got %v", data.GradePoints[2])
	}
}

func TestAssemblePerformanceFeaturesDropsUnresolvable(t *testing.T) {
	t.Parallel()

	ds := testDataset()
	ds.Grades = append(ds.Grades,
		entity.Grade{StudentID: "ghost", CourseID: "c1", GradePoint: 4.0},
		entity.Grade{StudentID: "s1", CourseID: "missing", GradePoint: 4.0},
	)

	data := AssemblePerformanceFeatures(ds)
	if got := data.Features.NumRows(); got != 4 {
		t.Fatalf("unresolvable grades should be dropped, expected 4 rows, got %d", got)
	}
}

func TestAssembleRecommendationCandidates(t *testing.T) {
	t.Parallel()

	set, err := AssembleRecommendationCandidates(testDataset(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// s1 took c1 and c2, leaving c3.
	if len(set.CourseIDs) != 1 || set.CourseIDs[0] != "c3" {
		t.Fatalf("expected candidates [c3], got %v", set.CourseIDs)
	}

	wantAvg := (3.7 + 3.0) / 2
	if math.Abs(set.AvgPreviousGrade-wantAvg) > 1e-12 {
		t.Errorf("avg grade: expected %v, got %v", wantAvg, set.AvgPreviousGrade)
	}
}

func TestAssembleRecommendationCandidatesColdStart(t *testing.T) {
	t.Parallel()

	ds := testDataset()
	ds.Students = append(ds.Students, entity.Student{ID: "s4", CurrentGPA: 3.0})

	set, err := AssembleRecommendationCandidates(ds, "s4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.AvgPreviousGrade != ColdStartAvgGrade {
		t.Errorf("cold start avg: expected %v, got %v", ColdStartAvgGrade, set.AvgPreviousGrade)
	}
	if len(set.CourseIDs) != 3 {
		t.Errorf("expected all 3 courses as candidates, got %d", len(set.CourseIDs))
	}
}

func TestAssembleRecommendationCandidatesUnknownStudent(t *testing.T) {
	t.Parallel()

	_, err := AssembleRecommendationCandidates(testDataset(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAssembleTrainingPairs(t *testing.T) {
	t.Parallel()

	pairs := AssembleTrainingPairs(testDataset())

	if got := pairs.Features.NumRows(); got != 4 {
		t.Fatalf("expected 4 pairs, got %d", got)
	}

	// Success labels: grade point at or above 2.5.
	wantSuccess := []int{1, 1, 0, 0}
	for i, v := range wantSuccess {
		if pairs.Success[i] != v {
			t.Errorf("success[%d]: expected %d, got %d", i, v, pairs.Success[i])
		}
	}

	// avg_previous_grade for s1 rows includes both s1 grades.
	avgIdx, ok := pairs.Features.ColIndex("avg_previous_grade")
	if !ok {
		t.Fatal("missing avg_previous_grade column")
	}
	wantAvg := (3.7 + 3.0) / 2
	if math.Abs(pairs.Features.Rows[0][avgIdx]-wantAvg) > 1e-12 {
		t.Errorf("avg for s1: expected %v, got %v", wantAvg, pairs.Features.Rows[0][avgIdx])
	}
}

func TestEncodeCategorical(t *testing.T) {
	t.Parallel()

	codes, mapping := EncodeCategorical([]string{"b", "a", "b", "c"})

	if len(mapping) != 3 {
		t.Fatalf("expected 3 distinct codes, got %d", len(mapping))
	}
	// Codes assigned over sorted distinct values: a=0, b=1, c=2.
	want := []float64{1, 0, 1, 2}
	for i, v := range want {
		if codes[i] != v {
			t.Errorf("codes[%d]: expected %v, got %v", i, v, codes[i])
		}
	}
}

func TestMatrixSelectReorders(t *testing.T) {
	t.Parallel()

	m := FeatureMatrix{
		Columns: []string{"a", "b", "c"},
		Rows:    [][]float64{{1, 2, 3}, {4, 5, 6}},
	}

	out, err := m.Select("c", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rows[0][0] != 3 || out.Rows[0][1] != 1 {
		t.Errorf("expected reordered row [3 1], got %v", out.Rows[0])
	}

	if _, err := m.Select("missing"); err == nil {
		t.Error("expected error for unknown column")
	}
}
