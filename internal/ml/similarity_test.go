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

func TestRankSimilarStudents(t *testing.T) {
	t.Parallel()

	peers, err := RankSimilarStudents(testDataset(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// s2 and s3 both have history; target is excluded.
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(peers))
	}

	// s2: same major, gpa delta 1.7, disability mismatch.
	// s3: other major, gpa delta 0.6, disability match.
	wantS2 := 0.4*(5-1.7) + 0.3
	wantS3 := 0.4*(5-0.6) + 0.3

	byID := map[string]SimilarStudent{}
	for _, p := range peers {
		byID[p.StudentID] = p
	}
	if got := byID["s2"].Score; math.Abs(got-wantS2) > 1e-9 {
		t.Errorf("s2 score: expected %v, got %v", wantS2, got)
	}
	if got := byID["s3"].Score; math.Abs(got-wantS3) > 1e-9 {
		t.Errorf("s3 score: expected %v, got %v", wantS3, got)
	}

	// s3 outranks s2.
	if peers[0].StudentID != "s3" {
		t.Errorf("expected s3 first, got %s", peers[0].StudentID)
	}

	if got := byID["s2"].AvgGrade; got != 1.3 {
		t.Errorf("s2 avg grade: expected 1.3, got %v", got)
	}
}

func TestRankSimilarStudentsExcludesNoHistory(t *testing.T) {
	t.Parallel()

	ds := testDataset()
	ds.Students = append(ds.Students, entity.Student{ID: "s4", Major: "CS", CurrentGPA: 3.5})

	peers, err := RankSimilarStudents(ds, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range peers {
		if p.StudentID == "s4" {
			t.Error("student without grade history should be excluded")
		}
	}
}

func TestRankSimilarStudentsTieBreak(t *testing.T) {
	t.Parallel()

	// Two identical peers must rank by ascending id.
	ds := &entity.Dataset{
		Students: []entity.Student{
			{ID: "t", Major: "CS", CurrentGPA: 3.0},
			{ID: "b", Major: "CS", CurrentGPA: 3.0},
			{ID: "a", Major: "CS", CurrentGPA: 3.0},
		},
		Courses: []entity.Course{{ID: "c1"}},
		Grades: []entity.Grade{
			{StudentID: "b", CourseID: "c1", GradePoint: 3.0},
			{StudentID: "a", CourseID: "c1", GradePoint: 3.0},
		},
	}

	peers, err := RankSimilarStudents(ds, "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peers[0].StudentID != "a" || peers[1].StudentID != "b" {
		t.Errorf("expected tie-break by id [a b], got [%s %s]", peers[0].StudentID, peers[1].StudentID)
	}
}

func TestRankSimilarStudentsUnknownTarget(t *testing.T) {
	t.Parallel()

	_, err := RankSimilarStudents(testDataset(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
