// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"fmt"
	"sort"

	"github.com/edupredict/edupredict/internal/entity"
)

// Thresholds and defaults shared by both training tasks.
const (
	// AtRiskThreshold marks a grade outcome as at-risk when below it.
	AtRiskThreshold = 2.0

	// SuccessThreshold marks a grade outcome as a success at or above it.
	SuccessThreshold = 2.5

	// ColdStartAvgGrade substitutes for the historical grade average of a
	// student with no grade history.
	ColdStartAvgGrade = 2.5

	// MinTrainingSamples is the minimum joined row count a trainer accepts
	// before splitting.
	MinTrainingSamples = 10
)

// Performance feature column names, in assembly order.
var PerformanceFeatureColumns = []string{
	"current_gpa",
	"course_difficulty",
	"attendance_rate",
	"has_disability",
	"credits",
}

// Recommendation training feature column names, in assembly order.
var RecommendationFeatureColumns = []string{
	"student_gpa",
	"course_difficulty",
	"has_disability",
	"credits",
	"avg_previous_grade",
}

// PerformanceData is the joined output for the risk/performance task.
type PerformanceData struct {
	// Features holds one row per resolvable grade record.
	Features FeatureMatrix

	// GradePoints is the regression target, row-aligned with Features.
	GradePoints []float64

	// AtRisk is the binary classification target: 1 when the grade point
	// is below AtRiskThreshold.
	AtRisk []int
}

// CandidateSet is the per-student recommendation input: one row per course
// the student has not yet taken. Course ids are kept as a row key rather
// than a numeric column.
type CandidateSet struct {
	// CourseIDs is row-aligned with Features.
	CourseIDs []string

	// AvgPreviousGrade is the student's historical mean grade point, or
	// ColdStartAvgGrade with no history.
	AvgPreviousGrade float64

	// Features holds the numeric candidate columns: student_gpa,
	// avg_previous_grade, course_difficulty, has_disability, credits.
	Features FeatureMatrix
}

// TrainingPairs is the joined output for the recommendation task.
type TrainingPairs struct {
	// StudentIDs and CourseIDs are row-aligned with Features.
	StudentIDs []string
	CourseIDs  []string

	// Features holds RecommendationFeatureColumns.
	Features FeatureMatrix

	// ActualGrade is the observed grade point per pair.
	ActualGrade []float64

	// Success is 1 when the grade point meets SuccessThreshold.
	Success []int
}

// AssemblePerformanceFeatures inner-joins grades with students and courses
// and emits the performance feature matrix plus both label vectors. Grade
// rows whose student or course does not resolve are silently dropped; the
// minimum-row check belongs to the trainer, not here.
func AssemblePerformanceFeatures(ds *entity.Dataset) PerformanceData {
	students := studentIndex(ds)
	courses := courseIndex(ds)

	out := PerformanceData{
		Features: FeatureMatrix{Columns: append([]string(nil), PerformanceFeatureColumns...)},
	}

	for _, g := range ds.Grades {
		s, ok := students[g.StudentID]
		if !ok {
			continue
		}
		c, ok := courses[g.CourseID]
		if !ok {
			continue
		}

		out.Features.Rows = append(out.Features.Rows, []float64{
			s.CurrentGPA,
			float64(c.DifficultyLevel),
			g.AttendanceRate,
			boolToFloat(s.HasDisability),
			float64(c.Credits),
		})
		out.GradePoints = append(out.GradePoints, g.GradePoint)
		if g.GradePoint < AtRiskThreshold {
			out.AtRisk = append(out.AtRisk, 1)
		} else {
			out.AtRisk = append(out.AtRisk, 0)
		}
	}

	return out
}

// AssembleRecommendationCandidates builds one feature row per course the
// target student has not taken. Returns ErrNotFound when the student id does
// not resolve. Duplicate student ids use the first match.
func AssembleRecommendationCandidates(ds *entity.Dataset, studentID string) (CandidateSet, error) {
	s, ok := ds.StudentByID(studentID)
	if !ok {
		return CandidateSet{}, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}

	history := ds.GradesByStudent(studentID)
	taken := make(map[string]struct{}, len(history))
	for _, g := range history {
		taken[g.CourseID] = struct{}{}
	}

	avgGrade := ColdStartAvgGrade
	if len(history) > 0 {
		var sum float64
		for _, g := range history {
			sum += g.GradePoint
		}
		avgGrade = sum / float64(len(history))
	}

	out := CandidateSet{
		AvgPreviousGrade: avgGrade,
		Features: FeatureMatrix{Columns: []string{
			"student_gpa", "avg_previous_grade", "course_difficulty", "has_disability", "credits",
		}},
	}

	for _, c := range ds.Courses {
		if _, ok := taken[c.ID]; ok {
			continue
		}
		out.CourseIDs = append(out.CourseIDs, c.ID)
		out.Features.Rows = append(out.Features.Rows, []float64{
			s.CurrentGPA,
			avgGrade,
			float64(c.DifficultyLevel),
			boolToFloat(s.HasDisability),
			float64(c.Credits),
		})
	}

	return out, nil
}

// AssembleTrainingPairs inner-joins grades with students and courses and
// labels each pair with the success indicator. The avg_previous_grade
// feature is the per-student mean over all of that student's grade rows,
// current row included.
func AssembleTrainingPairs(ds *entity.Dataset) TrainingPairs {
	students := studentIndex(ds)
	courses := courseIndex(ds)

	// Per-student grade mean over the full history present in the dataset.
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, g := range ds.Grades {
		sums[g.StudentID] += g.GradePoint
		counts[g.StudentID]++
	}

	out := TrainingPairs{
		Features: FeatureMatrix{Columns: append([]string(nil), RecommendationFeatureColumns...)},
	}

	for _, g := range ds.Grades {
		s, ok := students[g.StudentID]
		if !ok {
			continue
		}
		c, ok := courses[g.CourseID]
		if !ok {
			continue
		}

		avg := sums[g.StudentID] / float64(counts[g.StudentID])

		out.StudentIDs = append(out.StudentIDs, g.StudentID)
		out.CourseIDs = append(out.CourseIDs, g.CourseID)
		out.Features.Rows = append(out.Features.Rows, []float64{
			s.CurrentGPA,
			float64(c.DifficultyLevel),
			boolToFloat(s.HasDisability),
			float64(c.Credits),
			avg,
		})
		out.ActualGrade = append(out.ActualGrade, g.GradePoint)
		if g.GradePoint >= SuccessThreshold {
			out.Success = append(out.Success, 1)
		} else {
			out.Success = append(out.Success, 0)
		}
	}

	return out
}

// EncodeCategorical maps each distinct value to a dense integer code,
// assigned over the sorted distinct values. Codes are stable only within a
// single call; cross-run comparability is a documented non-goal. The
// returned mapping lets a caller persist the code assignment if needed.
func EncodeCategorical(values []string) ([]float64, map[string]int) {
	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}

	sorted := make([]string, 0, len(distinct))
	for v := range distinct {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)

	mapping := make(map[string]int, len(sorted))
	for i, v := range sorted {
		mapping[v] = i
	}

	codes := make([]float64, len(values))
	for i, v := range values {
		codes[i] = float64(mapping[v])
	}

	return codes, mapping
}

// studentIndex maps student id to record, first occurrence winning.
func studentIndex(ds *entity.Dataset) map[string]entity.Student {
	idx := make(map[string]entity.Student, len(ds.Students))
	for _, s := range ds.Students {
		if _, ok := idx[s.ID]; !ok {
			idx[s.ID] = s
		}
	}
	return idx
}

// courseIndex maps course id to record, first occurrence winning.
func courseIndex(ds *entity.Dataset) map[string]entity.Course {
	idx := make(map[string]entity.Course, len(ds.Courses))
	for _, c := range ds.Courses {
		if _, ok := idx[c.ID]; !ok {
			idx[c.ID] = c
		}
	}
	return idx
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
