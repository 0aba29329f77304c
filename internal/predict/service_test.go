// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package predict

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/edupredict/edupredict/internal/entity"
	"github.com/edupredict/edupredict/internal/ml"
	"github.com/edupredict/edupredict/internal/ml/export"
	"github.com/edupredict/edupredict/internal/ml/mlstore"
	"github.com/edupredict/edupredict/internal/ml/models"
)

type fakeProvider struct {
	ds  *entity.Dataset
	err error
}

func (f *fakeProvider) FetchDataset(ctx context.Context) (*entity.Dataset, error) {
	return f.ds, f.err
}

// servingDataset mirrors the training distribution: weak students fail,
// strong students pass. Student s99 has taken only two courses, leaving
// four open recommendation candidates.
func servingDataset() *entity.Dataset {
	ds := &entity.Dataset{}

	for c := 0; c < 6; c++ {
		ds.Courses = append(ds.Courses, entity.Course{
			ID:              fmt.Sprintf("c%d", c),
			CourseCode:      fmt.Sprintf("CS%d01", c),
			DifficultyLevel: c%5 + 1,
			Credits:         3 + c%2,
		})
	}

	for s := 0; s < 12; s++ {
		weak := s%3 == 0
		gpa := 3.2 + float64(s%4)*0.2
		if weak {
			gpa = 1.5 + float64(s%4)*0.1
		}
		ds.Students = append(ds.Students, entity.Student{
			ID:            fmt.Sprintf("s%02d", s),
			Major:         []string{"CS", "Math", "Physics"}[s%3],
			CurrentGPA:    gpa,
			HasDisability: s%5 == 0,
		})

		for c := 0; c < 5; c++ {
			grade := 2.7 + float64((s+c)%4)*0.3
			attendance := 85 + float64(c%3)*5
			if weak {
				grade = 1.0 + float64((s+c)%3)*0.3
				attendance = 55 + float64(c%3)*5
			}
			ds.Grades = append(ds.Grades, entity.Grade{
				StudentID:      fmt.Sprintf("s%02d", s),
				CourseID:       fmt.Sprintf("c%d", c),
				GradePoint:     grade,
				AttendanceRate: attendance,
			})
		}
	}

	ds.Students = append(ds.Students, entity.Student{ID: "s99", Major: "CS", CurrentGPA: 3.4})
	ds.Grades = append(ds.Grades,
		entity.Grade{StudentID: "s99", CourseID: "c0", GradePoint: 3.3, AttendanceRate: 92},
		entity.Grade{StudentID: "s99", CourseID: "c1", GradePoint: 3.0, AttendanceRate: 88},
	)

	return ds
}

// trainedService runs both training tasks into fresh directories and wires a
// service over the resulting artifacts.
func trainedService(t *testing.T, provider ml.EntityProvider) *Service {
	t.Helper()

	cfg := ml.DefaultTrainerConfig()
	cfg.SnapshotDir = t.TempDir()

	store, err := mlstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	perf, err := ml.NewPerformanceTrainer(provider, store, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new performance trainer: %v", err)
	}
	if _, err := perf.Run(ctx); err != nil {
		t.Fatalf("performance run: %v", err)
	}

	rec, err := ml.NewRecommendationTrainer(provider, store, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new recommendation trainer: %v", err)
	}
	if _, err := rec.Run(ctx); err != nil {
		t.Fatalf("recommendation run: %v", err)
	}

	service, err := NewService(store, provider, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestPredictPerformance(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{ds: servingDataset()}
	service := trainedService(t, provider)
	ctx := context.Background()

	weak, err := service.PredictPerformance(ctx, PerformanceRequest{
		CurrentGPA:       1.5,
		CourseDifficulty: 4,
		AttendanceRate:   55,
		Credits:          3,
	})
	if err != nil {
		t.Fatalf("predict weak profile: %v", err)
	}
	if !weak.AtRisk {
		t.Errorf("weak profile should flag at-risk, probability %v", weak.RiskProbability)
	}

	strong, err := service.PredictPerformance(ctx, PerformanceRequest{
		CurrentGPA:       3.8,
		CourseDifficulty: 2,
		AttendanceRate:   95,
		Credits:          3,
	})
	if err != nil {
		t.Fatalf("predict strong profile: %v", err)
	}
	if strong.AtRisk {
		t.Errorf("strong profile should not flag at-risk, probability %v", strong.RiskProbability)
	}
	if strong.PredictedGrade <= weak.PredictedGrade {
		t.Errorf("strong grade %v should exceed weak grade %v", strong.PredictedGrade, weak.PredictedGrade)
	}
	if strong.PredictedGrade < 0 || strong.PredictedGrade > 4 {
		t.Errorf("predicted grade %v outside [0, 4]", strong.PredictedGrade)
	}

	if strong.ModelRunID == "" {
		t.Error("forecast should carry the training run id")
	}
	if len(strong.FeatureImportance) != len(ml.PerformanceFeatureColumns) {
		t.Errorf("expected %d importances, got %d", len(ml.PerformanceFeatureColumns), len(strong.FeatureImportance))
	}
}

func TestRecommendCourses(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{ds: servingDataset()}
	service := trainedService(t, provider)
	ctx := context.Background()

	recs, err := service.RecommendCourses(ctx, "s99", 0)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	// s99 took c0 and c1, leaving four open courses.
	if len(recs) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(recs))
	}
	for _, r := range recs {
		if r.CourseID == "c0" || r.CourseID == "c1" {
			t.Errorf("taken course %s must be excluded", r.CourseID)
		}
		if r.SuccessProbability < 0 || r.SuccessProbability > 1 {
			t.Errorf("%s: probability %v out of [0, 1]", r.CourseID, r.SuccessProbability)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].SuccessProbability > recs[i-1].SuccessProbability {
			t.Errorf("ranking not descending at %d: %v", i, recs)
		}
	}

	limited, err := service.RecommendCourses(ctx, "s99", 2)
	if err != nil {
		t.Fatalf("recommend limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 with limit, got %d", len(limited))
	}

	if _, err := service.RecommendCourses(ctx, "ghost", 0); !errors.Is(err, ml.ErrNotFound) {
		t.Errorf("unknown student: expected ErrNotFound, got %v", err)
	}
}

func TestSimilarStudents(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{ds: servingDataset()}
	service := trainedService(t, provider)
	ctx := context.Background()

	peers, err := service.SimilarStudents(ctx, "s99", 3)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(peers) != 3 {
		t.Fatalf("expected 3 peers, got %d", len(peers))
	}
	for _, p := range peers {
		if p.StudentID == "s99" {
			t.Error("ranking must not include the target student")
		}
	}
	for i := 1; i < len(peers); i++ {
		if peers[i].Score > peers[i-1].Score {
			t.Errorf("scores not descending: %v", peers)
		}
	}

	if _, err := service.SimilarStudents(ctx, "ghost", 0); !errors.Is(err, ml.ErrNotFound) {
		t.Errorf("unknown student: expected ErrNotFound, got %v", err)
	}
}

func TestPredictPerformanceScoresWithLinearModel(t *testing.T) {
	t.Parallel()

	cfg := ml.DefaultTrainerConfig()
	cfg.SnapshotDir = t.TempDir()
	store, err := mlstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	// Low GPA is at-risk. The forest is fitted on inverted labels so the
	// two classifiers disagree on every row.
	raw := ml.FeatureMatrix{
		Columns: ml.PerformanceFeatureColumns,
		Rows: [][]float64{
			{1.0, 3, 60, 0, 3}, {1.2, 3, 55, 0, 3}, {1.4, 3, 65, 0, 3}, {1.5, 3, 50, 0, 3},
			{3.2, 3, 90, 0, 3}, {3.4, 3, 95, 0, 3}, {3.6, 3, 92, 0, 3}, {3.8, 3, 88, 0, 3},
		},
	}
	atRisk := []int{1, 1, 1, 1, 0, 0, 0, 0}
	inverted := []int{0, 0, 0, 0, 1, 1, 1, 1}
	grades := []float64{1.0, 1.2, 1.4, 1.5, 3.2, 3.4, 3.6, 3.8}

	var scaler ml.StandardScaler
	scaled, err := scaler.FitTransform(raw)
	if err != nil {
		t.Fatalf("fit scaler: %v", err)
	}

	logistic := models.NewLogisticRegression()
	if err := logistic.Fit(scaled.Rows, atRisk); err != nil {
		t.Fatalf("fit logistic: %v", err)
	}
	forest := models.NewRandomForestClassifier(42)
	if err := forest.Fit(scaled.Rows, inverted); err != nil {
		t.Fatalf("fit forest: %v", err)
	}
	regressor := models.NewRandomForestRegressor(42)
	if err := regressor.Fit(scaled.Rows, grades); err != nil {
		t.Fatalf("fit regressor: %v", err)
	}

	meta := mlstore.Metadata{RunID: "run-f"}
	for name, artifact := range map[string]any{
		"performance_scaler":                  &scaler,
		"performance_logistic_regression":     logistic,
		"performance_random_forest":           forest,
		"performance_random_forest_regressor": regressor,
	} {
		if _, err := store.Save(ctx, name, artifact, meta); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	snapshot := export.New(ml.TaskPerformance, "run-f", time.Now(), len(atRisk), ml.PerformanceFeatureColumns)
	if err := snapshot.Write(cfg.SnapshotDir + "/performance_params.json"); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	service, err := NewService(store, &fakeProvider{ds: servingDataset()}, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	forecast, err := service.PredictPerformance(ctx, PerformanceRequest{
		CurrentGPA: 1.2, CourseDifficulty: 3, AttendanceRate: 58, Credits: 3,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	// The linear model says at-risk; the (inverted) forest says the
	// opposite. The forecast must follow the linear model.
	if !forecast.AtRisk {
		t.Error("risk flag must come from the logistic model")
	}
	if forecast.RiskProbability <= 0.5 {
		t.Errorf("risk probability %v should exceed 0.5 for a low-GPA row", forecast.RiskProbability)
	}
	if len(forecast.FeatureImportance) != len(ml.PerformanceFeatureColumns) {
		t.Errorf("expected %d forest importances, got %d",
			len(ml.PerformanceFeatureColumns), len(forecast.FeatureImportance))
	}
}

func TestServiceHealsAfterTraining(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{ds: servingDataset()}
	cfg := ml.DefaultTrainerConfig()
	cfg.SnapshotDir = t.TempDir()

	store, err := mlstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	service, err := NewService(store, provider, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	req := PerformanceRequest{CurrentGPA: 3.0, CourseDifficulty: 3, AttendanceRate: 90, Credits: 3}

	// No artifacts yet.
	if _, err := service.PredictPerformance(ctx, req); !errors.Is(err, ml.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable before training, got %v", err)
	}

	trainer, err := ml.NewPerformanceTrainer(provider, store, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new trainer: %v", err)
	}
	if _, err := trainer.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	// The failed load was not cached; the same service now serves.
	if _, err := service.PredictPerformance(ctx, req); err != nil {
		t.Errorf("expected serving to recover after training, got %v", err)
	}
}

func TestServiceRejectsColumnMismatch(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{ds: servingDataset()}
	cfg := ml.DefaultTrainerConfig()
	cfg.SnapshotDir = t.TempDir()

	store, err := mlstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	// A snapshot fitted with a different column order must not serve.
	snapshot := export.New(ml.TaskPerformance, "run-x", time.Now(), 10,
		[]string{"credits", "current_gpa", "course_difficulty", "attendance_rate", "has_disability"})
	if err := snapshot.Write(cfg.SnapshotDir + "/performance_params.json"); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	service, err := NewService(store, provider, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = service.PredictPerformance(context.Background(), PerformanceRequest{
		CurrentGPA: 3.0, CourseDifficulty: 3, AttendanceRate: 90, Credits: 3,
	})
	if !errors.Is(err, ml.ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable on column mismatch, got %v", err)
	}
}
