// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package postgres implements the entity store gateway over PostgreSQL.
//
// The pipeline reads whole collections rather than filtered subsets, so the
// gateway does five full-table selects per fetch. Fetches run behind a
// circuit breaker: a flapping database fails fast instead of stalling every
// training run and serving request behind connection timeouts.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/edupredict/edupredict/internal/config"
	"github.com/edupredict/edupredict/internal/entity"
	"github.com/edupredict/edupredict/internal/metrics"
)

// Gateway fetches the academic dataset from PostgreSQL.
type Gateway struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	breaker      *gobreaker.CircuitBreaker[*entity.Dataset]
	logger       zerolog.Logger
}

// NewGateway connects a pool with the configured limits and verifies the
// connection with a ping.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGateway(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgres: database url is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	log := logger.With().Str("component", "postgres").Logger()
	breaker := gobreaker.NewCircuitBreaker[*entity.Dataset](gobreaker.Settings{
		Name:    "entity-store",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})

	return &Gateway{
		pool:         pool,
		queryTimeout: cfg.QueryTimeout,
		breaker:      breaker,
		logger:       log,
	}, nil
}

// Close releases the connection pool.
func (g *Gateway) Close() {
	g.pool.Close()
}

// Ping verifies database reachability, for health checks.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}

// FetchDataset reads all five collections in one snapshot. The fetch runs
// through the circuit breaker; an open circuit returns immediately.
func (g *Gateway) FetchDataset(ctx context.Context) (*entity.Dataset, error) {
	ds, err := g.breaker.Execute(func() (*entity.Dataset, error) {
		return g.fetchDataset(ctx)
	})
	if err != nil {
		metrics.DatasetFetchErrors.Inc()
	}
	return ds, err
}

func (g *Gateway) fetchDataset(ctx context.Context) (*entity.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	ds := &entity.Dataset{}
	var err error

	if ds.Students, err = g.fetchStudents(ctx); err != nil {
		return nil, err
	}
	if ds.Courses, err = g.fetchCourses(ctx); err != nil {
		return nil, err
	}
	if ds.Grades, err = g.fetchGrades(ctx); err != nil {
		return nil, err
	}
	if ds.Preferences, err = g.fetchPreferences(ctx); err != nil {
		return nil, err
	}
	if ds.Disabilities, err = g.fetchDisabilities(ctx); err != nil {
		return nil, err
	}

	g.logger.Debug().
		Int("students", len(ds.Students)).
		Int("courses", len(ds.Courses)).
		Int("grades", len(ds.Grades)).
		Msg("dataset fetched")
	return ds, nil
}

func (g *Gateway) fetchStudents(ctx context.Context) ([]entity.Student, error) {
	query := `
		SELECT id, full_name, email, major, academic_level, current_gpa, has_disability
		FROM students
		ORDER BY id
	`
	rows, err := g.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Student, error) {
		var s entity.Student
		var level string
		err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.Major, &level, &s.CurrentGPA, &s.HasDisability)
		s.AcademicLevel = entity.AcademicLevel(level)
		return s, err
	})
}

func (g *Gateway) fetchCourses(ctx context.Context) ([]entity.Course, error) {
	query := `
		SELECT id, course_code, course_name, difficulty_level, credits
		FROM courses
		ORDER BY id
	`
	rows, err := g.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Course, error) {
		var c entity.Course
		err := row.Scan(&c.ID, &c.CourseCode, &c.CourseName, &c.DifficultyLevel, &c.Credits)
		return c, err
	})
}

func (g *Gateway) fetchGrades(ctx context.Context) ([]entity.Grade, error) {
	query := `
		SELECT student_id, course_id, grade, grade_point, semester, year, attendance_rate
		FROM grades
		ORDER BY student_id, course_id
	`
	rows, err := g.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query grades: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Grade, error) {
		var gr entity.Grade
		err := row.Scan(&gr.StudentID, &gr.CourseID, &gr.Grade, &gr.GradePoint, &gr.Semester, &gr.Year, &gr.AttendanceRate)
		return gr, err
	})
}

func (g *Gateway) fetchPreferences(ctx context.Context) ([]entity.Preference, error) {
	query := `
		SELECT student_id, career_interests, learning_styles, time_preferences, format_preferences
		FROM student_preferences
		ORDER BY student_id
	`
	rows, err := g.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Preference, error) {
		var p entity.Preference
		err := row.Scan(&p.StudentID, &p.CareerInterests, &p.LearningStyles, &p.TimePreferences, &p.FormatPreferences)
		return p, err
	})
}

func (g *Gateway) fetchDisabilities(ctx context.Context) ([]entity.DisabilityProfile, error) {
	query := `
		SELECT student_id, disability_type, preferred_interaction_mode, support_requirements
		FROM disability_profiles
		ORDER BY student_id
	`
	rows, err := g.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query disability profiles: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DisabilityProfile, error) {
		var d entity.DisabilityProfile
		err := row.Scan(&d.StudentID, &d.DisabilityType, &d.PreferredInteractionMode, &d.SupportRequirements)
		return d, err
	})
}
