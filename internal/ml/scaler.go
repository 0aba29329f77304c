// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"fmt"
	"math"
)

// StandardScaler standardizes columns to zero mean and unit variance. The
// fitted parameters must be persisted alongside any model trained on the
// scaled output: a model without its paired scaler cannot correctly score
// new rows.
//
// Fields are exported for gob persistence.
type StandardScaler struct {
	// Columns records the column order the scaler was fitted on.
	Columns []string

	// Mean is the per-column mean.
	Mean []float64

	// Scale is the per-column standard deviation. Zero-variance columns
	// get scale 1 so transforming them is a no-op shift.
	Scale []float64
}

// Fit computes the per-column mean and standard deviation.
func (s *StandardScaler) Fit(m FeatureMatrix) error {
	if m.NumRows() == 0 {
		return fmt.Errorf("scaler: cannot fit on empty matrix")
	}

	n := float64(m.NumRows())
	p := m.NumCols()

	s.Columns = append([]string(nil), m.Columns...)
	s.Mean = make([]float64, p)
	s.Scale = make([]float64, p)

	for _, row := range m.Rows {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}

	for _, row := range m.Rows {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / n)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}

	return nil
}

// Transform returns a standardized copy of the matrix. The matrix columns
// must match the fitted columns exactly, in order.
func (s *StandardScaler) Transform(m FeatureMatrix) (FeatureMatrix, error) {
	if len(m.Columns) != len(s.Columns) {
		return FeatureMatrix{}, fmt.Errorf("scaler: expected %d columns, got %d", len(s.Columns), len(m.Columns))
	}
	for i, c := range m.Columns {
		if c != s.Columns[i] {
			return FeatureMatrix{}, fmt.Errorf("scaler: column %d is %q, fitted on %q", i, c, s.Columns[i])
		}
	}

	rows := make([][]float64, len(m.Rows))
	for i, row := range m.Rows {
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		rows[i] = out
	}

	return FeatureMatrix{Columns: append([]string(nil), m.Columns...), Rows: rows}, nil
}

// FitTransform fits the scaler and returns the standardized matrix.
func (s *StandardScaler) FitTransform(m FeatureMatrix) (FeatureMatrix, error) {
	if err := s.Fit(m); err != nil {
		return FeatureMatrix{}, err
	}
	return s.Transform(m)
}
