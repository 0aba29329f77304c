// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import "fmt"

// FeatureMatrix is an ordered set of named numeric columns, row-aligned with
// any label vector produced by the same assembly. It is immutable once built.
type FeatureMatrix struct {
	// Columns names each column, in order.
	Columns []string

	// Rows holds one numeric slice per sample, len(Columns) wide.
	Rows [][]float64
}

// NumRows returns the number of samples.
func (m *FeatureMatrix) NumRows() int {
	return len(m.Rows)
}

// NumCols returns the number of feature columns.
func (m *FeatureMatrix) NumCols() int {
	return len(m.Columns)
}

// ColIndex returns the position of a named column.
func (m *FeatureMatrix) ColIndex(name string) (int, bool) {
	for i, c := range m.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Select returns a new matrix with the given columns in the given order.
// Used to align a caller-supplied row with a model's training column order.
func (m *FeatureMatrix) Select(columns ...string) (FeatureMatrix, error) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		j, ok := m.ColIndex(name)
		if !ok {
			return FeatureMatrix{}, fmt.Errorf("matrix: no column %q", name)
		}
		idx[i] = j
	}

	rows := make([][]float64, len(m.Rows))
	for r, row := range m.Rows {
		out := make([]float64, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}

	return FeatureMatrix{Columns: columns, Rows: rows}, nil
}

// TakeRows returns a new matrix containing only the given row indices.
func (m *FeatureMatrix) TakeRows(indices []int) FeatureMatrix {
	rows := make([][]float64, len(indices))
	for i, idx := range indices {
		rows[i] = m.Rows[idx]
	}
	return FeatureMatrix{Columns: m.Columns, Rows: rows}
}

// takeFloat returns the elements of v at the given indices.
func takeFloat(v []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}

// takeInt returns the elements of v at the given indices.
func takeInt(v []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}
