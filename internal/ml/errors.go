// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData aborts a whole training run: fewer joined rows
	// than the configured minimum were available before splitting.
	ErrInsufficientData = errors.New("ml: insufficient training data")

	// ErrNotFound is returned when a referenced entity is absent. It aborts
	// only the operation that requested the entity.
	ErrNotFound = errors.New("ml: entity not found")

	// ErrModelUnavailable is returned by the prediction service when
	// persisted models cannot be loaded. Fatal to that call only.
	ErrModelUnavailable = errors.New("ml: model unavailable")
)

// FitError reports that a single model family failed to fit. The run
// continues without that family; the error is logged, never merged into
// another family's results.
type FitError struct {
	// Family is the algorithm name that failed.
	Family string

	// Err is the underlying fit failure.
	Err error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("ml: fit %s: %v", e.Family, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}
