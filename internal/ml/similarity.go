// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"fmt"
	"math"
	"sort"

	"github.com/edupredict/edupredict/internal/entity"
)

// Similarity score weights. GPA proximity dominates; major and disability
// matches contribute equally.
const (
	gpaWeight        = 0.4
	majorWeight      = 0.3
	disabilityWeight = 0.3
)

// SimilarStudent is one ranked peer for a similarity query.
type SimilarStudent struct {
	// StudentID identifies the peer.
	StudentID string `json:"student_id"`

	// Score is the similarity score. It has no fixed upper bound.
	Score float64 `json:"similarity_score"`

	// AvgGrade is the peer's mean historical grade point.
	AvgGrade float64 `json:"avg_grade"`
}

// RankSimilarStudents scores every other student with grade history against
// the target and returns them in descending score order. The target itself
// and students with no grade history are excluded. Ties are broken by
// ascending student id so the ranking is deterministic regardless of input
// order.
//
// score = 0.4*(5 - |gpaΔ|) + 0.3*major_match + 0.3*disability_match
func RankSimilarStudents(ds *entity.Dataset, targetID string) ([]SimilarStudent, error) {
	target, ok := ds.StudentByID(targetID)
	if !ok {
		return nil, fmt.Errorf("student %s: %w", targetID, ErrNotFound)
	}

	// Grade sums per student, one pass over the fact table.
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, g := range ds.Grades {
		sums[g.StudentID] += g.GradePoint
		counts[g.StudentID]++
	}

	var peers []SimilarStudent
	for _, s := range ds.Students {
		if s.ID == targetID {
			continue
		}
		n := counts[s.ID]
		if n == 0 {
			continue
		}

		score := gpaWeight * (5 - math.Abs(target.CurrentGPA-s.CurrentGPA))
		if target.Major == s.Major {
			score += majorWeight
		}
		if target.HasDisability == s.HasDisability {
			score += disabilityWeight
		}

		peers = append(peers, SimilarStudent{
			StudentID: s.ID,
			Score:     score,
			AvgGrade:  sums[s.ID] / float64(n),
		})
	}

	sort.Slice(peers, func(i, j int) bool {
		if peers[i].Score != peers[j].Score {
			return peers[i].Score > peers[j].Score
		}
		return peers[i].StudentID < peers[j].StudentID
	})

	return peers, nil
}
