package probe

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/okian/spotrank/internal/domain/types"
)

// ErrViolation marks a response that breaks a ranking guarantee.
var ErrViolation = errors.New("ranking violation")

// VerifyRanking checks that scores are finite, within [0,1] and
// non-increasing.
func VerifyRanking(entries []types.Entry) error {
	for i, e := range entries {
		if math.IsNaN(e.Score) || math.IsInf(e.Score, 0) {
			return fmt.Errorf("%w: entry %d has non-finite score", ErrViolation, i)
		}
		if e.Score < 0 || e.Score > 1 {
			return fmt.Errorf("%w: entry %d score %.6f out of range", ErrViolation, i, e.Score)
		}
		if i > 0 && e.Score > entries[i-1].Score+scoreTolerance {
			return fmt.Errorf("%w: entry %d has higher score than entry %d", ErrViolation, i, i-1)
		}
	}
	return nil
}

// VerifyIdentical checks that two responses for the same query match
// entry for entry.
func VerifyIdentical(a, b []types.Entry) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: response sizes differ (%d vs %d)", ErrViolation, len(a), len(b))
	}
	for i := range a {
		if a[i].Score != b[i].Score {
			return fmt.Errorf("%w: entry %d score differs (%.6f vs %.6f)", ErrViolation, i, a[i].Score, b[i].Score)
		}
		if !reflect.DeepEqual(a[i].Record, b[i].Record) {
			return fmt.Errorf("%w: entry %d record differs", ErrViolation, i)
		}
	}
	return nil
}
