// Package alert holds the threshold-crossing decision logic and the error
// taxonomy shared by the alert store and the command surface.
package alert

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidThreshold rejects NaN, infinite and negative prices before
	// anything reaches the store.
	ErrInvalidThreshold = errors.New("invalid alert threshold")

	// ErrDuplicateThreshold means the owner already has an alert at that price.
	ErrDuplicateThreshold = errors.New("duplicate alert threshold")

	// ErrLimitExceeded means the owner is at the configured alert cap.
	ErrLimitExceeded = errors.New("alert limit exceeded")

	// ErrNotFound means no alert matches the given owner and price.
	ErrNotFound = errors.New("alert not found")
)

// Crosses reports whether threshold lies in the closed interval between the
// previous and current sample, regardless of direction. The product is
// non-negative exactly when threshold sits between the two endpoints,
// boundaries included.
func Crosses(previous, current, threshold float64) bool {
	return (threshold-current)*(previous-threshold) >= 0
}

// ValidateThreshold checks that a requested alert price is a finite,
// non-negative number.
func ValidateThreshold(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return ErrInvalidThreshold
	}
	return nil
}
