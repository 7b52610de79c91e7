// Movie Recommender - Hybrid Movie Recommendation Service
// Copyright 2026 Dio27073
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Dio27073/movie-recommender

package recommend

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by component-level queries. The hybrid merge
// catches these internally and degrades; only direct callers of Similar,
// Predict and TopUnrated see them.
var (
	// ErrNotFound indicates a movie id absent from the current
	// generation's content index.
	ErrNotFound = errors.New("movie not found in content index")

	// ErrModelNotReady indicates the collaborative model has never been
	// trained on a non-empty rating set.
	ErrModelNotReady = errors.New("collaborative model not trained")

	// ErrTrainingInProgress indicates a retrain was requested while
	// another retrain is still building a generation.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// ValidationError rejects malformed input at the Build/Train boundary
// before any partial state is constructed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
