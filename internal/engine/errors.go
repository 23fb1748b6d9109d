package engine

import (
	"errors"
	"fmt"

	"github.com/cmlibs/zinc-sub001/internal/ir"
)

// RenumberError is returned by every failed renumber call.
//
// Every code except ErrCodeMutationFailure is raised before the first
// change and guarantees the collection is unchanged.
type RenumberError struct {
	// Code identifies the error category.
	Code RenumberErrorCode

	// Message is a human-readable description.
	Message string

	// Group and Space identify the call.
	Group string
	Space ir.Space

	// Identifier is the identifier the failure concerns, if any.
	Identifier ir.Identifier

	// Err is the collaborator error, if any.
	Err error
}

// RenumberErrorCode categorizes renumber failures.
type RenumberErrorCode string

const (
	// ErrCodeEvaluationFailed indicates the sort field could not be
	// evaluated for a member.
	ErrCodeEvaluationFailed RenumberErrorCode = "EVALUATION_FAILED"

	// ErrCodeNonPositiveIdentifier indicates a new identifier below 1.
	ErrCodeNonPositiveIdentifier RenumberErrorCode = "NON_POSITIVE_IDENTIFIER"

	// ErrCodeNonMonotonicIdentifiers indicates new identifiers that do not
	// strictly increase in processing order.
	ErrCodeNonMonotonicIdentifiers RenumberErrorCode = "NON_MONOTONIC_IDENTIFIERS"

	// ErrCodeOutsideCollision indicates a new identifier held by an entity
	// outside the group.
	ErrCodeOutsideCollision RenumberErrorCode = "OUTSIDE_COLLISION"

	// ErrCodeMutationFailure indicates a relabel failed part way through.
	// The collection may hold a partial renumbering.
	ErrCodeMutationFailure RenumberErrorCode = "MUTATION_FAILURE"

	// ErrCodeInvalidRequest indicates a request that cannot be run.
	ErrCodeInvalidRequest RenumberErrorCode = "INVALID_REQUEST"

	// ErrCodeCollectionRead indicates the collection failed a read before
	// any change was made.
	ErrCodeCollectionRead RenumberErrorCode = "COLLECTION_READ_FAILED"
)

// Error implements the error interface.
func (e *RenumberError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Identifier.Space.Valid() {
		msg = fmt.Sprintf("%s (group=%q, identifier=%s)", msg, e.Group, e.Identifier)
	} else if e.Space.Valid() {
		msg = fmt.Sprintf("%s (group=%q, space=%s)", msg, e.Group, e.Space)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the collaborator error.
func (e *RenumberError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the collection may have been left partially
// renumbered.
func (e *RenumberError) Fatal() bool {
	return e.Code == ErrCodeMutationFailure
}

func hasCode(err error, code RenumberErrorCode) bool {
	var re *RenumberError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsFatal returns true if err is a MUTATION_FAILURE.
// Uses errors.As to handle wrapped errors.
func IsFatal(err error) bool {
	var re *RenumberError
	return errors.As(err, &re) && re.Fatal()
}

// IsEvaluationError returns true if the sort field failed to evaluate.
func IsEvaluationError(err error) bool {
	return hasCode(err, ErrCodeEvaluationFailed)
}

// IsNonPositiveIdentifier returns true if a new identifier was below 1.
func IsNonPositiveIdentifier(err error) bool {
	return hasCode(err, ErrCodeNonPositiveIdentifier)
}

// IsNonMonotonicIdentifiers returns true if new identifiers did not
// strictly increase.
func IsNonMonotonicIdentifiers(err error) bool {
	return hasCode(err, ErrCodeNonMonotonicIdentifiers)
}

// IsOutsideCollision returns true if a new identifier was held outside the
// group.
func IsOutsideCollision(err error) bool {
	return hasCode(err, ErrCodeOutsideCollision)
}

// Code returns the error code of err, or "" when err is not a
// RenumberError.
func Code(err error) RenumberErrorCode {
	var re *RenumberError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
