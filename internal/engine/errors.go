package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Every failure an operation can produce maps to exactly one of these
// kinds; the HTTP boundary translates kinds to status codes. None of them
// is retryable and none is fatal to the process.
var (
	// ErrEmptyCatalog signals that the catalog holds zero categories.
	ErrEmptyCatalog = errors.New("no categories in catalog")

	// ErrEmptyPage signals that the requested page window holds no
	// questions, including pages past the end of the listing.
	ErrEmptyPage = errors.New("page has no questions")

	// ErrNoMatch signals that a category filter matched zero questions.
	ErrNoMatch = errors.New("no questions match")

	// ErrNotFound signals that an addressed question id does not exist.
	ErrNotFound = errors.New("question not found")

	// ErrPersistence wraps a write the store rejected (bad category
	// reference, type mismatch, storage failure).
	ErrPersistence = errors.New("store rejected operation")
)

// ValidationError lists the fields of a request that failed the schema
// check. Callers must fix the input; retrying is pointless.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fields: %s", strings.Join(e.Fields, ", "))
}
