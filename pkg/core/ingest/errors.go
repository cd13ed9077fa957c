package ingest

import (
	"errors"
	"fmt"
)

var (
	errNotNumeric = errors.New("not a number")

	// ErrEmptyDocument is returned when a document yields neither text nor
	// tables.
	ErrEmptyDocument = errors.New("document contains no extractable content")
)

// UnrecognizedStatementError is returned when none of the tables in a
// document can be classified as a financial statement.
type UnrecognizedStatementError struct {
	Tables int
}

func (e *UnrecognizedStatementError) Error() string {
	return fmt.Sprintf("none of %d tables is a recognizable financial statement", e.Tables)
}

// DocumentError wraps a failure of the underlying document reader.
type DocumentError struct {
	Format string
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s parse error: %v", e.Format, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
