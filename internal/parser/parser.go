// Package parser defines the record-stream contract shared by input formats.
package parser

import (
	"errors"
	"fmt"
)

// RecordReader yields one header record followed by data records.
//
// Next returns io.EOF at end of input. A *RecordError means only the current
// record is unusable and reading may continue; any other error is fatal.
type RecordReader interface {
	Header() ([]string, error)
	Next() ([]string, error)
}

// RecordError reports a record that could not be parsed.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// IsRecordError reports whether err is recoverable per-record.
func IsRecordError(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}
