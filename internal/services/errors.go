package services

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned by insight helpers handed an empty grouped
// input. The pipeline short-circuits empty views before insights run,
// so hitting it means a caller skipped that check.
var ErrEmptyInput = errors.New("empty grouped input")

// DataFormatError reports a source file that cannot be loaded: a
// missing required column, or a date/number that does not parse. Fatal
// at load time; there is no retry.
type DataFormatError struct {
	Path   string
	Line   int // 0 when the problem is structural (header, empty file)
	Detail string
	Cause  error
}

func (e *DataFormatError) Error() string {
	msg := fmt.Sprintf("bad data in %s", e.Path)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s line %d", msg, e.Line)
	}
	msg = msg + ": " + e.Detail
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *DataFormatError) Unwrap() error {
	return e.Cause
}
