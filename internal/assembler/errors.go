package assembler

import "errors"

// ErrInvalidState is returned when AddRow or Finalize is called out of
// order: rows after Finalize, or Finalize before any row or twice.
var ErrInvalidState = errors.New("assembler: call out of order")
