package dataset

import (
	"errors"
	"fmt"
)

// ErrSchema matches any SchemaError.
var ErrSchema = errors.New("schema error")

// SchemaError reports a column that is absent, unexpected, or holds the
// wrong kind of value.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: column %q: %s", e.Column, e.Reason)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
