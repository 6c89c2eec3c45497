package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error carries field-specific validation messages keyed by field name.
type Error struct {
	Fields map[string]string
}

// Error renders the field messages in field-name order, so the same
// validation failure always produces the same text.
func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether the error carries a message for the given field.
func (e *Error) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Only reports whether the given field is the sole failing field.
func (e *Error) Only(field string) bool {
	return len(e.Fields) == 1 && e.Has(field)
}
