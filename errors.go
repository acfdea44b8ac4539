package problem

import "fmt"

// DecodeError reports input that is not syntactically valid in the declared
// format. It wraps the underlying codec diagnostic.
type DecodeError struct {
	Format Format
	err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("problem: decode %s: %v", e.Format, e.err)
}

// Unwrap returns the codec diagnostic.
func (e *DecodeError) Unwrap() error {
	return e.err
}

// SchemaError reports a standard member that is present with a value of the
// wrong kind, such as a status carried as a string.
type SchemaError struct {
	// Field is the offending member name.
	Field string
	// Kind is the expected kind of the member.
	Kind string

	err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("problem: member %q is not a valid %s", e.Field, e.Kind)
}

// Unwrap returns the conversion diagnostic, when one exists.
func (e *SchemaError) Unwrap() error {
	return e.err
}

// ExtensionDecodeError reports that the extension payload failed to decode
// from the residual members. It wraps the payload's own diagnostic.
type ExtensionDecodeError struct {
	err error
}

func (e *ExtensionDecodeError) Error() string {
	return fmt.Sprintf("problem: decode extensions: %v", e.err)
}

// Unwrap returns the payload diagnostic.
func (e *ExtensionDecodeError) Unwrap() error {
	return e.err
}
