package multiqr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedFormat is returned for a first frame that matches
	// no wire dialect the Decoder accepts.
	ErrUnrecognizedFormat = errors.New("unrecognized frame format")
	// ErrDialectMismatch is returned for a frame that does not match
	// the wire dialect selected by earlier frames.
	ErrDialectMismatch = errors.New("frame does not match transfer dialect")
	// ErrNotImplemented is returned for a dialect and payload type
	// combination that is not supported.
	ErrNotImplemented = errors.New("not implemented")
	// ErrIncomplete is returned when asking for the result of a
	// transfer that has not received all its fragments.
	ErrIncomplete = errors.New("transfer incomplete")
	// ErrNoDialect is returned when creating an Encoder without a
	// wire dialect.
	ErrNoDialect = errors.New("no wire dialect selected")
	// ErrTooLarge is returned when a payload does not fit in the
	// frame length the encoder was given.
	ErrTooLarge = errors.New("payload too large for frame")
)

// PayloadError is the error returned when a payload cannot be parsed
// or serialized as its type.
type PayloadError struct {
	// Type is the payload type being parsed or serialized.
	Type PayloadType
	// Err is the underlying error.
	Err error
}

func (e PayloadError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s", e.Type, e.Err)
}

func (e PayloadError) Unwrap() error {
	return e.Err
}

func payloadErr(t PayloadType, reason string, args ...any) error {
	return PayloadError{t, fmt.Errorf(reason, args...)}
}
