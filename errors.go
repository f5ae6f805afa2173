package arbor

import (
	"strings"

	"github.com/pkg/errors"
)

// Error kinds. Every error produced by arbor (other than errors returned by
// visitors) matches exactly one of these with errors.Is.
var (
	// ErrConfiguration reports a member carrying more than one marker.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidOrder reports an ordering directive that does not match the
	// classified members of its type.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrAccess reports a get, set or construct failure of an accessor backend.
	ErrAccess = errors.New("access error")

	// ErrCache reports a tree cache load that failed.
	ErrCache = errors.New("cache error")

	// ErrUnsupportedOperation reports a visitor invoked with an operation it
	// does not implement.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Error carries the kind of a failure together with the type and member it
// concerns and the underlying cause.
type Error struct {
	// Kind is one of the Err* sentinels.
	Kind error

	// Type is the owning type name, if known.
	Type string

	// Member is the member or path, if known.
	Member string

	// Err is the underlying cause. May be nil.
	Err error
}

// NewError creates an Error of the given kind.
func NewError(kind error, typ, member string, cause error) *Error {
	return &Error{Kind: kind, Type: typ, Member: member, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Type != "" || e.Member != "" {
		b.WriteString(": ")
		b.WriteString(e.Type)
		if e.Type != "" && e.Member != "" {
			b.WriteByte('.')
		}
		b.WriteString(e.Member)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Cause returns the underlying cause for github.com/pkg/errors.Cause.
func (e *Error) Cause() error {
	return e.Err
}

// ConfigurationError reports an ambiguous member.
func ConfigurationError(typ, member string, cause error) error {
	return NewError(ErrConfiguration, typ, member, cause)
}

// InvalidOrderError reports a mismatched ordering directive.
func InvalidOrderError(typ string, cause error) error {
	return NewError(ErrInvalidOrder, typ, "", cause)
}

// AccessError reports an accessor failure.
func AccessError(typ, member string, cause error) error {
	return NewError(ErrAccess, typ, member, cause)
}

// CacheError wraps a failed cache load.
func CacheError(typ string, cause error) error {
	return NewError(ErrCache, typ, "", cause)
}

// UnsupportedOperationError reports a visitor operation that is not implemented.
func UnsupportedOperationError(visitor, op string) error {
	return NewError(ErrUnsupportedOperation, visitor, op, nil)
}

// KindOf returns the sentinel kind of err, or nil if err is not an arbor error.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
