package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ErrorKind names a failure class. The kind is carried as the message
// prefix of an errbuilder error.
type ErrorKind string

const (
	ErrorKindNone                  ErrorKind = ""
	ErrorKindMalformedArchive      ErrorKind = "malformed archive"
	ErrorKindExtraction            ErrorKind = "extraction failed"
	ErrorKindPathTraversalRejected ErrorKind = "path traversal rejected"
	ErrorKindWrite                 ErrorKind = "write failed"
	ErrorKindFetch                 ErrorKind = "fetch failed"
)

var kindCodes = map[ErrorKind]errbuilder.ErrCode{
	ErrorKindMalformedArchive:      errbuilder.CodeInvalidArgument,
	ErrorKindExtraction:            errbuilder.CodeFailedPrecondition,
	ErrorKindPathTraversalRejected: errbuilder.CodePermissionDenied,
	ErrorKindWrite:                 errbuilder.CodeInternal,
	ErrorKindFetch:                 errbuilder.CodeInternal,
}

// NewKindError builds an errbuilder error whose message is prefixed with
// the kind. The cause's message is appended so it survives printing of the
// message alone.
func NewKindError(kind ErrorKind, detail string, cause error) error {
	msg := string(kind)
	if strings.TrimSpace(detail) != "" {
		msg = fmt.Sprintf("%s: %s", kind, detail)
	}
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, Message(cause))
	}
	builder := errbuilder.New().
		WithCode(kindCodes[kind]).
		WithMsg(msg)
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

// KindOf recovers the kind of an error built by NewKindError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindNone
	}
	var builder *errbuilder.ErrBuilder
	if !errors.As(err, &builder) {
		return ErrorKindNone
	}
	for _, kind := range []ErrorKind{
		ErrorKindMalformedArchive,
		ErrorKindExtraction,
		ErrorKindPathTraversalRejected,
		ErrorKindWrite,
		ErrorKindFetch,
	} {
		if strings.HasPrefix(builder.Msg, string(kind)) {
			return kind
		}
	}
	return ErrorKindNone
}

// Message returns the builder message of err, or err.Error() for errors
// not built with errbuilder.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
