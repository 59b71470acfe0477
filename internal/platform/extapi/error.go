package extapi

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call to ECCR, XDS or ELRR. Callers branch on the
// kind rather than on concrete error types.
type Kind string

const (
	// KindNotFound: a catalog lookup answered 404 for the reference.
	KindNotFound Kind = "not_found"
	// KindMalformedResponse: a catalog lookup answered 200 with an unusable body.
	KindMalformedResponse Kind = "malformed_response"
	// KindUpstreamUnavailable: transport failure, timeout, or an unexpected status.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindRemoteRejected: ELRR refused a create.
	KindRemoteRejected Kind = "remote_rejected"
	// KindInvalidRemoteResponse: ELRR answered success but the document fails validation.
	KindInvalidRemoteResponse Kind = "invalid_remote_response"
	// KindPreconditionFailed: the caller handed over a document that cannot be sent.
	KindPreconditionFailed Kind = "precondition_failed"
	// KindRemoteNotFound: an ELRR record addressed by id does not exist.
	KindRemoteNotFound Kind = "remote_not_found"
)

type Error struct {
	Kind       Kind
	Service    string
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "external call failed"
	}
	head := fmt.Sprintf("%s %s failed (kind=%s status=%d)", e.Service, e.Op, e.Kind, e.StatusCode)
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", head, e.Message, e.Cause)
	case e.Message != "":
		return head + ": " + e.Message
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", head, e.Cause)
	default:
		return head
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// HTTPStatusCode reports the upstream status, zero when no response arrived.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func NewError(kind Kind, service, op string, status int, msg string, cause error) *Error {
	return &Error{Kind: kind, Service: service, Op: op, StatusCode: status, Message: msg, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
