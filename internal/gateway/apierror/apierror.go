// Package apierror defines the closed set of client-facing failures the
// gateway is allowed to surface. Every variant carries a fixed HTTP status
// code and status tag; anything outside the set is reported to clients as an
// opaque internal error by the server's failure handler.
package apierror

import "net/http"

// Kind identifies one failure variant. The set is closed: new client-facing
// failures get a new Kind, existing kinds are never overloaded.
type Kind int

const (
	KindBadRequest Kind = iota
	KindNotFound
	KindNotAuthorized
	KindPayloadTooLarge
)

// statusCodes is the fixed Kind -> HTTP status mapping. Serialization reads
// from this table only, never from caller input.
var statusCodes = map[Kind]int{
	KindBadRequest:      http.StatusBadRequest,
	KindNotFound:        http.StatusNotFound,
	KindNotAuthorized:   http.StatusUnauthorized,
	KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
}

// statusTag is shared by all current variants.
const statusTag = "error"

// Error is one member of the taxonomy. Immutable once constructed.
type Error struct {
	kind    Kind
	message string
}

// Serialized is the wire representation written to clients.
type Serialized struct {
	Message    string `json:"message"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

func BadRequest(message string) *Error {
	return &Error{kind: KindBadRequest, message: message}
}

func NotFound(message string) *Error {
	return &Error{kind: KindNotFound, message: message}
}

func NotAuthorized(message string) *Error {
	return &Error{kind: KindNotAuthorized, message: message}
}

func PayloadTooLarge(message string) *Error {
	return &Error{kind: KindPayloadTooLarge, message: message}
}

func (e *Error) Error() string { return e.message }

func (e *Error) Kind() Kind { return e.kind }

// StatusCode returns the fixed HTTP status for this variant.
func (e *Error) StatusCode() int { return statusCodes[e.kind] }

// Status returns the fixed status tag for this variant.
func (e *Error) Status() string { return statusTag }

// Serialize produces the wire form. The status code and tag come from the
// variant table, regardless of message content.
func (e *Error) Serialize() Serialized {
	return Serialized{
		Message:    e.message,
		Status:     statusTag,
		StatusCode: statusCodes[e.kind],
	}
}
