/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

// Error is the body of an error response, wrapped into {"error": ...} on the wire.
type Error struct {
	Domain  string                 `json:"domain"`
	Code    string                 `json:"code"`
	Message string                 `json:"message,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error codes of the status server.
const (
	ErrCodeInternal         = "internalError"
	ErrCodeNotFound         = "notFound"
	ErrCodeMethodNotAllowed = "methodNotAllowed"
	ErrCodeNotStreamable    = "notStreamable"
)

var defaultErrMessages = map[string]string{
	ErrCodeInternal:         "Internal error.",
	ErrCodeNotFound:         "Not found.",
	ErrCodeMethodNotAllowed: "Method not allowed.",
	ErrCodeNotStreamable:    "Streaming is not supported.",
}

// NewError creates an Error. An empty message is replaced with the default one for known codes.
func NewError(domain, code, message string) *Error {
	if message == "" {
		message = defaultErrMessages[code]
	}
	return &Error{Domain: domain, Code: code, Message: message}
}

// NewInternalError creates an Error with ErrCodeInternal.
func NewInternalError(domain string) *Error {
	return NewError(domain, ErrCodeInternal, "")
}

// WithContext sets the context field and returns the same error.
func (e *Error) WithContext(field string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[field] = value
	return e
}
