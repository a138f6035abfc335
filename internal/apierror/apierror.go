// Package apierror defines the single canonical error type surfaced across
// every component boundary: client protocol responses, the error registry,
// and daemon startup failures.
package apierror

import "fmt"

// Error is an RFC-7807-flavored error record. Fatal indicates emulation
// cannot continue (virtual device setup failure, socket bind failure).
type Error struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Fatal  bool   `json:"fatal"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Detail == "" {
		return e.Title
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func BadRequest(detail string) *Error   { return &Error{Status: 400, Title: "Bad Request", Detail: detail} }
func NotFound(detail string) *Error     { return &Error{Status: 404, Title: "Not Found", Detail: detail} }
func Conflict(detail string) *Error     { return &Error{Status: 409, Title: "Conflict", Detail: detail} }
func Unauthorized(detail string) *Error {
	return &Error{Status: 401, Title: "Unauthorized", Detail: detail}
}
func Internal(detail string) *Error {
	return &Error{Status: 500, Title: "Internal Server Error", Detail: detail}
}

// Fatal builds an error record marking emulation as impossible, for the
// daemon's error registry and its startup failure path.
func Fatal(id, detail string) *Error {
	return &Error{Status: 500, Title: id, Detail: detail, Fatal: true}
}

// Wrap normalizes any error into *Error, never passing a bare error across
// a component boundary.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		return ae
	}
	return Internal(err.Error())
}
