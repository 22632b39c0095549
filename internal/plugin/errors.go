package plugin

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of protocol failures a caller can see.
type ErrorKind int

// Error kinds, in the order they are checked while routing.
const (
	BadBodyFormat ErrorKind = iota + 1
	ActionNotFound
	BadAction
	BadOpName
	BadOpInfo
	BadReqInfoFormat
	UnknownOpName
	BadResponse
)

type kindDef struct {
	code   string
	reason string
	status int
}

var kindTable = map[ErrorKind]kindDef{
	BadBodyFormat:    {"BadBodyFormat", "Bad Request Body Format", http.StatusBadRequest},
	ActionNotFound:   {"ActionNotFound", "Bad Request Body Format (No Action)", http.StatusBadRequest},
	BadAction:        {"BadAction", "Bad Action", http.StatusBadRequest},
	BadOpName:        {"BadOpName", "Operation Name Not Defined", http.StatusBadRequest},
	BadOpInfo:        {"BadOpInfo", "Operation Info Not Found", http.StatusBadRequest},
	BadReqInfoFormat: {"BadReqInfoFormat", "Bad Request Info Format", http.StatusOK},
	UnknownOpName:    {"UnknownOpName", "Unknown Operation Name", http.StatusOK},
	BadResponse:      {"BadResponse", "Bad Response", http.StatusOK},
}

// Code returns the wire code, e.g. "BadAction".
func (k ErrorKind) Code() string {
	if s, ok := kindTable[k]; ok {
		return s.code
	}
	return "Unknown"
}

// Reason returns the default human-readable reason.
func (k ErrorKind) Reason() string {
	if s, ok := kindTable[k]; ok {
		return s.reason
	}
	return "Unknown Error"
}

// HTTPStatus returns the transport status used when the failure is returned.
// Only malformed envelopes use a client-error status.
func (k ErrorKind) HTTPStatus() int {
	if s, ok := kindTable[k]; ok {
		return s.status
	}
	return http.StatusOK
}

func (k ErrorKind) String() string {
	return k.Code()
}

// Failure is the wire form of a protocol error.
type Failure struct {
	OK     bool   `json:"ok"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Failure builds the response body for k.
func (k ErrorKind) Failure() Failure {
	return Failure{OK: false, Code: k.Code(), Reason: k.Reason()}
}

// Error is returned by operations to select the failure kind sent to the caller.
// Err carries the underlying cause for logs and is never serialized.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Code()
	}
	return fmt.Sprintf("%s: %v", e.Kind.Code(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind carried by err, or BadResponse when err is not an *Error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return BadResponse
}
