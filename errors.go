// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import "fmt"

// Code is a closed enumeration of decode/encode error codes.
type Code uint8

// Error codes. ErrMoreBytes is not a failure: it signals that the input
// buffer handed to a sub-parser did not contain a complete syntactic unit
// and the same call should be retried once more bytes are appended.
const (
	ErrNone Code = iota
	ErrMoreBytes

	// SYNTAX
	ErrInvalidSyntax
	ErrInvalidHeader
	ErrInvalidStartLine
	ErrInvalidStatusCode
	ErrInvalidChunkSize
	ErrInvalidTrailer

	// SIZE_LIMIT
	ErrLineTooLarge
	ErrStartLineTooLarge
	ErrHeaderLineTooLarge
	ErrHeaderNameTooLarge
	ErrHeaderValueTooLarge
	ErrHeaderTooLarge
	ErrHeaderTooMany
	ErrMessageTooLarge
	ErrChunkSizeTooLarge
	ErrChunkExtensionTooLarge
	ErrTrailerTooLarge
	ErrTrailerTooMany

	// UNSUPPORTED
	ErrUnsupportedFeature
	ErrUnsupportedHTTPVersion
	ErrUnsupportedChunkExtension

	// STATE / SYNTAX (closing errors)
	ErrBodyLengthMismatch
	ErrChunkSizeLineEnding
	ErrTooManyStateTransitions

	// RESOURCE
	ErrParseTimeout
	ErrBufferLimitExceeded

	// INTERNAL
	ErrInternal
)

// Category groups error codes for transport-level policy decisions.
type Category uint8

const (
	CategorySyntax Category = iota
	CategorySizeLimit
	CategoryUnsupported
	CategoryState
	CategoryResource
	CategoryInternal
)

// Disposition advises a transport on how to react to a given error code.
type Disposition uint8

const (
	// RejectMessage means the current message is rejected but the
	// connection may continue with the next message once drained.
	RejectMessage Disposition = iota
	// CloseConnection means the transport must force-close the connection.
	CloseConnection
	// Ignore means the condition is not actionable by the transport.
	Ignore
)

type codeInfo struct {
	category    Category
	disposition Disposition
	name        string
}

var codeTable = map[Code]codeInfo{
	ErrInvalidSyntax:             {CategorySyntax, RejectMessage, "INVALID_SYNTAX"},
	ErrInvalidHeader:             {CategorySyntax, RejectMessage, "INVALID_HEADER"},
	ErrInvalidStartLine:          {CategorySyntax, RejectMessage, "INVALID_START_LINE"},
	ErrInvalidStatusCode:         {CategorySyntax, RejectMessage, "INVALID_STATUS_CODE"},
	ErrInvalidChunkSize:          {CategorySyntax, RejectMessage, "INVALID_CHUNK_SIZE"},
	ErrInvalidTrailer:            {CategorySyntax, RejectMessage, "INVALID_TRAILER"},
	ErrLineTooLarge:              {CategorySizeLimit, RejectMessage, "LINE_TOO_LARGE"},
	ErrStartLineTooLarge:         {CategorySizeLimit, RejectMessage, "START_LINE_TOO_LARGE"},
	ErrHeaderLineTooLarge:        {CategorySizeLimit, RejectMessage, "HEADER_LINE_TOO_LARGE"},
	ErrHeaderNameTooLarge:        {CategorySizeLimit, RejectMessage, "HEADER_NAME_TOO_LARGE"},
	ErrHeaderValueTooLarge:       {CategorySizeLimit, RejectMessage, "HEADER_VALUE_TOO_LARGE"},
	ErrHeaderTooLarge:            {CategorySizeLimit, RejectMessage, "HEADER_TOO_LARGE"},
	ErrHeaderTooMany:             {CategorySizeLimit, RejectMessage, "HEADER_TOO_MANY"},
	ErrMessageTooLarge:           {CategorySizeLimit, RejectMessage, "MESSAGE_TOO_LARGE"},
	ErrChunkSizeTooLarge:         {CategorySizeLimit, RejectMessage, "CHUNK_SIZE_TOO_LARGE"},
	ErrChunkExtensionTooLarge:    {CategorySizeLimit, RejectMessage, "CHUNK_EXTENSION_TOO_LARGE"},
	ErrTrailerTooLarge:           {CategorySizeLimit, RejectMessage, "TRAILER_TOO_LARGE"},
	ErrTrailerTooMany:            {CategorySizeLimit, RejectMessage, "TRAILER_TOO_MANY"},
	ErrUnsupportedFeature:        {CategoryUnsupported, RejectMessage, "UNSUPPORTED_FEATURE"},
	ErrUnsupportedHTTPVersion:    {CategoryUnsupported, RejectMessage, "UNSUPPORTED_HTTP_VERSION"},
	ErrUnsupportedChunkExtension: {CategoryUnsupported, RejectMessage, "UNSUPPORTED_CHUNK_EXTENSION"},
	ErrBodyLengthMismatch:        {CategoryState, CloseConnection, "BODY_LENGTH_MISMATCH"},
	ErrChunkSizeLineEnding:       {CategoryState, CloseConnection, "INVALID_CHUNK_SIZE_LINE_ENDING"},
	ErrTooManyStateTransitions:   {CategoryState, CloseConnection, "TOO_MANY_STATE_TRANSITIONS"},
	ErrParseTimeout:              {CategoryResource, CloseConnection, "PARSE_TIMEOUT"},
	ErrBufferLimitExceeded:       {CategoryResource, CloseConnection, "BUFFER_LIMIT_EXCEEDED"},
	ErrInternal:                  {CategoryInternal, CloseConnection, "INTERNAL_ERROR"},
}

// String returns the error code's canonical name.
func (c Code) String() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	switch c {
	case ErrNone:
		return "OK"
	case ErrMoreBytes:
		return "MORE_BYTES"
	}
	return "UNKNOWN"
}

// Category returns the category for a closed error code.
func (c Code) Category() Category {
	return codeTable[c].category
}

// Disposition returns the transport disposition for a closed error code.
func (c Code) Disposition() Disposition {
	return codeTable[c].disposition
}

// maxDiagLen bounds how much variable-length input (a line prefix, a header
// name) an error message will quote, so diagnostics stay bounded.
const maxDiagLen = 64

func truncateForDiag(s string) string {
	if len(s) <= maxDiagLen {
		return s
	}
	return s[:maxDiagLen] + "...(truncated)"
}

// Error is the concrete error value carried by a terminal decoder or
// encoder state.
type Error struct {
	Code    Code
	Message string
	Cause   error
	Fatal   bool
}

// NewError builds an Error with the default fatal=true policy.
func NewError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Fatal: true}
}

// NewErrorf builds an Error with a formatted message, truncating any
// variable-length fragments passed as %q/%s args is the caller's
// responsibility (see truncateForDiag).
func NewErrorf(code Code, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("httpwire: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error's category.
func (e *Error) Category() Category {
	return e.Code.Category()
}

// Disposition returns the error's transport disposition.
func (e *Error) Disposition() Disposition {
	return e.Code.Disposition()
}

// asError wraps any error as an *Error, preserving the code if it already is
// one; any other error becomes ErrInternal with the original as Cause. The
// message decoder does not call it: its sub-parsers already return *Error.
func asError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: ErrInternal, Message: err.Error(), Cause: err, Fatal: true}
}
