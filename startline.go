// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import "github.com/intuitivelabs/bytescase"

// httpVerPrefix is the "HTTP/" token every status line (and version token)
// starts with. Matched case-insensitively, grounded on parse_fline.go's
// httpVerPref/bytescase.Prefix use.
var httpVerPrefix = []byte("HTTP/")

// RequestLine is a parsed request start line (spec §3).
type RequestLine struct {
	Method     string // upper-cased for matching
	MethodNo   Method
	Path       string
	Version    string
	HTTPMinor  int // 0 for HTTP/1.0, 1 for HTTP/1.1
	Raw        string
}

// ResponseLine is a parsed response start line (spec §3).
type ResponseLine struct {
	Version    string
	HTTPMinor  int
	StatusCode int
	Reason     string
	Raw        string
}

var defaultReasons = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	426: "Upgrade Required",
	429: "Too Many Requests",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}

// reasonFor returns the well-known default reason phrase for code, or
// "Unknown" if code isn't in the table (spec §4.2).
func reasonFor(code int) string {
	if r, ok := defaultReasons[code]; ok {
		return r
	}
	return "Unknown"
}

// parseHTTPVersion validates that tok is exactly "HTTP/1.0" or "HTTP/1.1"
// (case-insensitive) and returns the minor version number.
func parseHTTPVersion(tok []byte) (minor int, ok bool) {
	if len(tok) != 8 {
		return 0, false
	}
	if _, match := bytescase.Prefix(httpVerPrefix, tok); !match {
		return 0, false
	}
	if tok[5] != '1' || tok[6] != '.' {
		return 0, false
	}
	switch tok[7] {
	case '0':
		return 0, true
	case '1':
		return 1, true
	}
	return 0, false
}

// parseRequestLine parses a complete request-line (no trailing CRLF) per
// spec §4.2: split on ASCII spaces into exactly three tokens, tolerating
// runs of multiple spaces between them and surrounding whitespace on the
// line as a whole.
func parseRequestLine(line []byte) (*RequestLine, *Error) {
	raw := string(line)
	trimmed := trimHTSP(line)
	if len(trimmed) == 0 {
		return nil, NewError(ErrInvalidStartLine, "empty request line")
	}

	method, rest, ok := cutSpaceRun(trimmed)
	if !ok || len(method) == 0 {
		return nil, NewError(ErrInvalidStartLine, "malformed request line: "+truncateForDiag(raw))
	}
	target, rest, ok := cutSpaceRun(rest)
	if !ok || len(target) == 0 {
		return nil, NewError(ErrInvalidStartLine, "malformed request line: "+truncateForDiag(raw))
	}
	if containsSpace(target) {
		return nil, NewError(ErrInvalidStartLine, "request target contains embedded whitespace")
	}
	version := trimHTSP(rest)
	if len(version) == 0 || containsSpace(version) {
		return nil, NewError(ErrInvalidStartLine, "malformed request line: "+truncateForDiag(raw))
	}

	minor, okVer := parseHTTPVersion(version)
	if !okVer {
		if _, match := bytescase.Prefix(httpVerPrefix, version); match {
			return nil, NewErrorf(ErrUnsupportedHTTPVersion, "unsupported HTTP version: %s", truncateForDiag(string(version)))
		}
		return nil, NewError(ErrInvalidStartLine, "malformed request line: "+truncateForDiag(raw))
	}

	upperMethod := make([]byte, len(method))
	for i, c := range method {
		upperMethod[i] = bytescase.ByteToUpper(c)
	}

	return &RequestLine{
		Method:    string(upperMethod),
		MethodNo:  GetMethodNo(upperMethod),
		Path:      string(target),
		Version:   "HTTP/1." + string(rune('0'+minor)),
		HTTPMinor: minor,
		Raw:       raw,
	}, nil
}

// parseStatusLine parses a complete status-line (no trailing CRLF) per
// spec §4.2.
func parseStatusLine(line []byte) (*ResponseLine, *Error) {
	raw := string(line)
	trimmed := trimHTSP(line)

	verTok, rest, ok := cutSpaceRun(trimmed)
	if !ok {
		return nil, NewError(ErrInvalidStartLine, "malformed status line: "+truncateForDiag(raw))
	}
	minor, okVer := parseHTTPVersion(verTok)
	if !okVer {
		if _, match := bytescase.Prefix(httpVerPrefix, verTok); match {
			return nil, NewErrorf(ErrUnsupportedHTTPVersion, "unsupported HTTP version: %s", truncateForDiag(string(verTok)))
		}
		return nil, NewError(ErrInvalidStartLine, "malformed status line: "+truncateForDiag(raw))
	}

	codeTok, rest, _ := cutSpaceRun(rest)
	if len(codeTok) != 3 {
		return nil, NewError(ErrInvalidStatusCode, "malformed status code: "+truncateForDiag(string(codeTok)))
	}
	code := 0
	for _, c := range codeTok {
		if c < '0' || c > '9' {
			return nil, NewError(ErrInvalidStatusCode, "malformed status code: "+truncateForDiag(string(codeTok)))
		}
		code = code*10 + int(c-'0')
	}
	if code < 100 || code > 599 {
		return nil, NewErrorf(ErrInvalidStatusCode, "status code out of range: %d", code)
	}

	reason := string(trimHTSP(rest))
	if reason == "" {
		reason = reasonFor(code)
	}

	return &ResponseLine{
		Version:    "HTTP/1." + string(rune('0'+minor)),
		HTTPMinor:  minor,
		StatusCode: code,
		Reason:     reason,
		Raw:        raw,
	}, nil
}

// cutSpaceRun splits b at the first ASCII space, returning the token before
// it and the remainder after skipping any further consecutive spaces
// (tolerating runs of multiple spaces per spec §4.2). ok is false if no
// space was found.
func cutSpaceRun(b []byte) (tok, rest []byte, ok bool) {
	i := 0
	for i < len(b) && b[i] != ' ' {
		i++
	}
	if i >= len(b) {
		return b, nil, false
	}
	tok = b[:i]
	for i < len(b) && b[i] == ' ' {
		i++
	}
	return tok, b[i:], true
}

func containsSpace(b []byte) bool {
	for _, c := range b {
		if c == ' ' || c == '\t' {
			return true
		}
	}
	return false
}
