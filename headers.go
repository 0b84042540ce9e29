// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import (
	"strings"

	"github.com/intuitivelabs/bytescase"
)

// HeaderPair records one header line exactly as received (original-case
// name, trimmed value), in appearance order (spec §3).
type HeaderPair struct {
	Name  string
	Value string
}

// Headers is the normalized header map: lowercase ASCII name to either a
// single value or an ordered list of values for repeated names (spec §3).
// Insertion order of distinct keys is preserved via Order.
type Headers struct {
	Order  []string            // distinct lowercase keys, insertion order
	Single map[string]string   // keys with exactly one value
	Multi  map[string][]string // keys with two or more values, in order
	Raw    []HeaderPair         // every header line as received
}

// NewHeaders returns an empty Headers value ready for use.
func NewHeaders() *Headers {
	return &Headers{
		Single: make(map[string]string),
		Multi:  make(map[string][]string),
	}
}

// Values returns all values for key (case-insensitive lookup expects key to
// already be lowercase), in appearance order.
func (h *Headers) Values(key string) []string {
	if v, ok := h.Multi[key]; ok {
		return v
	}
	if v, ok := h.Single[key]; ok {
		return []string{v}
	}
	return nil
}

// Get returns the first value for key, and whether key is present.
func (h *Headers) Get(key string) (string, bool) {
	if v, ok := h.Single[key]; ok {
		return v, true
	}
	if v, ok := h.Multi[key]; ok && len(v) > 0 {
		return v[0], true
	}
	return "", false
}

// Count returns the number of repeated-name values stored for key.
func (h *Headers) Count(key string) int {
	if v, ok := h.Multi[key]; ok {
		return len(v)
	}
	if _, ok := h.Single[key]; ok {
		return 1
	}
	return 0
}

func (h *Headers) insert(key, value string) {
	if _, ok := h.Multi[key]; ok {
		h.Multi[key] = append(h.Multi[key], value)
		return
	}
	if existing, ok := h.Single[key]; ok {
		delete(h.Single, key)
		h.Multi[key] = []string{existing, value}
		return
	}
	h.Single[key] = value
	h.Order = append(h.Order, key)
}

// headerPhase is the incremental header-decoder phase (spec §4.3).
type headerPhase uint8

const (
	headerPhaseLine headerPhase = iota
	headerPhaseDone
)

// headerDecoder incrementally accumulates header lines from a residual
// buffer until the terminating empty line, enforcing the limits in
// spec §4.3/§6. Grounded on parse_headers.go's ParseHeaders/ParseHdrLine
// loop, generalized from the teacher's fixed first-header-of-type table to
// the map-of-lists model spec §3 requires.
type headerDecoder struct {
	phase       headerPhase
	headers     *Headers
	headerBytes int // cumulative byte count toward limits.MaxHeaderBytes
	limits      *Limits
}

func newHeaderDecoder(limits *Limits) *headerDecoder {
	return &headerDecoder{headers: NewHeaders(), limits: limits}
}

// decode consumes as many complete header lines as are available starting
// at offs in buf, returning the new offset and an error. ErrMoreBytes means
// the decoder should be called again once more bytes are appended to buf
// (offs unchanged conceptually — callers pass back the returned offset,
// which points at the start of the not-yet-parsed line).
//
// onLine, if non-nil, is invoked once per newly accumulated header line
// (spec §4.6's one header-line event per line, not per call).
func (d *headerDecoder) decode(buf []byte, offs int, onLine func(name, value string)) (int, *Error) {
	if d.phase == headerPhaseDone {
		return offs, nil
	}
	i := offs
	for {
		lineEnd, next, code := readLine(buf, i, d.limits.MaxHeaderLineBytes)
		if code == ErrMoreBytes {
			return i, &Error{Code: ErrMoreBytes}
		}
		if code == ErrLineTooLarge {
			return i, NewError(ErrHeaderLineTooLarge, "header line exceeds configured limit")
		}

		line := buf[i:lineEnd]
		if len(line) == 0 {
			d.phase = headerPhaseDone
			return next, nil
		}

		name, value, perr := parseHeaderLine(line)
		if perr != nil {
			return i, perr
		}

		d.headerBytes += len(line)
		if d.headerBytes > d.limits.MaxHeaderBytes {
			return i, NewError(ErrHeaderTooLarge, "cumulative header bytes exceed configured limit")
		}
		if len(name) > d.limits.MaxHeaderNameBytes {
			return i, NewError(ErrHeaderNameTooLarge, "header name exceeds configured limit")
		}
		if len(value) > d.limits.MaxHeaderValueBytes {
			return i, NewError(ErrHeaderValueTooLarge, "header value exceeds configured limit")
		}

		lowerName := asciiLower(name)
		d.headers.insert(string(lowerName), string(value))
		d.headers.Raw = append(d.headers.Raw, HeaderPair{Name: string(name), Value: string(value)})
		if len(d.headers.Raw) > d.limits.MaxHeaderCount {
			return i, NewError(ErrHeaderTooMany, "header count exceeds configured limit")
		}

		if onLine != nil {
			onLine(string(name), string(value))
		}
		i = next
	}
}

// parseHeaderLine splits a single header line on the first colon and
// validates the name against the RFC 7230 token grammar (spec §4.3 step 4).
func parseHeaderLine(line []byte) (name, value []byte, err *Error) {
	// Obsolete line folding: a continuation line begins with SP/HT and is
	// rejected as ErrInvalidHeader, whether or not it contains a colon.
	if len(line) > 0 && isHTSP(line[0]) {
		return nil, nil, NewError(ErrInvalidHeader, "obsolete header line folding: "+truncateForDiag(string(line)))
	}
	colon := -1
	for i, c := range line {
		if c == ':' {
			colon = i
			break
		}
	}
	if colon <= 0 {
		return nil, nil, NewError(ErrInvalidHeader, "missing or empty header name: "+truncateForDiag(string(line)))
	}
	name = trimHTSP(line[:colon])
	value = trimHTSP(line[colon+1:])
	if len(name) == 0 {
		return nil, nil, NewError(ErrInvalidHeader, "empty header name")
	}
	for _, c := range name {
		if !isTokenChar(c) {
			return nil, nil, NewError(ErrInvalidHeader, "invalid header name byte: "+truncateForDiag(string(name)))
		}
	}
	return name, value, nil
}

func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = bytescase.ByteToLower(c)
	}
	return out
}

// FoldValues returns all values for a (possibly repeated) header joined
// with ", " — the representation spec §4.5 step on trailer duplicates
// requires and a convenience for any other repeated-name header.
func FoldValues(vals []string) string {
	return strings.Join(vals, ", ")
}
