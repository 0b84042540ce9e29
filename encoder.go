// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import (
	"io"
	"strconv"

	"github.com/intuitivelabs/bytescase"
)

// hopByHop lists the header names stripped by the encoder (spec §4.7 step
//2, GLOSSARY "Hop-by-hop header"). Content-Length and Transfer-Encoding are
// included because the encoder recomputes them itself from the body.
var hopByHop = [][]byte{
	[]byte("connection"),
	[]byte("keep-alive"),
	[]byte("proxy-authenticate"),
	[]byte("proxy-authorization"),
	[]byte("te"),
	[]byte("trailer"),
	[]byte("transfer-encoding"),
	[]byte("upgrade"),
	[]byte("content-length"),
}

// isHopByHop reports whether name (any case) names a hop-by-hop header,
// matched case-insensitively via the teacher's bytescase comparator
// (grounded on parse_tr_enc.go's bytescase.CmpEq use for token matching).
func isHopByHop(name string) bool {
	b := []byte(name)
	for _, h := range hopByHop {
		if bytescase.CmpEq(b, h) {
			return true
		}
	}
	return false
}

// Body is a request body: either a fully materialized byte blob, or a
// streaming source read incrementally and re-framed as chunked output
// (spec §4.7 step 4). Exactly one of Bytes or Stream should be set.
type Body struct {
	Bytes  []byte
	Stream io.Reader
}

// Request is the typed message the encoder serializes (spec §4.7).
type Request struct {
	Method  string
	Path    string
	Version string // defaults to "HTTP/1.1" when empty
	Headers *Headers
	Body    *Body
	// Trailers, if non-empty, are emitted after the terminal zero-length
	// chunk of a chunked body (ignored for non-chunked bodies).
	Trailers []HeaderPair
}

// RequestEncoder produces a lazy sequence of framed byte buffers for one
// Request (spec §4.7). Grounded on shapestone-shape-http's encode.go
// (appendRequestLine/appendHeaders/auto Content-Length) for the head, and
// on the chunk-writer pattern of framing each source buffer as
// "HEX CRLF data CRLF" with a final "0 CRLF" + trailers + blank CRLF.
// Unlike the teacher's push-to-io.Writer style, this pulls buffers one at a
// time via Next so a caller can interleave writes with its own I/O loop.
type RequestEncoder struct {
	req       *Request
	chunkSize int

	headSent bool
	head     []byte

	chunking   bool
	bodyLength int64 // valid when chunking is false and a stream or byte body is present

	bytesSent bool // Body.Bytes path

	streamBuf  []byte // scratch read buffer for Body.Stream
	streamDone bool
	streamRaw  int64 // bytes already emitted for a non-chunked stream with known length
}

// NewRequestEncoder validates req and precomputes its head (start line plus
// normalized, framed headers). The body itself is produced lazily by Next.
func NewRequestEncoder(req *Request, limits Limits) (*RequestEncoder, *Error) {
	if req.Method == "" {
		return nil, NewError(ErrInvalidStartLine, "request method is empty")
	}
	if req.Path == "" {
		return nil, NewError(ErrInvalidStartLine, "request path is empty")
	}
	version := req.Version
	if version == "" {
		version = "HTTP/1.1"
	}

	chunkSize := limits.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 8 * 1024
	}

	enc := &RequestEncoder{req: req, chunkSize: chunkSize}

	var declaredCL int64 = -1
	if req.Headers != nil {
		if v, ok := req.Headers.Get("content-length"); ok {
			if n, ok2 := parseContentLength(v); ok2 {
				declaredCL = n
			}
		}
	}

	switch {
	case req.Body == nil:
		// no framing header
	case req.Body.Stream != nil:
		if declaredCL >= 0 {
			enc.bodyLength = declaredCL
		} else {
			enc.chunking = true
		}
	case len(req.Body.Bytes) > 0:
		enc.bodyLength = int64(len(req.Body.Bytes))
	}

	enc.head = buildHead(req.Method, req.Path, version, req.Headers, enc.chunking, enc.bodyLength)
	return enc, nil
}

// buildHead renders the start line and the filtered, framed header block
// followed by the blank CRLF that separates headers from body.
func buildHead(method, path, version string, headers *Headers, chunking bool, bodyLength int64) []byte {
	var buf []byte
	buf = append(buf, method...)
	buf = append(buf, ' ')
	buf = append(buf, path...)
	buf = append(buf, ' ')
	buf = append(buf, version...)
	buf = append(buf, '\r', '\n')

	if headers != nil {
		for _, h := range headers.Raw {
			if isHopByHop(h.Name) {
				continue
			}
			buf = append(buf, h.Name...)
			buf = append(buf, ':', ' ')
			buf = append(buf, h.Value...)
			buf = append(buf, '\r', '\n')
		}
	}

	switch {
	case chunking:
		buf = append(buf, "Transfer-Encoding: chunked\r\n"...)
	case bodyLength > 0:
		buf = append(buf, "Content-Length: "...)
		buf = strconv.AppendInt(buf, bodyLength, 10)
		buf = append(buf, '\r', '\n')
	}

	buf = append(buf, '\r', '\n')
	return buf
}

// Next returns the next wire-format buffer. hasMore is true when a
// subsequent call will produce more output. Calling Next after hasMore has
// been returned false is a programmer error.
func (e *RequestEncoder) Next() (buf []byte, hasMore bool, err *Error) {
	if !e.headSent {
		e.headSent = true
		return e.head, e.bodyRemains(), nil
	}

	if e.req.Body == nil {
		panic("httpwire: Next called with no body remaining")
	}
	if e.req.Body.Stream != nil {
		return e.nextStreamChunk()
	}
	return e.nextBytesBody()
}

func (e *RequestEncoder) bodyRemains() bool {
	if e.req.Body == nil {
		return false
	}
	if e.req.Body.Stream != nil {
		return true
	}
	return len(e.req.Body.Bytes) > 0
}

func (e *RequestEncoder) nextBytesBody() ([]byte, bool, *Error) {
	if e.bytesSent {
		panic("httpwire: Next called after body was fully emitted")
	}
	e.bytesSent = true
	return e.req.Body.Bytes, false, nil
}

// nextStreamChunk reads one source buffer (at most chunkSize bytes) from
// Body.Stream and emits it either as a raw fixed-length fragment (when the
// caller declared Content-Length up front) or as one chunked-encoding
// segment "HEX CRLF data CRLF" (spec §4.7 step 4).
func (e *RequestEncoder) nextStreamChunk() ([]byte, bool, *Error) {
	if e.streamDone {
		panic("httpwire: Next called after stream body was fully emitted")
	}
	if e.streamBuf == nil {
		e.streamBuf = make([]byte, e.chunkSize)
	}

	n, rerr := e.req.Body.Stream.Read(e.streamBuf)
	if n > 0 {
		segment := e.streamBuf[:n]
		if !e.chunking {
			e.streamRaw += int64(n)
			if e.streamRaw >= e.bodyLength {
				e.streamDone = true
			}
			return segment, !e.streamDone, nil
		}
		return appendChunk(nil, segment), true, nil
	}

	if rerr != nil && rerr != io.EOF {
		return nil, false, NewErrorf(ErrInternal, "body stream read error: %s", rerr.Error())
	}

	e.streamDone = true
	if !e.chunking {
		return nil, false, nil
	}
	return e.finalChunk(), false, nil
}

// appendChunk frames one chunk-data segment as "HEX CRLF data CRLF".
func appendChunk(buf []byte, segment []byte) []byte {
	buf = strconv.AppendInt(buf, int64(len(segment)), 16)
	buf = append(buf, '\r', '\n')
	buf = append(buf, segment...)
	buf = append(buf, '\r', '\n')
	return buf
}

// finalChunk renders the terminal zero-length chunk, any trailer lines, and
// the closing blank CRLF.
func (e *RequestEncoder) finalChunk() []byte {
	buf := []byte("0\r\n")
	for _, t := range e.req.Trailers {
		buf = append(buf, t.Name...)
		buf = append(buf, ':', ' ')
		buf = append(buf, t.Value...)
		buf = append(buf, '\r', '\n')
	}
	buf = append(buf, '\r', '\n')
	return buf
}

// EncodeRequest renders req entirely into a single buffer, draining Next
// until exhausted. Convenience for callers that don't need the lazy
// interface (e.g. tests, or small non-streaming requests).
func EncodeRequest(req *Request, limits Limits) ([]byte, *Error) {
	enc, err := NewRequestEncoder(req, limits)
	if err != nil {
		return nil, err
	}
	var out []byte
	for {
		buf, more, err := enc.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, buf...)
		if !more {
			break
		}
	}
	return out, nil
}
