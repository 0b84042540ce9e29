// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import "testing"

func hasTag(events []Event, tag EventTag) bool {
	for _, e := range events {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

func TestDecodeSimpleGETOneBuffer(t *testing.T) {
	s := NewRequestState(DefaultLimits())
	events := s.Decode([]byte("GET /path HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	if !isMessageFinished(s) {
		t.Fatalf("expected finished, err=%v", s.Err)
	}
	if s.RequestLine.Method != "GET" || s.RequestLine.Path != "/path" || s.RequestLine.HTTPMinor != 1 {
		t.Fatalf("bad request line: %+v", s.RequestLine)
	}
	if v, ok := s.Headers.Get("host"); !ok || v != "example.com" {
		t.Fatalf("bad Host header: %q", v)
	}
	if hasTag(events, EventBodyData) {
		t.Fatalf("no body-data events expected")
	}
	if !hasTag(events, EventMessageComplete) {
		t.Fatalf("expected message-complete event")
	}
}

func TestDecodeFixedLengthPOSTFragmentedByteAtATime(t *testing.T) {
	s := NewRequestState(DefaultLimits())
	full := []byte("POST /api/data HTTP/1.1\r\nHost: example.com\r\nContent-Length: 19\r\n" +
		"Content-Type: application/x-www-form-urlencoded\r\n\r\nname=value&test=123")
	var body []byte
	var totalSize int64
	for i := range full {
		events := s.Decode(full[i : i+1])
		for _, e := range events {
			if e.Tag == EventBodyData {
				body = append(body, e.BodyData...)
			}
			if e.Tag == EventBodyComplete {
				totalSize = e.BodyTotalSize
			}
		}
		if isFinished(s) {
			break
		}
	}
	if !isMessageFinished(s) {
		t.Fatalf("expected finished, err=%v", s.Err)
	}
	if totalSize != 19 {
		t.Fatalf("bad totalSize: %d", totalSize)
	}
	if string(body) != "name=value&test=123" {
		t.Fatalf("bad body: %q", body)
	}
}

func TestDecodeChunkedTwoChunksNoTrailers(t *testing.T) {
	s := NewRequestState(DefaultLimits())
	events := s.Decode([]byte("POST /upload HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nHello\r\n6\r\n World\r\n0\r\n\r\n"))
	if !isMessageFinished(s) {
		t.Fatalf("expected finished, err=%v", s.Err)
	}
	var body []byte
	var totalSize int64
	var trailers map[string]string
	for _, e := range events {
		if e.Tag == EventBodyData {
			body = append(body, e.BodyData...)
		}
		if e.Tag == EventBodyComplete {
			totalSize = e.BodyTotalSize
			trailers = e.BodyTrailers
		}
	}
	if totalSize != 11 || string(body) != "Hello World" {
		t.Fatalf("bad body: %q totalSize=%d", body, totalSize)
	}
	if len(trailers) != 0 {
		t.Fatalf("expected empty trailer map, got %v", trailers)
	}
}

func TestDecodeChunkedWithTrailerHeaders(t *testing.T) {
	s := NewRequestState(DefaultLimits())
	events := s.Decode([]byte("POST /upload HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n0\r\nX-Trailer: value\r\nAnother-Header: test\r\n\r\n"))
	if !isMessageFinished(s) {
		t.Fatalf("expected finished, err=%v", s.Err)
	}
	var trailers map[string]string
	for _, e := range events {
		if e.Tag == EventBodyComplete {
			trailers = e.BodyTrailers
		}
	}
	if trailers["x-trailer"] != "value" || trailers["another-header"] != "test" {
		t.Fatalf("bad trailers: %v", trailers)
	}
}

func TestDecodeConflictingFramingHeaders(t *testing.T) {
	s := NewRequestState(DefaultLimits())
	s.Decode([]byte("GET / HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\nTransfer-Encoding: chunked\r\n\r\n"))
	if s.Phase != PhaseFinished || s.Err == nil {
		t.Fatalf("expected terminal error state")
	}
	if s.Err.Code != ErrInvalidSyntax {
		t.Fatalf("expected ErrInvalidSyntax, got %v", s.Err.Code)
	}
	if s.Err.Disposition() != RejectMessage {
		t.Fatalf("expected RejectMessage disposition")
	}
}

func TestDecodeResponse204NoBody(t *testing.T) {
	s := NewResponseState(DefaultLimits())
	events := s.Decode([]byte("HTTP/1.1 204 No Content\r\nDate: Mon, 01 Jan 2024 00:00:00 GMT\r\n\r\n"))
	if !isMessageFinished(s) {
		t.Fatalf("expected finished, err=%v", s.Err)
	}
	if s.ResponseLine.StatusCode != 204 || s.ResponseLine.Reason != "No Content" {
		t.Fatalf("bad response line: %+v", s.ResponseLine)
	}
	if hasTag(events, EventBodyData) {
		t.Fatalf("no body-data events expected for 204")
	}
}

func TestDecodePanicsAfterFinished(t *testing.T) {
	s := NewRequestState(DefaultLimits())
	s.Decode([]byte("GET / HTTP/1.1\r\n\r\n"))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on Decode after finished")
		}
	}()
	s.Decode([]byte("more"))
}

func TestDecodeFragmentationEquivalence(t *testing.T) {
	full := []byte("POST /x HTTP/1.1\r\nHost: y\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\r\n0\r\n\r\n")

	whole := NewRequestState(DefaultLimits())
	whole.Decode(full)

	fragmented := NewRequestState(DefaultLimits())
	var body []byte
	for i := range full {
		events := fragmented.Decode(full[i : i+1])
		for _, e := range events {
			if e.Tag == EventBodyData {
				body = append(body, e.BodyData...)
			}
		}
	}

	if !isMessageFinished(whole) || !isMessageFinished(fragmented) {
		t.Fatalf("both should finish: whole.err=%v fragmented.err=%v", whole.Err, fragmented.Err)
	}
	if whole.RequestLine.Path != fragmented.RequestLine.Path {
		t.Fatalf("path mismatch")
	}
	if string(body) != "Hello" {
		t.Fatalf("bad fragmented body: %q", body)
	}
}
