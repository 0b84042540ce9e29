// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import "testing"

func headersOf(t *testing.T, pairs ...[2]string) *Headers {
	t.Helper()
	h := NewHeaders()
	for _, p := range pairs {
		h.insert(p[0], p[1])
		h.Raw = append(h.Raw, HeaderPair{Name: p[0], Value: p[1]})
	}
	return h
}

func TestDecideFramingContentLength(t *testing.T) {
	h := headersOf(t, [2]string{"content-length", "42"})
	d, err := decideFraming(h, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.strategy != StrategyFixed || d.contentLength != 42 {
		t.Fatalf("bad decision: %+v", d)
	}
}

func TestDecideFramingContentLengthZero(t *testing.T) {
	h := headersOf(t, [2]string{"content-length", "0"})
	d, err := decideFraming(h, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.strategy != StrategyNone {
		t.Fatalf("bad decision: %+v", d)
	}
}

func TestDecideFramingChunked(t *testing.T) {
	h := headersOf(t, [2]string{"transfer-encoding", "chunked"})
	d, err := decideFraming(h, true, 200)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.strategy != StrategyChunked {
		t.Fatalf("bad decision: %+v", d)
	}
}

func TestDecideFramingUpgrade(t *testing.T) {
	h := headersOf(t)
	d, err := decideFraming(h, true, 101)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.strategy != StrategyUpgrade {
		t.Fatalf("bad decision: %+v", d)
	}
}

func TestDecideFramingCloseDelimitedResponse(t *testing.T) {
	h := headersOf(t)
	d, err := decideFraming(h, true, 200)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.strategy != StrategyCloseDelimited {
		t.Fatalf("bad decision: %+v", d)
	}
}

func TestDecideFramingNoneRequest(t *testing.T) {
	h := headersOf(t)
	d, err := decideFraming(h, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.strategy != StrategyNone {
		t.Fatalf("bad decision: %+v", d)
	}
}

func TestDecideFramingConflict(t *testing.T) {
	h := headersOf(t, [2]string{"content-length", "5"}, [2]string{"transfer-encoding", "chunked"})
	_, err := decideFraming(h, false, 0)
	if err == nil || err.Code != ErrInvalidSyntax {
		t.Fatalf("expected ErrInvalidSyntax, got %v", err)
	}
}

func TestDecideFramingUnsupportedTransferEncoding(t *testing.T) {
	h := headersOf(t, [2]string{"transfer-encoding", "gzip"})
	_, err := decideFraming(h, false, 0)
	if err == nil || err.Code != ErrUnsupportedFeature {
		t.Fatalf("expected ErrUnsupportedFeature, got %v", err)
	}
}

func TestDecideFramingContentLengthTooLarge(t *testing.T) {
	h := headersOf(t, [2]string{"content-length", "9007199254740993"}) // 2^53 + 1
	_, err := decideFraming(h, false, 0)
	if err == nil || err.Code != ErrMessageTooLarge {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestDecideFramingDuplicateContentLength(t *testing.T) {
	h := headersOf(t, [2]string{"content-length", "5"}, [2]string{"content-length", "5"})
	_, err := decideFraming(h, false, 0)
	if err == nil || err.Code != ErrInvalidSyntax {
		t.Fatalf("expected ErrInvalidSyntax, got %v", err)
	}
}

func TestParseContentLength(t *testing.T) {
	valid := map[string]int64{"0": 0, "5": 5, "123456": 123456}
	for s, want := range valid {
		n, ok := parseContentLength(s)
		if !ok || n != want {
			t.Errorf("parseContentLength(%q) = %d,%v want %d", s, n, ok, want)
		}
	}
	invalid := []string{"", "+5", "-5", "05", "5a", "a5", " 5"}
	for _, s := range invalid {
		if _, ok := parseContentLength(s); ok {
			t.Errorf("parseContentLength(%q) should be invalid", s)
		}
	}
}
