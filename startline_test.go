// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import (
	"math/rand"
	"strings"
	"testing"
)

func TestParseRequestLineBasic(t *testing.T) {
	rl, err := parseRequestLine([]byte("GET /path HTTP/1.1"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if rl.Method != "GET" || rl.Path != "/path" || rl.HTTPMinor != 1 {
		t.Fatalf("bad parse: %+v", rl)
	}
	if rl.MethodNo != MGet {
		t.Fatalf("bad method no: %v", rl.MethodNo)
	}
}

func TestParseRequestLineLowerCaseMethod(t *testing.T) {
	rl, err := parseRequestLine([]byte("get /x HTTP/1.0"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if rl.Method != "GET" {
		t.Fatalf("method should be upper-cased, got %q", rl.Method)
	}
	if rl.Raw != "get /x HTTP/1.0" {
		t.Fatalf("raw should preserve original case, got %q", rl.Raw)
	}
}

func TestParseRequestLineMultipleSpaces(t *testing.T) {
	for i := 0; i < 20; i++ {
		spaces := func() string { return strings.Repeat(" ", rand.Intn(5)) }
		line := "GET" + spaces() + " /path " + spaces() + "HTTP/1.1"
		rl, err := parseRequestLine([]byte(line))
		if err != nil {
			t.Fatalf("unexpected error for %q: %s", line, err)
		}
		if rl.Path != "/path" {
			t.Fatalf("bad path for %q: %q", line, rl.Path)
		}
	}
}

func TestParseRequestLineMalformed(t *testing.T) {
	for _, line := range []string{"GET", "GET /path", "GET / HTTP/1.1 extra", ""} {
		if _, err := parseRequestLine([]byte(line)); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestParseRequestLineEmbeddedWhitespaceInTarget(t *testing.T) {
	// a trailing space before the version is consumed as a separator, not
	// embedded whitespace; a tab inside the target itself is rejected.
	if _, err := parseRequestLine([]byte("GET /a\tb HTTP/1.1")); err == nil {
		t.Fatalf("expected error for embedded whitespace in target")
	}
}

func TestParseRequestLineUnsupportedVersion(t *testing.T) {
	_, err := parseRequestLine([]byte("GET / HTTP/2.0"))
	if err == nil || err.Code != ErrUnsupportedHTTPVersion {
		t.Fatalf("expected ErrUnsupportedHTTPVersion, got %v", err)
	}
}

func TestParseStatusLineBasic(t *testing.T) {
	sl, err := parseStatusLine([]byte("HTTP/1.1 200 OK"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sl.StatusCode != 200 || sl.Reason != "OK" || sl.HTTPMinor != 1 {
		t.Fatalf("bad parse: %+v", sl)
	}
}

func TestParseStatusLineDefaultReason(t *testing.T) {
	sl, err := parseStatusLine([]byte("HTTP/1.1 404"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sl.Reason != "Not Found" {
		t.Fatalf("bad default reason: %q", sl.Reason)
	}
}

func TestParseStatusLineUnknownCodeDefaultReason(t *testing.T) {
	sl, err := parseStatusLine([]byte("HTTP/1.1 299"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sl.Reason != "Unknown" {
		t.Fatalf("bad default reason for unknown code: %q", sl.Reason)
	}
}

func TestParseStatusLineInvalidCode(t *testing.T) {
	for _, line := range []string{"HTTP/1.1 99 X", "HTTP/1.1 600 X", "HTTP/1.1 abc X"} {
		_, err := parseStatusLine([]byte(line))
		if err == nil || err.Code != ErrInvalidStatusCode {
			t.Errorf("expected ErrInvalidStatusCode for %q, got %v", line, err)
		}
	}
}

func TestParseHTTPVersionCaseInsensitive(t *testing.T) {
	for i := 0; i < 20; i++ {
		minor, ok := parseHTTPVersion([]byte(randCase("HTTP/1.1")))
		if !ok || minor != 1 {
			t.Fatalf("parseHTTPVersion failed for randomized case: minor=%d ok=%v", minor, ok)
		}
	}
}
