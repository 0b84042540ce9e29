// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE_BSD.txt file in the root of the source
// tree.

package httpwire

import "github.com/intuitivelabs/bytescase"

// isTokenChar reports whether c is allowed inside an RFC 7230 "token":
// any visible US-ASCII char except delimiters, i.e.
// "!#$%&'*+.^_`|~-" plus letters and digits.
func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '.', '^', '_', '`', '|', '~', '-':
		return true
	}
	return false
}

// isHTSP reports whether c is an ASCII horizontal-whitespace byte (space or
// tab), the only whitespace trimmed from header/trailer/extension names and
// values per spec §4.3.
func isHTSP(c byte) bool {
	return c == ' ' || c == '\t'
}

// trimHTSP trims leading and trailing space/tab bytes from b, returning a
// sub-slice (zero-copy).
func trimHTSP(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isHTSP(b[start]) {
		start++
	}
	for end > start && isHTSP(b[end-1]) {
		end--
	}
	return b[start:end]
}

// splitList splits b on every occurrence of sep into trimmed, non-empty
// sub-slices, a simplified single-pass relative of the teacher's resumable
// ParseTokenLst: it works on one complete buffer and keeps no state to
// resume. The decoders do not call it (nor splitParam): chunk extensions
// are only length-checked in chunked.go, and framing.go compares the whole
// Transfer-Encoding value against "chunked".
func splitList(b []byte, sep byte) [][]byte {
	var parts [][]byte
	start := 0
	for i := 0; i <= len(b); i++ {
		if i == len(b) || b[i] == sep {
			part := trimHTSP(b[start:i])
			if len(part) > 0 {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	return parts
}

// splitParam splits a "name=value" or bare "name" token (as found in chunk
// extensions, ";name=value") on the first '=', trimming whitespace from
// both sides. ok is false only for an empty name.
func splitParam(b []byte) (name, value []byte, ok bool) {
	for i := 0; i < len(b); i++ {
		if b[i] == '=' {
			name = trimHTSP(b[:i])
			value = trimHTSP(b[i+1:])
			return name, value, len(name) > 0
		}
	}
	name = trimHTSP(b)
	return name, nil, len(name) > 0
}

// equalFoldASCII reports whether a and b are equal under ASCII case
// folding, using the teacher's bytescase comparator (grounded on
// parse_tr_enc.go's use of bytescase.CmpEq for encoding-token matching).
func equalFoldASCII(a, b []byte) bool {
	return bytescase.CmpEq(a, b)
}

// hasPrefixFold reports whether b starts with prefix under ASCII case
// folding (grounded on parse_fline.go's use of bytescase.Prefix for
// matching the "HTTP/" version prefix).
func hasPrefixFold(prefix, b []byte) (int, bool) {
	return bytescase.Prefix(prefix, b)
}
