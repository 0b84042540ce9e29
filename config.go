// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

// Limits is the parser configuration record (spec §6). It is set once at
// state-creation time; limits are per-state, never global.
type Limits struct {
	// MaxStartLineBytes bounds the start-line length (exclusive of CRLF).
	MaxStartLineBytes int
	// MaxHeaderLineBytes bounds any single header line.
	MaxHeaderLineBytes int
	// MaxHeaderNameBytes bounds a header name after trimming.
	MaxHeaderNameBytes int
	// MaxHeaderValueBytes bounds a header value after trimming.
	MaxHeaderValueBytes int
	// MaxHeaderBytes bounds the cumulative header byte count.
	MaxHeaderBytes int
	// MaxHeaderCount bounds the number of header entries.
	MaxHeaderCount int
	// MaxChunkSizeHexDigits bounds the hex digit count of a chunk size.
	MaxChunkSizeHexDigits int
	// MaxChunkSize bounds a single chunk's decoded length.
	MaxChunkSize int64
	// MaxChunkExtensionLength bounds chunk extension text; 0 disables
	// extensions entirely.
	MaxChunkExtensionLength int
	// MaxTrailers bounds the trailer count.
	MaxTrailers int
	// MaxTrailerSize bounds the trailer block byte length.
	MaxTrailerSize int
	// ChunkSize is the encoder's segmentation unit for streaming chunked
	// output.
	ChunkSize int
}

// DefaultLimits returns the spec §6 default configuration. Each call
// returns an independent value so callers can tweak a copy.
func DefaultLimits() Limits {
	return Limits{
		MaxStartLineBytes:       16 * 1024,
		MaxHeaderLineBytes:      8 * 1024,
		MaxHeaderNameBytes:      256,
		MaxHeaderValueBytes:     8 * 1024,
		MaxHeaderBytes:          16 * 1024,
		MaxHeaderCount:          100,
		MaxChunkSizeHexDigits:   8,
		MaxChunkSize:            1 << 20,
		MaxChunkExtensionLength: 100,
		MaxTrailers:             32,
		MaxTrailerSize:          8 * 1024,
		ChunkSize:               8 * 1024,
	}
}
