// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import "bytes"

// chunkPhase is one of the four active phases of the chunked body decoder
// (spec §4.5), cycling SIZE -> DATA -> CRLF -> SIZE until a zero-size chunk
// sends it to TRAILER -> FINISHED.
type chunkPhase uint8

const (
	chunkPhaseSize chunkPhase = iota
	chunkPhaseData
	chunkPhaseCRLF
	chunkPhaseTrailer
	chunkPhaseFinished
)

// chunkedDecoder is the chunked transfer-encoding body decoder. Grounded
// directly on parse_chunk.go's ParseChunk (sCnkParse/sCnkPTrailer states,
// hex size parsing, trailer-via-header-grammar reuse) and parse_msg.go's
// SkipBody MsgBodyChunked/MsgBodyChunkedData cases (the retry loop driving
// chunk-data skip + CRLF + next chunk-size).
type chunkedDecoder struct {
	phase        chunkPhase
	remaining    int64 // bytes left in the current chunk's DATA phase
	decodedBytes int64
	trailers     map[string]string
	trailerOrder []string
	limits       *Limits
}

func newChunkedDecoder(limits *Limits) *chunkedDecoder {
	return &chunkedDecoder{trailers: make(map[string]string), limits: limits}
}

// Finished reports whether the terminal zero-length chunk and its trailer
// block (possibly empty) have been observed.
func (d *chunkedDecoder) Finished() bool {
	return d.phase == chunkPhaseFinished
}

// decode advances the chunked state machine as far as buf[offs:] allows,
// invoking onData once per non-empty freshly decoded chunk-data slice
// (zero-copy sub-view of buf). Calling decode after Finished() is a
// programmer error.
func (d *chunkedDecoder) decode(buf []byte, offs int, onData func([]byte)) (int, *Error) {
	if d.phase == chunkPhaseFinished {
		panic("httpwire: decode called on finished chunked body")
	}
	i := offs
	for {
		switch d.phase {
		case chunkPhaseSize:
			next, err := d.decodeSizeLine(buf, i)
			if err != nil {
				return i, err
			}
			if next == -1 {
				return i, &Error{Code: ErrMoreBytes}
			}
			i = next

		case chunkPhaseData:
			avail := len(buf) - i
			if int64(avail) < d.remaining {
				if avail > 0 {
					onData(buf[i : i+avail])
					d.decodedBytes += int64(avail)
					d.remaining -= int64(avail)
					i += avail
				}
				return i, &Error{Code: ErrMoreBytes}
			}
			take := int(d.remaining)
			if take > 0 {
				onData(buf[i : i+take])
				d.decodedBytes += int64(take)
			}
			i += take
			d.remaining = 0
			d.phase = chunkPhaseCRLF

		case chunkPhaseCRLF:
			if len(buf)-i < 2 {
				return i, &Error{Code: ErrMoreBytes}
			}
			if buf[i] != '\r' || buf[i+1] != '\n' {
				return i, NewError(ErrChunkSizeLineEnding, "expected CRLF after chunk data")
			}
			i += 2
			d.phase = chunkPhaseSize

		case chunkPhaseTrailer:
			next, err := d.decodeTrailer(buf, i)
			if err != nil {
				return i, err
			}
			if next == -1 {
				return i, &Error{Code: ErrMoreBytes}
			}
			i = next
			d.phase = chunkPhaseFinished
			return i, nil
		}
	}
}

// decodeSizeLine parses the SIZE phase line at buf[offs:]. Returns
// next == -1 with a nil error to mean "need more bytes".
func (d *chunkedDecoder) decodeSizeLine(buf []byte, offs int) (int, *Error) {
	maxLine := d.limits.MaxChunkSizeHexDigits + 1 + d.limits.MaxChunkExtensionLength
	lineEnd, next, code := readLine(buf, offs, maxLine)
	if code == ErrMoreBytes {
		return -1, nil
	}
	if code == ErrLineTooLarge {
		return d.classifyOversizedSizeLine(buf, offs, maxLine)
	}

	line := buf[offs:lineEnd]
	semi := bytes.IndexByte(line, ';')

	var hexPart, extPart []byte
	hasExt := semi >= 0
	if hasExt {
		hexPart = trimHTSP(line[:semi])
		extPart = line[semi+1:]
	} else {
		hexPart = trimHTSP(line)
	}

	if hasExt {
		if d.limits.MaxChunkExtensionLength == 0 {
			return 0, NewError(ErrUnsupportedChunkExtension, "chunk extensions are disabled")
		}
		if len(extPart) > d.limits.MaxChunkExtensionLength {
			return 0, NewError(ErrChunkExtensionTooLarge, "chunk extension exceeds configured limit")
		}
	}

	if len(hexPart) == 0 {
		return 0, NewError(ErrInvalidChunkSize, "Empty chunk size line")
	}
	if len(hexPart) > d.limits.MaxChunkSizeHexDigits {
		return 0, NewError(ErrChunkSizeTooLarge, "chunk size hex digits exceed configured limit")
	}

	size, ok := parseHexUint(hexPart)
	if !ok {
		return 0, NewErrorf(ErrInvalidChunkSize, "invalid chunk size: %s", truncateForDiag(string(hexPart)))
	}
	if int64(size) > d.limits.MaxChunkSize {
		return 0, NewError(ErrChunkSizeTooLarge, "chunk size exceeds configured limit")
	}

	if size == 0 {
		d.phase = chunkPhaseTrailer
		d.remaining = 0
	} else {
		d.phase = chunkPhaseData
		d.remaining = int64(size)
	}
	return next, nil
}

// classifyOversizedSizeLine distinguishes CHUNK_SIZE_TOO_LARGE from
// UNSUPPORTED_CHUNK_EXTENSION / CHUNK_EXTENSION_TOO_LARGE when the size
// line itself couldn't be bounded (no CRLF found within maxLine bytes), by
// inspecting the still-available prefix.
func (d *chunkedDecoder) classifyOversizedSizeLine(buf []byte, offs, maxLine int) (int, *Error) {
	prefix := buf[offs : offs+maxLine]
	semi := bytes.IndexByte(prefix, ';')
	if semi < 0 {
		return 0, NewError(ErrChunkSizeTooLarge, "chunk size line exceeds configured limit")
	}
	if d.limits.MaxChunkExtensionLength == 0 {
		return 0, NewError(ErrUnsupportedChunkExtension, "chunk extensions are disabled")
	}
	if semi > d.limits.MaxChunkSizeHexDigits {
		return 0, NewError(ErrChunkSizeTooLarge, "chunk size hex digits exceed configured limit")
	}
	return 0, NewError(ErrChunkExtensionTooLarge, "chunk extension exceeds configured limit")
}

// parseHexUint parses a hex string into a uint64, rejecting any byte
// outside [0-9A-Fa-f] (including a leading sign) per spec §4.5.
func parseHexUint(b []byte) (uint64, bool) {
	var n uint64
	for _, c := range b {
		var v uint64
		switch {
		case c >= '0' && c <= '9':
			v = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			v = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v = uint64(c-'A') + 10
		default:
			return 0, false
		}
		if n > (1<<64-1)/16 {
			return 0, false
		}
		n = n*16 + v
	}
	return n, true
}

// decodeTrailer parses the TRAILER phase (spec §4.5). Returns next == -1
// with a nil error to mean "need more bytes".
func (d *chunkedDecoder) decodeTrailer(buf []byte, offs int) (int, *Error) {
	if len(buf)-offs >= 2 && buf[offs] == '\r' && buf[offs+1] == '\n' {
		return offs + 2, nil
	}
	if len(buf)-offs < 2 {
		return -1, nil
	}

	idx := bytes.Index(buf[offs:], []byte("\r\n\r\n"))
	if idx < 0 {
		if len(buf)-offs > d.limits.MaxTrailerSize {
			return 0, NewError(ErrTrailerTooLarge, "trailer block exceeds configured limit")
		}
		return -1, nil
	}
	if idx > d.limits.MaxTrailerSize {
		return 0, NewError(ErrTrailerTooLarge, "trailer block exceeds configured limit")
	}

	block := buf[offs : offs+idx]
	for _, line := range bytes.Split(block, []byte("\r\n")) {
		if len(line) == 0 {
			continue
		}
		name, value, perr := parseHeaderLine(line)
		if perr != nil {
			return 0, NewError(ErrInvalidTrailer, "malformed trailer line: "+truncateForDiag(string(line)))
		}
		key := string(asciiLower(name))
		if existing, ok := d.trailers[key]; ok {
			d.trailers[key] = existing + ", " + string(value)
		} else {
			d.trailers[key] = string(value)
			d.trailerOrder = append(d.trailerOrder, key)
			if len(d.trailerOrder) > d.limits.MaxTrailers {
				return 0, NewError(ErrTrailerTooMany, "trailer count exceeds configured limit")
			}
		}
	}
	return offs + idx + 4, nil
}
