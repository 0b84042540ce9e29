// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

// BodyStrategy is the body-framing mechanism selected from headers alone
// (spec §4.6 framing decision / GLOSSARY "Framing").
type BodyStrategy uint8

const (
	StrategyNone BodyStrategy = iota
	StrategyFixed
	StrategyChunked
	StrategyCloseDelimited
	StrategyUpgrade
)

// framingDecision is the outcome of the framing decision for one message.
type framingDecision struct {
	strategy      BodyStrategy
	contentLength int64
}

// decideFraming implements spec §4.6's framing decision, grounded on
// parse_tr_enc.go's TrEncResolve/ParseAllTrEncValues (repeated-encoding
// accumulation) generalized into the explicit conflict rejection rules
// spec.md adds.
func decideFraming(h *Headers, isResponse bool, statusCode int) (framingDecision, *Error) {
	if isResponse && statusCode == 101 {
		return framingDecision{strategy: StrategyUpgrade}, nil
	}

	teCount := h.Count("transfer-encoding")
	clCount := h.Count("content-length")

	if teCount > 0 {
		if teCount > 1 {
			return framingDecision{}, NewError(ErrInvalidSyntax, "multiple Transfer-Encoding headers")
		}
		if clCount > 0 {
			return framingDecision{}, NewError(ErrInvalidSyntax, "Content-Length with Transfer-Encoding is not permitted")
		}
		te, _ := h.Get("transfer-encoding")
		if !equalFoldASCII([]byte(te), []byte("chunked")) {
			return framingDecision{}, NewErrorf(ErrUnsupportedFeature, "unsupported Transfer-Encoding: %s", truncateForDiag(te))
		}
		return framingDecision{strategy: StrategyChunked}, nil
	}

	if clCount > 0 {
		if clCount > 1 {
			return framingDecision{}, NewError(ErrInvalidSyntax, "multiple Content-Length headers")
		}
		cl, _ := h.Get("content-length")
		n, ok := parseContentLength(cl)
		if !ok {
			return framingDecision{}, NewErrorf(ErrInvalidSyntax, "invalid Content-Length: %s", truncateForDiag(cl))
		}
		if n == 0 {
			return framingDecision{strategy: StrategyNone}, nil
		}
		if n > maxSafeInteger {
			return framingDecision{}, NewErrorf(ErrMessageTooLarge, "Content-Length %d exceeds safe integer range", n)
		}
		return framingDecision{strategy: StrategyFixed, contentLength: n}, nil
	}

	if isResponse {
		return framingDecision{strategy: StrategyCloseDelimited}, nil
	}
	return framingDecision{strategy: StrategyNone}, nil
}

// parseContentLength parses a non-negative decimal integer per spec §4.6:
// no leading '+', no leading '-', no extra leading zeros beyond a single
// "0", no non-digit bytes. Returns false on any violation, and also when
// the digits would grow the value past about 2^62 (so decideFraming
// reports such values as invalid syntax). Values that parse but exceed
// maxSafeInteger (2^53) are accepted here; decideFraming rejects them as
// MESSAGE_TOO_LARGE.
func parseContentLength(s string) (int64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	if s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		// guard against overflow; treat as invalid rather than wrapping
		if n > (1<<62)/10 {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

// maxSafeInteger is the spec's "non-safe-integer" threshold (2^53), beyond
// which an otherwise well-formed Content-Length is rejected as
// MESSAGE_TOO_LARGE rather than accepted (spec §4.6).
const maxSafeInteger = 1 << 53
