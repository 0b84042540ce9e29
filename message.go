// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

// MsgMode distinguishes a decoder wired for requests from one wired for
// responses (spec §3 "mode").
type MsgMode uint8

const (
	ModeRequest MsgMode = iota
	ModeResponse
)

func (m MsgMode) String() string {
	if m == ModeResponse {
		return "response"
	}
	return "request"
}

// MsgPhase is the top-level message decoder phase (spec §3/§4.6).
type MsgPhase uint8

const (
	PhaseStartLine MsgPhase = iota
	PhaseHeaders
	PhaseBodyChunked
	PhaseBodyFixedLength
	PhaseBodyCloseDelimited
	PhaseUpgrade
	PhaseFinished
)

func (p MsgPhase) String() string {
	switch p {
	case PhaseStartLine:
		return "START_LINE"
	case PhaseHeaders:
		return "HEADERS"
	case PhaseBodyChunked:
		return "BODY_CHUNKED"
	case PhaseBodyFixedLength:
		return "BODY_FIXED_LENGTH"
	case PhaseBodyCloseDelimited:
		return "BODY_CLOSE_DELIMITED"
	case PhaseUpgrade:
		return "UPGRADE"
	case PhaseFinished:
		return "FINISHED"
	}
	return "UNKNOWN"
}

// EventTag is the tag of a decoder Event (spec §3).
type EventTag uint8

const (
	EventPhaseEnter EventTag = iota
	EventStartLineComplete
	EventStartLineParsed
	EventHeaderLine
	EventHeadersComplete
	EventHeadersNormalized
	EventBodyData
	EventBodyComplete
	EventMessageComplete
)

func (t EventTag) String() string {
	switch t {
	case EventPhaseEnter:
		return "phase-enter"
	case EventStartLineComplete:
		return "start-line-complete"
	case EventStartLineParsed:
		return "start-line-parsed"
	case EventHeaderLine:
		return "header-line"
	case EventHeadersComplete:
		return "headers-complete"
	case EventHeadersNormalized:
		return "headers-normalized"
	case EventBodyData:
		return "body-data"
	case EventBodyComplete:
		return "body-complete"
	case EventMessageComplete:
		return "message-complete"
	}
	return "unknown"
}

// Event is one tagged record produced by a decode call (spec §3). Only the
// fields relevant to Tag are populated.
type Event struct {
	Tag EventTag

	Phase MsgPhase // EventPhaseEnter

	RawStartLine string        // EventStartLineComplete
	RequestLine  *RequestLine  // EventStartLineParsed, request mode
	ResponseLine *ResponseLine // EventStartLineParsed, response mode

	HeaderName  string // EventHeaderLine
	HeaderValue string // EventHeaderLine

	HeaderCount int      // EventHeadersComplete
	Headers     *Headers // EventHeadersNormalized

	BodyData         []byte // EventBodyData, zero-copy sub-view of the input
	BodyDataOffset    int64  // EventBodyData, cumulative offset of BodyData[0]
	BodyTotalSize     int64  // EventBodyComplete
	BodyTrailers      map[string]string // EventBodyComplete, chunked only
	BodyTrailerOrder  []string          // EventBodyComplete, chunked only
}

// State is the top-level message decoder state (spec §3 "Top-level message
// state"). Grounded on parse_msg.go's HTTPMsg, generalized from the
// teacher's fixed-header-table record into the event-producing state
// machine spec §4.6 names. Composes a headerDecoder and, once framing is
// decided, exactly one of a fixedBodyDecoder or chunkedDecoder — mirroring
// the teacher's single HTTPMsg owning one ParseTrEnc/ParseClen outcome
// plus one of SkipBody's two body-consumption branches.
type State struct {
	Mode MsgMode
	Phase MsgPhase

	limits Limits

	residual []byte // unconsumed input across calls

	RequestLine  *RequestLine
	ResponseLine *ResponseLine

	hdrDecoder *headerDecoder
	Headers    *Headers

	framing framingDecision

	fixedBody   *fixedBodyDecoder
	chunkedBody *chunkedDecoder

	bodyDecoded int64

	Err *Error

	events []Event
}

// NewRequestState returns a fresh decoder state for the request direction.
func NewRequestState(limits Limits) *State {
	return &State{Mode: ModeRequest, Phase: PhaseStartLine, limits: limits}
}

// NewResponseState returns a fresh decoder state for the response
// direction.
func NewResponseState(limits Limits) *State {
	return &State{Mode: ModeResponse, Phase: PhaseStartLine, limits: limits}
}

// isFinished reports whether s has reached the terminal FINISHED phase,
// with or without an error.
func isFinished(s *State) bool {
	return s.Phase == PhaseFinished
}

// isMessageFinished reports whether s reached FINISHED with a complete
// message (no error stored).
func isMessageFinished(s *State) bool {
	return s.Phase == PhaseFinished && s.Err == nil
}

// Decode is the single entry point driving the state machine forward with
// newly available bytes (spec §4.6 "Per invocation"). It returns the
// events produced during this call. Calling Decode on an already-FINISHED
// or already-errored state is a programmer error.
func (s *State) Decode(data []byte) []Event {
	if s.Phase == PhaseFinished || s.Err != nil {
		panic("httpwire: Decode called on a finished or errored state")
	}
	s.events = s.events[:0]
	s.residual = append(s.residual, data...)

	for {
		advanced, err := s.step()
		if err != nil {
			s.Err = err
			s.Phase = PhaseFinished
			logError(s.Mode.String(), s.Phase, err)
			break
		}
		if !advanced {
			break
		}
	}
	return s.events
}

// step runs the handler for the current phase once. advanced is false when
// the phase made no forward progress (needs more input).
func (s *State) step() (advanced bool, err *Error) {
	switch s.Phase {
	case PhaseStartLine:
		return s.handleStartLine()
	case PhaseHeaders:
		return s.handleHeaders()
	case PhaseBodyFixedLength:
		return s.handleFixedBody()
	case PhaseBodyChunked:
		return s.handleChunkedBody()
	case PhaseBodyCloseDelimited:
		return false, NewError(ErrUnsupportedFeature, "close-delimited body framing is not implemented")
	case PhaseUpgrade:
		return false, NewError(ErrUnsupportedFeature, "protocol upgrade is not implemented")
	}
	return false, nil
}

func (s *State) enterPhase(p MsgPhase) {
	logPhase(s.Mode.String(), s.Phase, p)
	s.Phase = p
	s.events = append(s.events, Event{Tag: EventPhaseEnter, Phase: p})
}

func (s *State) handleStartLine() (bool, *Error) {
	lineEnd, next, code := readLine(s.residual, 0, s.limits.MaxStartLineBytes)
	if code == ErrMoreBytes {
		return false, nil
	}
	if code == ErrLineTooLarge {
		return false, NewError(ErrStartLineTooLarge, "start line exceeds configured limit")
	}

	line := s.residual[0:lineEnd]
	raw := string(line)

	if s.Mode == ModeRequest {
		rl, perr := parseRequestLine(line)
		if perr != nil {
			return false, perr
		}
		s.RequestLine = rl
		s.events = append(s.events, Event{Tag: EventStartLineComplete, RawStartLine: raw})
		s.events = append(s.events, Event{Tag: EventStartLineParsed, RequestLine: rl})
	} else {
		sl, perr := parseStatusLine(line)
		if perr != nil {
			return false, perr
		}
		s.ResponseLine = sl
		s.events = append(s.events, Event{Tag: EventStartLineComplete, RawStartLine: raw})
		s.events = append(s.events, Event{Tag: EventStartLineParsed, ResponseLine: sl})
	}

	s.residual = s.residual[next:]
	s.hdrDecoder = newHeaderDecoder(&s.limits)
	s.enterPhase(PhaseHeaders)
	return true, nil
}

func (s *State) handleHeaders() (bool, *Error) {
	next, err := s.hdrDecoder.decode(s.residual, 0, func(name, value string) {
		s.events = append(s.events, Event{Tag: EventHeaderLine, HeaderName: name, HeaderValue: value})
	})
	if err != nil {
		if err.Code == ErrMoreBytes {
			s.residual = s.residual[next:]
			return false, nil
		}
		return false, err
	}
	s.residual = s.residual[next:]
	if s.hdrDecoder.phase != headerPhaseDone {
		return false, nil
	}

	s.Headers = s.hdrDecoder.headers
	s.events = append(s.events, Event{Tag: EventHeadersComplete, HeaderCount: len(s.Headers.Raw)})
	s.events = append(s.events, Event{Tag: EventHeadersNormalized, Headers: s.Headers})

	statusCode := 0
	if s.ResponseLine != nil {
		statusCode = s.ResponseLine.StatusCode
	}
	decision, ferr := decideFraming(s.Headers, s.Mode == ModeResponse, statusCode)
	if ferr != nil {
		return false, ferr
	}
	s.framing = decision

	switch decision.strategy {
	case StrategyChunked:
		s.chunkedBody = newChunkedDecoder(&s.limits)
		s.enterPhase(PhaseBodyChunked)
	case StrategyFixed:
		s.fixedBody = newFixedBodyDecoder(decision.contentLength)
		s.enterPhase(PhaseBodyFixedLength)
	case StrategyCloseDelimited:
		s.enterPhase(PhaseBodyCloseDelimited)
	case StrategyUpgrade:
		s.enterPhase(PhaseUpgrade)
	default: // StrategyNone
		s.finishMessage()
	}
	return true, nil
}

func (s *State) handleFixedBody() (bool, *Error) {
	if len(s.residual) == 0 && !s.fixedBody.Finished() {
		return false, nil
	}
	captured, next := s.fixedBody.decode(s.residual, 0)
	if len(captured) > 0 {
		s.events = append(s.events, Event{Tag: EventBodyData, BodyData: captured, BodyDataOffset: s.bodyDecoded})
		s.bodyDecoded += int64(len(captured))
	}
	s.residual = s.residual[next:]
	if !s.fixedBody.Finished() {
		return len(captured) > 0, nil
	}
	s.events = append(s.events, Event{Tag: EventBodyComplete, BodyTotalSize: s.bodyDecoded})
	s.finishMessage()
	return true, nil
}

func (s *State) handleChunkedBody() (bool, *Error) {
	next, err := s.chunkedBody.decode(s.residual, 0, func(chunk []byte) {
		s.events = append(s.events, Event{Tag: EventBodyData, BodyData: chunk, BodyDataOffset: s.bodyDecoded})
		s.bodyDecoded += int64(len(chunk))
	})
	if err != nil {
		if err.Code == ErrMoreBytes {
			advanced := next > 0
			s.residual = s.residual[next:]
			return advanced, nil
		}
		return false, err
	}
	// decode only returns a nil error once the trailer phase completes.
	s.residual = s.residual[next:]
	s.events = append(s.events, Event{
		Tag:              EventBodyComplete,
		BodyTotalSize:    s.bodyDecoded,
		BodyTrailers:     s.chunkedBody.trailers,
		BodyTrailerOrder: s.chunkedBody.trailerOrder,
	})
	s.finishMessage()
	return true, nil
}

func (s *State) finishMessage() {
	s.events = append(s.events, Event{Tag: EventMessageComplete})
	s.enterPhase(PhaseFinished)
}
