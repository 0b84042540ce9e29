// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package httpwire

import "github.com/sirupsen/logrus"

// Logger is the package-level logger used for phase-transition tracing and
// terminal-error reporting. It defaults to a logrus instance with output
// discarded, matching embedding libraries that must stay silent unless a
// caller opts in (set httpwire.Logger = myLogrus or call SetLogger).
//
// Mirrors the logging seams used by proxy code sitting directly on top of
// parsers of this shape: phase transitions at Debug, terminal errors at
// Warn (see other_examples' docker_proxy.go "hp: reading request" /
// "hp: copyBody: copying TE chunked body" style tracing).
var Logger logrus.FieldLogger = newDisabledLogger()

func newDisabledLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// SetLogger overrides the package-level logger. Passing nil restores the
// disabled default.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		Logger = newDisabledLogger()
		return
	}
	Logger = l
}

func logPhase(mode string, from, to MsgPhase) {
	Logger.WithFields(logrus.Fields{
		"mode": mode,
		"from": from.String(),
		"to":   to.String(),
	}).Debug("httpwire: phase transition")
}

func logError(mode string, phase MsgPhase, err *Error) {
	Logger.WithFields(logrus.Fields{
		"mode":  mode,
		"phase": phase.String(),
		"code":  err.Code.String(),
	}).Warn("httpwire: message decode failed: " + err.Message)
}
