package rn

import "strings"

// errorTokens are the module error responses shared across commands. Which of
// them can actually occur depends on the command, but any of them is terminal
// for the command that is in flight.
var errorTokens = map[string]bool{
	InvalidParam:    true,
	NotJoined:       true,
	NoFreeCh:        true,
	Busy:            true,
	Silent:          true,
	MacPaused:       true,
	MacErr:          true,
	RadioErr:        true,
	KeysNotInit:     true,
	InvalidDataLen:  true,
	FrameCounterErr: true,
}

// Classify maps one response line to a typed outcome, relative to the command
// class that produced it. Matching is exact and case-sensitive after trimming
// surrounding whitespace. Anything outside the known token set for the given
// Kind comes back as Unrecognized, never as success.
func Classify(kind Kind, line string) Outcome {
	line = strings.TrimSpace(line)

	switch kind {
	case KindConfig, KindJoin, KindTx:
		if line == Ok {
			return Outcome{Kind: OutcomeOk}
		}
		if errorTokens[line] {
			return Outcome{Kind: OutcomeKnownError, Code: line}
		}

	case KindQuery:
		// Queries answer with the value itself; the only failure the
		// module reports is invalid_param (also while still booting).
		if line == InvalidParam {
			return Outcome{Kind: OutcomeKnownError, Code: line}
		}
		if line != "" {
			return Outcome{Kind: OutcomeOk, Payload: line}
		}

	case KindJoinResult:
		switch line {
		case Accepted:
			return Outcome{Kind: OutcomeOk}
		case Denied:
			return Outcome{Kind: OutcomeKnownError, Code: line}
		}

	case KindTxResult:
		switch {
		case line == MacTxOk:
			return Outcome{Kind: OutcomeOk}
		case strings.HasPrefix(line, MacTxOk+" "):
			// Unconfirmed uplink acknowledged with pending downlink data.
			return Outcome{Kind: OutcomeOk, Payload: strings.TrimPrefix(line, MacTxOk+" ")}
		case strings.HasPrefix(line, MacRx+" "):
			// "mac_rx <port> <data>" terminates a transmission that
			// received a downlink. The payload is surfaced raw.
			return Outcome{Kind: OutcomeOk, Payload: strings.TrimPrefix(line, MacRx+" ")}
		case line == MacTxFail || errorTokens[line]:
			return Outcome{Kind: OutcomeKnownError, Code: line}
		}
	}

	return Outcome{Kind: OutcomeUnrecognized, Text: line}
}
